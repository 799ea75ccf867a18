// Package fsutil holds the file helpers shared by the response saver and the
// timesheet queue: home-directory expansion and atomic writes.
package fsutil
