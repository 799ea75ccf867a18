// Package timesheet records time against WorkflowMax jobs.
//
// Entries are written to a queue directory as <Timesheet> XML documents and
// uploaded later, so time can be tracked while offline. A queued file is
// removed only after the API accepted it.
package timesheet
