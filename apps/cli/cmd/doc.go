// Package cmd implements the stopwatch CLI commands using Cobra.
//
// Available commands:
//   - fetch: Issue a single HTTP query and show or save the response
//   - sync: Resolve the staff member, list their jobs and upload queued timesheets
//   - track: Queue a timesheet entry and upload it
//   - init: Create a .stopwatch.yaml configuration file
//   - version: Show stopwatch version information
package cmd
