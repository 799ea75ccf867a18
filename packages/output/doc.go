// Package output renders query results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
//
// Each formatter implements the Formatter interface; JSON also implements
// Flushable because it writes a single document at the end.
package output
