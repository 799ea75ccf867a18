// Package query is the asynchronous HTTP query engine used by stopwatch to talk
// to the job-tracking service.
//
// A query is built into an immutable Request, driven by a Session against a
// Transport, and its result is delivered exactly once to a completion target:
//   - Request building with method validation and payload encoding
//   - Streamed body accumulation across transport notifications
//   - Redirects re-issued on the same session
//   - Blocking, non-blocking and immediate execution modes
//   - Atomic save-to-disk of successful response bodies
//
// Transport notifications are posted to a Loop and handled one at a time on
// whichever goroutine pumps it. Non-blocking callers run Client.Run in the
// background; blocking callers pump the loop themselves through Session.Wait.
package query
