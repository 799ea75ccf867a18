// Package capture extracts values from query responses and checks response
// bodies against JSON Schemas.
//
// Captures read from:
//   - Response body (gjson paths)
//   - Response headers
//   - Response status code and duration
package capture
