package output

import (
	"github.com/abdul-hamid-achik/stopwatch/packages/query"
)

// Result is everything a formatter shows about one finished query
type Result struct {
	Request   *query.Request
	Response  *query.Response
	Captures  map[string]any
	SchemaErr error
	SavedTo   string
	SaveErr   error
}

// NewResult collects a finished session's request, response and save outcome
func NewResult(s *query.Session) *Result {
	return &Result{
		Request:  s.Request(),
		Response: s.Response(),
		SaveErr:  s.SaveError(),
	}
}

// Failed reports whether the query should count as a failure for exit codes
func (r *Result) Failed() bool {
	if r.Response == nil || r.Response.TransportError {
		return true
	}
	return !r.Response.IsSuccess() || r.SchemaErr != nil
}
