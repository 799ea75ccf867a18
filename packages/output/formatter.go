package output

import (
	"fmt"
	"io"
	"time"
)

// Formatter renders query results
type Formatter interface {
	FormatResult(result *Result)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable is implemented by formatters that write everything at the end
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// New returns the formatter registered under name
func New(name string, w io.Writer, verbose, noColor bool) (Formatter, error) {
	switch name {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor)), nil
	case "json":
		return NewJSONFormatter(JSONWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected console or json)", name)
	}
}
