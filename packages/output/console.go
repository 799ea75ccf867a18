package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *Result) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	resp := result.Response
	if result.Request != nil {
		fmt.Fprintf(f.writer, "%s %s\n", bold(result.Request.Method), result.Request.URL)
	}
	if resp == nil {
		fmt.Fprintf(f.writer, "  %s no response\n", red("x"))
		return
	}

	if resp.TransportError {
		fmt.Fprintf(f.writer, "  %s %s %s\n", red("x"), red("transport error"), cyan(fmt.Sprintf("(%dms)", resp.DurationMs())))
		if resp.Err != nil {
			fmt.Fprintf(f.writer, "    %v\n", resp.Err)
		}
		return
	}

	status := fmt.Sprintf("%d", resp.StatusCode)
	switch {
	case resp.IsSuccess():
		status = green(status)
	case resp.IsRedirect():
		status = yellow(status)
	default:
		status = red(status)
	}
	fmt.Fprintf(f.writer, "  %s %s\n", status, cyan(fmt.Sprintf("(%dms, %d bytes)", resp.DurationMs(), len(resp.Body))))

	if resp.URL != "" && result.Request != nil && resp.URL != result.Request.URL {
		fmt.Fprintf(f.writer, "  %s %s\n", yellow("→"), resp.URL)
	}

	if f.verbose && len(resp.Headers) > 0 {
		keys := make([]string, 0, len(resp.Headers))
		for k := range resp.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(f.writer, "    %s: %s\n", k, resp.Headers[k])
		}
	}

	if result.SchemaErr != nil {
		fmt.Fprintf(f.writer, "  %s %v\n", red("✗"), result.SchemaErr)
	}

	if len(result.Captures) > 0 {
		names := make([]string, 0, len(result.Captures))
		for name := range result.Captures {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(f.writer, "  Captures:\n")
		for _, name := range names {
			fmt.Fprintf(f.writer, "    %s = %s\n", name, formatValue(result.Captures[name], 100))
		}
	}

	switch {
	case result.SaveErr != nil:
		fmt.Fprintf(f.writer, "  %s %v\n", red("✗"), result.SaveErr)
	case result.SavedTo != "" && resp.IsSuccess():
		fmt.Fprintf(f.writer, "  %s saved to %s\n", green("✓"), result.SavedTo)
	case len(resp.Body) > 0:
		fmt.Fprintf(f.writer, "\n%s\n", printableBody(resp.Body))
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("stopwatch"), version)
}

// printableBody keeps binary bodies off the terminal
func printableBody(body []byte) string {
	if !utf8.Valid(body) {
		return fmt.Sprintf("[binary body, %d bytes]", len(body))
	}
	return strings.TrimRight(string(body), "\n")
}
