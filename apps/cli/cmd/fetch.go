package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/stopwatch/packages/capture"
	"github.com/abdul-hamid-achik/stopwatch/packages/output"
	"github.com/abdul-hamid-achik/stopwatch/packages/query"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Issue one HTTP query and print or save the response",
	Long: `Issue a single HTTP query through the stopwatch query engine.

By default the command blocks until the response has been delivered.
--async starts the query and pumps the event loop in the background,
--immediate fetches in one synchronous step without streaming.

Examples:
  stopwatch fetch https://api.example.com/ping -H "Accept: application/xml"
  stopwatch fetch https://api.example.com/items -X POST -d '{"name":"x"}' -H "Content-Type: application/json"
  stopwatch fetch https://example.com/report.pdf -o ~/Downloads/report.pdf
  stopwatch fetch https://api.example.com/me --user alice:secret --capture id=body.id
  stopwatch fetch https://api.example.com/items --schema items.schema.json --output json`,
	Args: cobra.ExactArgs(1),
	RunE: fetchCommand,
}

var (
	fetchMethodFlag    string
	fetchHeaderFlags   []string
	fetchDataFlag      string
	fetchSaveToFlag    string
	fetchUserFlag      string
	fetchAsyncFlag     bool
	fetchImmediateFlag bool
	fetchTimeoutFlag   string
	fetchCaptureFlags  []string
	fetchSchemaFlag    string
	fetchOutputFlag    string
)

func init() {
	fetchCmd.Flags().StringVarP(&fetchMethodFlag, "request", "X", "", "HTTP method: GET, POST, PUT, DELETE (default GET, or POST with --data)")
	fetchCmd.Flags().StringArrayVarP(&fetchHeaderFlags, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	fetchCmd.Flags().StringVarP(&fetchDataFlag, "data", "d", "", "Request body; @file reads it from a file, @- from stdin")
	fetchCmd.Flags().StringVarP(&fetchSaveToFlag, "save-to", "o", "", "Save a successful response body to this path")
	fetchCmd.Flags().StringVarP(&fetchUserFlag, "user", "u", "", "Basic credentials as user:password")
	fetchCmd.Flags().BoolVar(&fetchAsyncFlag, "async", false, "Start the query without blocking and pump the loop in the background")
	fetchCmd.Flags().BoolVar(&fetchImmediateFlag, "immediate", false, "Fetch synchronously in one step without streaming")
	fetchCmd.Flags().StringVar(&fetchTimeoutFlag, "timeout", getEnvString("STOPWATCH_TIMEOUT", ""), "Time to wait for response headers, e.g. 10s (default from config) (env: STOPWATCH_TIMEOUT)")
	fetchCmd.Flags().StringArrayVar(&fetchCaptureFlags, "capture", nil, "Capture a value: [name=]body.<path>|header.<name>|status|duration (repeatable)")
	fetchCmd.Flags().StringVar(&fetchSchemaFlag, "schema", "", "Validate the response body against a JSON Schema file")
	fetchCmd.Flags().StringVar(&fetchOutputFlag, "output", getEnvString("STOPWATCH_OUTPUT", "console"), "Output format: console, json (env: STOPWATCH_OUTPUT)")
}

func fetchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return exitWith(ExitConfigError, err)
	}

	if fetchAsyncFlag && fetchImmediateFlag {
		return exitWith(ExitUsageError, fmt.Errorf("--async and --immediate cannot be combined"))
	}

	headers, err := parseHeaders(fetchHeaderFlags)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	payload, err := readPayload(fetchDataFlag, cmd.InOrStdin())
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	credential, err := parseCredential(fetchUserFlag)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	var timeout time.Duration
	if fetchTimeoutFlag != "" {
		timeout, err = time.ParseDuration(fetchTimeoutFlag)
		if err != nil {
			return exitWith(ExitUsageError, fmt.Errorf("invalid timeout %q: %w", fetchTimeoutFlag, err))
		}
	}

	captures := make([]*capture.Capture, 0, len(fetchCaptureFlags))
	for _, expr := range fetchCaptureFlags {
		c, err := capture.Parse(expr)
		if err != nil {
			return exitWith(ExitUsageError, err)
		}
		captures = append(captures, c)
	}

	formatter, err := output.New(strings.ToLower(fetchOutputFlag), cmd.OutOrStdout(), cfg.GetVerbose(), cfg.GetNoColor())
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cmd.ErrOrStderr())
	client := newQueryClient(cfg, logger)
	defer client.Close()

	if fetchAsyncFlag {
		go func() {
			if err := client.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Printf("[fetch] loop stopped: %v", err)
			}
		}()
	}

	opts := query.Options{
		Headers:    headers,
		SaveTo:     fetchSaveToFlag,
		Credential: credential,
		Blocking:   !fetchAsyncFlag,
		Immediate:  fetchImmediateFlag,
		Timeout:    timeout,
		// Results are read from the session once it is done
		Handler: func(*query.Response, *query.Session) {},
	}
	if payload != nil {
		opts.Payload = payload
	}

	start := time.Now()
	session, err := client.Do(ctx, resolveMethod(fetchMethodFlag, payload), args[0], opts)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	if fetchAsyncFlag {
		if cfg.GetVerbose() {
			logger.Printf("[fetch] session %s started", session.ID())
		}
		if err := awaitSession(ctx, session); err != nil {
			logger.Printf("[fetch] %v", err)
		}
	}

	result := output.NewResult(session)
	result.SavedTo = fetchSaveToFlag
	if resp := result.Response; resp != nil && !resp.TransportError {
		if len(captures) > 0 {
			result.Captures = capture.ExtractAll(resp, captures)
		}
		if fetchSchemaFlag != "" {
			result.SchemaErr = capture.ValidateSchema(resp, fetchSchemaFlag)
		}
	}

	formatter.FormatResult(result)
	if flushable, ok := formatter.(output.Flushable); ok {
		if err := flushable.Flush(time.Since(start)); err != nil {
			return err
		}
	}

	switch {
	case result.Response == nil || result.Response.TransportError:
		return exitWith(ExitNetworkError, nil)
	case result.Failed() || result.SaveErr != nil:
		return exitWith(ExitRequestFailure, nil)
	}
	return nil
}

// awaitSession waits for a non-blocking session, cancelling it if ctx ends
// first so the completion target still runs.
func awaitSession(ctx context.Context, s *query.Session) error {
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		s.Cancel()
		return ctx.Err()
	}
}
