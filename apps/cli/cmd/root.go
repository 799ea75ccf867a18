package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag  string
	envFileFlag string
	verboseFlag int
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "stopwatch",
	Short: "Track time against WorkflowMax jobs from the terminal.",
	Long: `stopwatch records time against your WorkflowMax jobs and tasks.
Timesheets are queued on disk and uploaded when the API is reachable, so
tracking keeps working offline. The fetch command exposes the underlying
HTTP query engine for talking to any API directly.`,
	SilenceUsage: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitUsageError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("STOPWATCH_CONFIG", ""), "Path to config file (env: STOPWATCH_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", getEnvString("STOPWATCH_ENV_FILE", ""), "Path to .env file with WFM_* settings (default: ./.env if present) (env: STOPWATCH_ENV_FILE)")
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-vv also traces every query transition)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("STOPWATCH_NO_COLOR", false), "Disable colored output (env: STOPWATCH_NO_COLOR)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

// ExitError carries the process exit code of a failed command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitWith(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}
