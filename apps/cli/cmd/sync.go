package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/abdul-hamid-achik/stopwatch/packages/core/config"
	"github.com/abdul-hamid-achik/stopwatch/packages/query"
	"github.com/abdul-hamid-achik/stopwatch/packages/timesheet"
	"github.com/abdul-hamid-achik/stopwatch/packages/workflowmax"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "List your jobs and upload queued timesheets",
	Long: `Resolve your staff ID (by email when staffId is not configured),
print the client, job and task tree assigned to you and upload every
timesheet waiting in the queue.

Examples:
  stopwatch sync
  stopwatch sync --jobs=false
  stopwatch sync --watch`,
	Args: cobra.NoArgs,
	RunE: syncCommand,
}

var (
	syncWatchFlag bool
	syncJobsFlag  bool
)

func init() {
	syncCmd.Flags().BoolVarP(&syncWatchFlag, "watch", "w", false, "Keep running and upload timesheets as they are queued")
	syncCmd.Flags().BoolVar(&syncJobsFlag, "jobs", true, "Print the job and task tree")
}

func syncCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return exitWith(ExitConfigError, err)
	}
	if err := cfg.Validate(); err != nil {
		return exitWith(ExitConfigError, err)
	}
	if cfg.GetNoColor() {
		color.NoColor = true
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr())
	client := newQueryClient(cfg, logger)
	defer client.Close()
	api := newAPIClient(client, cfg)

	if syncJobsFlag {
		staffID, err := resolveStaffID(ctx, api, cfg, out)
		if err != nil {
			return exitWith(apiExitCode(err), err)
		}

		jobs, err := api.JobsForStaff(ctx, staffID)
		if err != nil {
			return exitWith(apiExitCode(err), fmt.Errorf("failed to list jobs: %w", err))
		}
		printJobTree(out, workflowmax.GroupByClient(jobs))
	}

	queue, err := timesheet.NewQueue(cfg.QueueDir, timesheet.WithRate(cfg.UploadRate), timesheet.WithLogger(logger))
	if err != nil {
		return exitWith(ExitConfigError, err)
	}

	result, err := queue.Flush(ctx, api)
	printFlushResult(out, result)
	if err != nil {
		return exitWith(ExitNetworkError, err)
	}

	if !syncWatchFlag {
		if len(result.Failed) > 0 {
			return exitWith(ExitRequestFailure, nil)
		}
		return nil
	}

	fmt.Fprintf(out, "\nWatching %s for timesheets... (press Ctrl+C to stop)\n", queue.Dir())
	return queue.Watch(ctx, api, func(r timesheet.FlushResult) {
		printFlushResult(out, r)
	})
}

func newAPIClient(client *query.Client, cfg *config.Config) *workflowmax.Client {
	return workflowmax.NewClient(client, workflowmax.Settings{
		Host:       cfg.Host,
		APIKey:     cfg.APIKey,
		AccountKey: cfg.AccountKey,
	})
}

// apiExitCode maps a WorkflowMax client error onto an exit code
func apiExitCode(err error) int {
	var apiErr *workflowmax.APIError
	switch {
	case errors.Is(err, workflowmax.ErrStaffNotFound):
		return ExitConfigError
	case errors.As(err, &apiErr):
		return ExitRequestFailure
	default:
		return ExitNetworkError
	}
}

// resolveStaffID prefers the configured ID and falls back to an email lookup
func resolveStaffID(ctx context.Context, api *workflowmax.Client, cfg *config.Config, out io.Writer) (string, error) {
	if cfg.StaffID != "" {
		return cfg.StaffID, nil
	}

	staff, err := api.StaffByEmail(ctx, cfg.Email)
	if err != nil {
		return "", fmt.Errorf("failed to resolve staff ID: %w", err)
	}
	if cfg.GetVerbose() {
		fmt.Fprintf(out, "Staff: %s (%s)\n", staff.Name, staff.ID)
	}
	return staff.ID, nil
}

func printJobTree(w io.Writer, groups []workflowmax.ClientJobs) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	if len(groups) == 0 {
		fmt.Fprintf(w, "No jobs assigned\n")
		return
	}

	for _, g := range groups {
		fmt.Fprintf(w, "%s\n", bold(g.Client.Name))
		for _, job := range g.Jobs {
			fmt.Fprintf(w, "  %s %s\n", cyan(job.ID), job.Name)
			for _, task := range job.Tasks {
				fmt.Fprintf(w, "    %s %s\n", faint(task.ID), task.Name)
			}
		}
	}
}

func printFlushResult(w io.Writer, r timesheet.FlushResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if r.Empty() {
		fmt.Fprintf(w, "No queued timesheets\n")
		return
	}
	for _, path := range r.Posted {
		fmt.Fprintf(w, "  %s uploaded %s\n", green("✓"), filepath.Base(path))
	}
	for path, err := range r.Failed {
		fmt.Fprintf(w, "  %s %s: %v\n", red("✗"), filepath.Base(path), err)
	}
	fmt.Fprintf(w, "Timesheets: %s, %s\n",
		green(fmt.Sprintf("%d uploaded", len(r.Posted))),
		red(fmt.Sprintf("%d queued", len(r.Failed))))
}
