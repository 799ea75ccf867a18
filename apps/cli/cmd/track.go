package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/stopwatch/packages/timesheet"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Queue a timesheet entry and upload it",
	Long: `Record time against a job task. The entry is written to the queue
first and then uploaded together with anything still waiting, so nothing
is lost while offline.

Time is given either as --minutes or as a --start/--end range (HH:MM on
--date, or full RFC 3339 timestamps). The duration is rounded to the
nearest minute.

Examples:
  stopwatch track --job J123 --task T9 --minutes 45 --note "Standup"
  stopwatch track --job J123 --task T9 --start 09:00 --end 10:30
  stopwatch track --job J123 --task T9 --minutes 30 --date 2026-01-02 --upload=false`,
	Args: cobra.NoArgs,
	RunE: trackCommand,
}

var (
	trackJobFlag     string
	trackTaskFlag    string
	trackMinutesFlag int
	trackStartFlag   string
	trackEndFlag     string
	trackDateFlag    string
	trackNoteFlag    string
	trackUploadFlag  bool
)

func init() {
	trackCmd.Flags().StringVar(&trackJobFlag, "job", "", "Job ID")
	trackCmd.Flags().StringVar(&trackTaskFlag, "task", "", "Task ID")
	trackCmd.Flags().IntVarP(&trackMinutesFlag, "minutes", "m", 0, "Minutes worked")
	trackCmd.Flags().StringVar(&trackStartFlag, "start", "", "Start time (HH:MM or RFC 3339)")
	trackCmd.Flags().StringVar(&trackEndFlag, "end", "", "End time (HH:MM or RFC 3339, default now)")
	trackCmd.Flags().StringVar(&trackDateFlag, "date", "", "Day worked as YYYY-MM-DD (default today)")
	trackCmd.Flags().StringVarP(&trackNoteFlag, "note", "n", "", "Timesheet note")
	trackCmd.Flags().BoolVar(&trackUploadFlag, "upload", getEnvBool("STOPWATCH_UPLOAD", true), "Upload queued timesheets right away (env: STOPWATCH_UPLOAD)")

	_ = trackCmd.MarkFlagRequired("job")
	_ = trackCmd.MarkFlagRequired("task")
	trackCmd.MarkFlagsMutuallyExclusive("minutes", "start")
	trackCmd.MarkFlagsOneRequired("minutes", "start")
}

func trackCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return exitWith(ExitConfigError, err)
	}
	if cfg.GetNoColor() {
		color.NoColor = true
	}

	now := time.Now()
	day, err := parseDay(trackDateFlag, now)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr())
	client := newQueryClient(cfg, logger)
	defer client.Close()
	api := newAPIClient(client, cfg)

	staffID := cfg.StaffID
	if staffID == "" {
		if cfg.Email == "" {
			return exitWith(ExitConfigError, fmt.Errorf("staffId or email must be configured"))
		}
		staffID, err = resolveStaffID(ctx, api, cfg, out)
		if err != nil {
			return exitWith(apiExitCode(err), err)
		}
	}

	timer := &timesheet.Timer{Clock: func() time.Time { return now }}
	if trackStartFlag != "" {
		start, err := parseClock(trackStartFlag, day)
		if err != nil {
			return exitWith(ExitUsageError, err)
		}
		end := now
		if trackEndFlag != "" {
			if end, err = parseClock(trackEndFlag, day); err != nil {
				return exitWith(ExitUsageError, err)
			}
		}
		if !end.After(start) {
			return exitWith(ExitUsageError, fmt.Errorf("--end must be after --start"))
		}
		timer.Start(start)
		timer.Stop(end)
	} else {
		timer.Start(day)
		timer.Stop(day.Add(time.Duration(trackMinutesFlag) * time.Minute))
	}

	entry := timer.Entry(trackJobFlag, trackTaskFlag, staffID, trackNoteFlag)

	queue, err := timesheet.NewQueue(cfg.QueueDir, timesheet.WithRate(cfg.UploadRate), timesheet.WithLogger(logger))
	if err != nil {
		return exitWith(ExitConfigError, err)
	}

	path, err := queue.Enqueue(entry)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(out, "Queued %s on %s for job %s task %s (%s)\n",
		cyan(timer.Hours()), entry.Date.Format("2006-01-02"), entry.Job, entry.Task, filepath.Base(path))

	if !trackUploadFlag {
		return nil
	}

	result, err := queue.Flush(ctx, api)
	printFlushResult(out, result)
	if err != nil {
		return exitWith(ExitNetworkError, err)
	}
	if len(result.Failed) > 0 {
		return exitWith(ExitRequestFailure, nil)
	}
	return nil
}

// parseDay reads YYYY-MM-DD in local time; empty means the day of now
func parseDay(value string, now time.Time) (time.Time, error) {
	if value == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	}
	day, err := time.ParseInLocation("2006-01-02", value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", value)
	}
	return day, nil
}

// parseClock reads HH:MM on day, or a full RFC 3339 timestamp
func parseClock(value string, day time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	clock, err := time.Parse("15:04", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (expected HH:MM or RFC 3339)", value)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, day.Location()), nil
}
