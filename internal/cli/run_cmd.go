package cli

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/attendance"
	"github.com/spf13/cobra"
)

func newRunCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, report and reconcile one business day",
		Long:  "Runs the daily job. Without --date the previous business day is processed (weekends are skipped).",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := resolveDay(app, date)
			if err != nil {
				return err
			}

			summary, runErr := app.Pipeline.Run(cmd.Context(), day)
			if summary != nil {
				r := summary.Run
				fmt.Fprintf(cmd.OutOrStdout(), "Run %s for %s: %s\n", r.ID, day.Format("02/01/2006"), r.Status)
				fmt.Fprintf(cmd.OutOrStdout(), "  technicians: %d, below minimum: %d, rejected rows: %d\n",
					r.Technicians, r.BelowMinimum, r.Rejected)
				fmt.Fprintf(cmd.OutOrStdout(), "  report sent: %t, alerts: %d sent, %d failed\n",
					r.ReportSent, r.Alerted, r.AlertFailures)
				if r.WorkbookPath != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "  workbook: %s\n", r.WorkbookPath)
				}
			}
			if runErr != nil {
				return fmt.Errorf("run failed: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "business day to process (YYYY-MM-DD)")
	return cmd
}

func resolveDay(app *App, date string) (time.Time, error) {
	if date == "" {
		return attendance.PreviousBusinessDay(app.now()), nil
	}
	day, err := time.ParseInLocation("2006-01-02", date, app.location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", date)
	}
	return day, nil
}
