package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// ErrNoHistory is returned when run history is requested without a database.
var ErrNoHistory = errors.New("run history requires DB_HOST")

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the most recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Runs == nil {
				return ErrNoHistory
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			runs, err := app.Runs.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tDAY\tSTATUS\tTECHNICIANS\tBELOW\tALERTED\tDURATION\tERROR")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
					r.StartedAt.In(app.location()).Format("2006-01-02 15:04"),
					r.Day.Format("2006-01-02"),
					r.Status,
					r.Technicians,
					r.BelowMinimum,
					r.Alerted,
					r.Duration().Round(time.Second),
					r.Error,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to list")
	return cmd
}
