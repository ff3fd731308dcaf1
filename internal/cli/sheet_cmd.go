package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/cmlabs-hris/hours-report/internal/domain/monthly"
	"github.com/cmlabs-hris/hours-report/internal/pkg/hhmm"
	"github.com/cmlabs-hris/hours-report/internal/pkg/validator"
	"github.com/spf13/cobra"
)

func newSheetCmd(app *App) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Print the monthly totals from the workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := validator.IsValidMonth(month)
			if !ok {
				return fmt.Errorf("invalid --month %q: expected YYYY-MM", month)
			}

			sheet, err := app.Sheets.Load(cmd.Context(), m.Year(), m.Month())
			if errors.Is(err, monthly.ErrSheetNotFound) {
				return fmt.Errorf("no workbook for %s", m.Format("01/2006"))
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TECHNICIAN\tTOTAL\tDAYS\tBELOW MINIMUM")
			for _, row := range sheet.Ordered() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n",
					row.Technician, hhmm.Format(row.TotalMinutes), len(row.Days), row.BelowMinimumDays)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month to print (YYYY-MM)")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}
