// Package cli holds the hours-report cobra commands.
package cli

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/monthly"
	"github.com/cmlabs-hris/hours-report/internal/domain/run"
	"github.com/cmlabs-hris/hours-report/internal/service/pipeline"
	"github.com/spf13/cobra"
)

// Pipeline runs one business day.
type Pipeline interface {
	Run(ctx context.Context, day time.Time) (*pipeline.Summary, error)
}

// App holds the wired services used by the commands.
type App struct {
	Pipeline Pipeline
	Sheets   monthly.SheetRepository
	// Runs is nil when no database is configured.
	Runs run.Repository

	Location *time.Location
	Now      func() time.Time
}

func (a *App) now() time.Time {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	if a.Location != nil {
		return now().In(a.Location)
	}
	return now()
}

func (a *App) location() *time.Location {
	if a.Location != nil {
		return a.Location
	}
	return time.Local
}

// NewRootCmd creates the top-level "hours-report" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "hours-report",
		Short:         "Daily technician hours report and monthly workbook",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(app),
		newSheetCmd(app),
		newHistoryCmd(app),
	)

	return root
}
