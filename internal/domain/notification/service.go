package notification

import (
	"context"

	"github.com/cmlabs-hris/hours-report/internal/domain/attendance"
	"github.com/cmlabs-hris/hours-report/internal/domain/report"
)

// Outcome reports what was delivered. Delivery problems never abort the run;
// they are surfaced here and in the run log.
type Outcome struct {
	ReportErr error
	Alerted   []string
	Skipped   []string
	AlertErrs []*AlertError
}

// Failed reports whether any delivery went wrong.
func (o Outcome) Failed() bool {
	return o.ReportErr != nil || len(o.AlertErrs) > 0
}

type Dispatcher interface {
	// Dispatch emails the report and alerts every below-minimum technician.
	// file may be nil when the report could not be written; the email is then
	// not sent but alerts still go out.
	Dispatch(ctx context.Context, agg *attendance.DailyAggregate, file *report.File) Outcome
}
