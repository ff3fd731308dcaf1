package report

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/attendance"
)

// File is a daily report written to the run directory.
type File struct {
	Path string
	Name string
	Day  time.Time
	Rows int
}

type ReportService interface {
	// Write renders the aggregate as CSV into dir. Rows are ordered by canonical
	// technician key.
	Write(ctx context.Context, dir string, agg *attendance.DailyAggregate) (*File, error)

	// Archive copies the file into long-term storage and returns its key. It is a
	// no-op returning "" when no storage is configured.
	Archive(ctx context.Context, file *File) (string, error)
}
