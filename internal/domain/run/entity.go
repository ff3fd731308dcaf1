package run

import (
	"context"
	"time"
)

type Status string

const (
	StatusSuccess Status = "success"
	// StatusPartial means the run finished but some delivery or input rows failed.
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Run is one execution of the daily job.
type Run struct {
	ID            string
	Day           time.Time
	Status        Status
	StartedAt     time.Time
	FinishedAt    time.Time
	Technicians   int
	BelowMinimum  int
	Rejected      int
	Alerted       int
	AlertFailures int
	ReportSent    bool
	WorkbookPath  string
	Error         string
}

// Duration is how long the run took.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Repository keeps the run history.
type Repository interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, r *Run) error
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
