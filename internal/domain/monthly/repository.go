package monthly

import (
	"context"
	"time"
)

// SheetRepository persists one Sheet per calendar month.
type SheetRepository interface {
	// Load returns ErrSheetNotFound when the month has no workbook yet and an
	// error wrapping ErrSchemaMismatch when the layout is not recognized.
	Load(ctx context.Context, year int, month time.Month) (*Sheet, error)

	// Save atomically replaces the month's workbook.
	Save(ctx context.Context, sheet *Sheet) error

	// Path returns the deterministic location of the month's workbook.
	Path(year int, month time.Month) string
}

// Lock is held for the duration of one reconciliation.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker provides exclusive access to one workbook across processes.
type Locker interface {
	Acquire(ctx context.Context, key string) (Lock, error)
}

// Reconciler merges a day into its month.
type Reconciler interface {
	Reconcile(ctx context.Context, day time.Time, totals []DayTotal) (*Result, error)
}

// DayTotal is the reconciler's view of one technician's daily total.
type DayTotal struct {
	Technician string
	Minutes    int
}
