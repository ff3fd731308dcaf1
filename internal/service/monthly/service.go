package monthly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/attendance"
	"github.com/cmlabs-hris/hours-report/internal/domain/monthly"
	"github.com/cmlabs-hris/hours-report/internal/pkg/hhmm"
)

type ReconcilerImpl struct {
	repo      monthly.SheetRepository
	locker    monthly.Locker
	threshold attendance.Threshold
	logger    *slog.Logger
}

func NewReconciler(repo monthly.SheetRepository, locker monthly.Locker, threshold attendance.Threshold, logger *slog.Logger) monthly.Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcilerImpl{
		repo:      repo,
		locker:    locker,
		threshold: threshold,
		logger:    logger.With("stage", "reconcile"),
	}
}

// Reconcile writes each total into the day's column of the month workbook. Running
// it twice with the same totals leaves the workbook unchanged. Technicians absent
// from totals keep whatever the workbook already holds for that day.
func (s *ReconcilerImpl) Reconcile(ctx context.Context, day time.Time, totals []monthly.DayTotal) (result *monthly.Result, err error) {
	year, month := day.Year(), day.Month()
	path := s.repo.Path(year, month)

	lock, err := s.locker.Acquire(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			s.logger.Error("Failed to release workbook lock", "path", path, "error", releaseErr)
			err = errors.Join(err, releaseErr)
		}
	}()

	result = &monthly.Result{Path: path, Day: day.Day()}

	sheet, err := s.repo.Load(ctx, year, month)
	switch {
	case errors.Is(err, monthly.ErrSheetNotFound):
		s.logger.Info("Monthly workbook not found, creating a new one", "path", path)
		sheet = monthly.NewSheet(year, month)
		result.Created = true
	case err != nil:
		return nil, fmt.Errorf("failed to load monthly workbook: %w", err)
	}

	if sheet.Year != year || sheet.Month != month {
		return nil, fmt.Errorf("%w: day %s, workbook %04d-%02d", monthly.ErrWrongMonth, day.Format("2006-01-02"), sheet.Year, int(sheet.Month))
	}

	for _, total := range totals {
		_, existed := sheet.Row(total.Technician)
		previous, had, err := sheet.Set(total.Technician, day.Day(), total.Minutes)
		if err != nil {
			return nil, fmt.Errorf("failed to set %s on day %d: %w", total.Technician, day.Day(), err)
		}

		switch {
		case !existed:
			result.Inserted = append(result.Inserted, total.Technician)
		case had && previous != total.Minutes:
			s.logger.Warn("Overwriting recorded duration",
				"technician", total.Technician,
				"day", day.Day(),
				"previous", hhmm.Format(previous),
				"current", hhmm.Format(total.Minutes),
			)
			result.Overwritten = append(result.Overwritten, total.Technician)
			result.Updated = append(result.Updated, total.Technician)
		default:
			result.Updated = append(result.Updated, total.Technician)
		}
	}

	sheet.Recompute(s.threshold.For)

	if err := s.repo.Save(ctx, sheet); err != nil {
		return nil, fmt.Errorf("failed to save monthly workbook: %w", err)
	}

	s.logger.Info("Monthly workbook reconciled",
		"path", path,
		"day", day.Day(),
		"created", result.Created,
		"inserted", len(result.Inserted),
		"updated", len(result.Updated),
		"overwritten", len(result.Overwritten),
	)
	return result, nil
}

// TotalsFromAggregate converts the day's aggregate into reconciler input.
func TotalsFromAggregate(agg *attendance.DailyAggregate) []monthly.DayTotal {
	sorted := agg.Sorted()
	totals := make([]monthly.DayTotal, 0, len(sorted))
	for _, t := range sorted {
		totals = append(totals, monthly.DayTotal{Technician: t.Technician, Minutes: t.Minutes})
	}
	return totals
}
