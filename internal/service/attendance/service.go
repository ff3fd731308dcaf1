package attendance

import (
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/attendance"
	"github.com/cmlabs-hris/hours-report/internal/pkg/names"
)

type NormalizerImpl struct {
	ignored names.Set
	logger  *slog.Logger
}

// NewNormalizer drops rows for ignored technicians and rows that fail validation.
func NewNormalizer(ignored []string, logger *slog.Logger) attendance.Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NormalizerImpl{
		ignored: names.NewSet(ignored...),
		logger:  logger.With("stage", "normalize"),
	}
}

func (n *NormalizerImpl) Normalize(raw []attendance.RawRecord) ([]attendance.Record, []*attendance.RecordError) {
	records := make([]attendance.Record, 0, len(raw))
	var rejected []*attendance.RecordError
	ignored := 0

	for _, r := range raw {
		if n.ignored.Contains(r.Technician) {
			ignored++
			continue
		}

		rec, err := r.Validate()
		if err != nil {
			recErr, ok := err.(*attendance.RecordError)
			if !ok {
				recErr = &attendance.RecordError{Row: r.Row, Technician: r.Technician, Reason: err.Error(), Err: err}
			}
			n.logger.Warn("Skipping invalid attendance row",
				"row", recErr.Row,
				"technician", recErr.Technician,
				"reason", recErr.Reason,
			)
			rejected = append(rejected, recErr)
			continue
		}
		records = append(records, rec)
	}

	n.logger.Info("Attendance rows normalized",
		"received", len(raw),
		"valid", len(records),
		"rejected", len(rejected),
		"ignored", ignored,
	)
	return records, rejected
}

type AggregatorImpl struct {
	threshold attendance.Threshold
	logger    *slog.Logger
}

func NewAggregator(threshold attendance.Threshold, logger *slog.Logger) attendance.Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregatorImpl{
		threshold: threshold,
		logger:    logger.With("stage", "aggregate"),
	}
}

// Aggregate is order independent: the display name of a technician is the
// lexicographically smallest spelling seen for its key.
func (a *AggregatorImpl) Aggregate(day time.Time, records []attendance.Record) *attendance.DailyAggregate {
	agg := attendance.NewDailyAggregate(day)

	for _, rec := range records {
		key := rec.Key
		if key == "" {
			key = names.Key(rec.Technician)
		}
		total, ok := agg.Totals[key]
		if !ok {
			total = attendance.DailyTotal{Technician: rec.Technician, Key: key}
		} else if rec.Technician < total.Technician {
			total.Technician = rec.Technician
		}
		total.Minutes += rec.Minutes
		total.Records++
		agg.Totals[key] = total
	}

	for key, total := range agg.Totals {
		total.MinimumMinutes = a.threshold.For(key)
		total.BelowMinimum = total.Minutes < total.MinimumMinutes
		agg.Totals[key] = total
	}

	a.logger.Info("Daily totals aggregated",
		"day", day.Format("2006-01-02"),
		"technicians", agg.Len(),
		"below_minimum", len(agg.BelowMinimum()),
	)
	return agg
}
