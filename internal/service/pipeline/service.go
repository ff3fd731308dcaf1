// Package pipeline drives one run of the daily hours job:
// fetch, normalize, aggregate, write the report, reconcile the month, notify,
// then mail the run log and clean up.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/attendance"
	"github.com/cmlabs-hris/hours-report/internal/domain/monthly"
	"github.com/cmlabs-hris/hours-report/internal/domain/notification"
	"github.com/cmlabs-hris/hours-report/internal/domain/report"
	"github.com/cmlabs-hris/hours-report/internal/domain/run"
	monthlysvc "github.com/cmlabs-hris/hours-report/internal/service/monthly"
	"github.com/google/uuid"
)

// LogReporter mails the run log and removes the run directory.
type LogReporter interface {
	Finish(ctx context.Context, runDir string) error
}

type Deps struct {
	Source     attendance.Source
	Normalizer attendance.Normalizer
	Aggregator attendance.Aggregator
	Reports    report.ReportService
	Reconciler monthly.Reconciler
	Dispatcher notification.Dispatcher
	RunLog     LogReporter
	// Runs is optional.
	Runs    run.Repository
	WorkDir string
	Logger  *slog.Logger
	Now     func() time.Time
}

// Summary describes what one run produced. Fields are nil for stages that did
// not complete.
type Summary struct {
	Run       run.Run
	Aggregate *attendance.DailyAggregate
	Report    *report.File
	Archived  string
	Monthly   *monthly.Result
	Outcome   notification.Outcome
	Rejected  []*attendance.RecordError
	Partial   bool
}

type Service struct {
	deps   Deps
	logger *slog.Logger
}

func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps, logger: deps.Logger.With("stage", "run")}
}

// Run processes one business day. Fatal errors are joined and returned; delivery
// failures are reported in the Summary only. The run log is always dispatched
// and the run directory always removed before Run returns.
func (s *Service) Run(ctx context.Context, day time.Time) (summary *Summary, err error) {
	summary = &Summary{
		Run: run.Run{
			ID:        uuid.New().String(),
			Day:       day,
			StartedAt: s.deps.Now(),
		},
	}
	logger := s.logger.With("run_id", summary.Run.ID)
	logger.Info("Run started", "day", day.Format("2006-01-02"))

	var fatal []error
	var runDir string
	defer func() {
		err = errors.Join(fatal...)
		s.finalize(context.WithoutCancel(ctx), logger, summary, runDir, err)
	}()

	dir, mkErr := os.MkdirTemp(s.deps.WorkDir, "hours-report-*")
	if mkErr != nil {
		logger.Error("Failed to create run directory", "error", mkErr)
		fatal = append(fatal, fmt.Errorf("failed to create run directory: %w", mkErr))
	} else {
		runDir = dir
	}

	raw, fetchErr := s.deps.Source.Fetch(ctx, day)
	switch {
	case fetchErr == nil:
	case errors.Is(fetchErr, attendance.ErrPartialPayload) && len(raw) > 0:
		logger.Warn("Continuing with partial payload", "rows", len(raw), "error", fetchErr)
		summary.Partial = true
	default:
		logger.Error("Failed to fetch attendance data", "error", fetchErr)
		fatal = append(fatal, fmt.Errorf("fetch: %w", fetchErr))
		return summary, nil
	}

	records, rejected := s.deps.Normalizer.Normalize(raw)
	summary.Rejected = rejected

	agg := s.deps.Aggregator.Aggregate(day, records)
	summary.Aggregate = agg

	file, writeErr := s.deps.Reports.Write(ctx, runDir, agg)
	if writeErr != nil {
		logger.Error("Failed to write daily report", "error", writeErr)
		fatal = append(fatal, fmt.Errorf("report: %w", writeErr))
	} else {
		summary.Report = file
		key, archiveErr := s.deps.Reports.Archive(ctx, file)
		if archiveErr != nil {
			logger.Warn("Failed to archive daily report", "error", archiveErr)
		}
		summary.Archived = key
	}

	result, reconcileErr := s.deps.Reconciler.Reconcile(ctx, day, monthlysvc.TotalsFromAggregate(agg))
	if reconcileErr != nil {
		logger.Error("Failed to reconcile monthly workbook", "error", reconcileErr)
		fatal = append(fatal, fmt.Errorf("reconcile: %w", reconcileErr))
	}
	summary.Monthly = result

	summary.Outcome = s.deps.Dispatcher.Dispatch(ctx, agg, file)

	return summary, nil
}

func (s *Service) finalize(ctx context.Context, logger *slog.Logger, summary *Summary, runDir string, runErr error) {
	r := &summary.Run
	r.FinishedAt = s.deps.Now()
	if agg := summary.Aggregate; agg != nil {
		r.Technicians = agg.Len()
		r.BelowMinimum = len(agg.BelowMinimum())
	}
	r.Rejected = len(summary.Rejected)
	r.Alerted = len(summary.Outcome.Alerted)
	r.AlertFailures = len(summary.Outcome.AlertErrs)
	r.ReportSent = summary.Report != nil && summary.Outcome.ReportErr == nil
	if summary.Monthly != nil {
		r.WorkbookPath = summary.Monthly.Path
	}

	switch {
	case runErr != nil:
		r.Status = run.StatusFailed
		r.Error = runErr.Error()
	case summary.Partial || r.Rejected > 0 || summary.Outcome.Failed():
		r.Status = run.StatusPartial
	default:
		r.Status = run.StatusSuccess
	}

	if s.deps.Runs != nil {
		if err := s.deps.Runs.Create(ctx, r); err != nil {
			logger.Warn("Failed to record run history", "error", err)
		}
	}

	level := slog.LevelInfo
	if r.Status == run.StatusFailed {
		level = slog.LevelError
	}
	logger.Log(ctx, level, "Run finished",
		"status", string(r.Status),
		"duration", r.Duration().Round(time.Millisecond).String(),
		"technicians", r.Technicians,
		"below_minimum", r.BelowMinimum,
		"rejected", r.Rejected,
		"alerted", r.Alerted,
		"report_sent", r.ReportSent,
	)

	if s.deps.RunLog == nil {
		if runDir != "" {
			os.RemoveAll(runDir)
		}
		return
	}
	if err := s.deps.RunLog.Finish(ctx, runDir); err != nil {
		logger.Error("Run log dispatch failed", "error", err)
	}
}
