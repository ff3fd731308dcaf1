package report

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/cmlabs-hris/hours-report/internal/domain/attendance"
	"github.com/cmlabs-hris/hours-report/internal/domain/monthly"
	"github.com/cmlabs-hris/hours-report/internal/domain/report"
	"github.com/cmlabs-hris/hours-report/internal/pkg/hhmm"
	"github.com/cmlabs-hris/hours-report/internal/pkg/storage"
)

var csvHeader = []string{"technician", "total_duration", "below_minimum"}

type ReportServiceImpl struct {
	separator rune
	archive   storage.FileStorage
	logger    *slog.Logger
}

// NewReportService returns a CSV report writer. archive may be nil.
func NewReportService(separator rune, archive storage.FileStorage, logger *slog.Logger) report.ReportService {
	if separator == 0 {
		separator = ';'
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportServiceImpl{
		separator: separator,
		archive:   archive,
		logger:    logger.With("stage", "report"),
	}
}

// FileName returns the report file name for a day.
func FileName(agg *attendance.DailyAggregate) string {
	return fmt.Sprintf("horas-%s.csv", agg.Day.Format("2006-01-02"))
}

func (s *ReportServiceImpl) Write(ctx context.Context, dir string, agg *attendance.DailyAggregate) (*report.File, error) {
	if dir == "" {
		return nil, report.ErrNoOutputDir
	}

	name := FileName(agg)
	fullPath := filepath.Join(dir, name)

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	buf := bufio.NewWriter(f)
	w := csv.NewWriter(buf)
	w.Comma = s.separator

	rows := agg.Sorted()
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write report header: %w", err)
	}
	for _, t := range rows {
		record := []string{t.Technician, hhmm.Format(t.Minutes), strconv.FormatBool(t.BelowMinimum)}
		if err := w.Write(record); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to flush report: %w", err)
	}
	if err := buf.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to flush report: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close report file: %w", err)
	}

	s.logger.Info("Daily report written", "path", fullPath, "rows", len(rows))
	return &report.File{Path: fullPath, Name: name, Day: agg.Day, Rows: len(rows)}, nil
}

// ArchiveKey returns "<YYYY>/<MM>-<Month>/<DD>.csv".
func ArchiveKey(file *report.File) string {
	return path.Join(monthly.Folder(file.Day.Year(), file.Day.Month()), file.Day.Format("02")+".csv")
}

func (s *ReportServiceImpl) Archive(ctx context.Context, file *report.File) (string, error) {
	if s.archive == nil {
		return "", nil
	}

	src, err := os.Open(file.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", report.ErrArchiveFailed, err)
	}
	defer src.Close()

	key := ArchiveKey(file)
	// A rerun for the same day replaces the archived copy.
	exists, err := s.archive.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", report.ErrArchiveFailed, err)
	}
	if exists {
		s.logger.Warn("Replacing archived report", "key", key)
	}

	key, err = s.archive.Upload(ctx, src, key, "text/csv")
	if err != nil {
		return "", fmt.Errorf("%w: %v", report.ErrArchiveFailed, err)
	}

	s.logger.Info("Daily report archived", "key", key)
	return key, nil
}
