package report

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/attendance"
	"github.com/cmlabs-hris/hours-report/internal/domain/report"
	"github.com/cmlabs-hris/hours-report/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAggregate() *attendance.DailyAggregate {
	agg := attendance.NewDailyAggregate(time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC))
	agg.Totals["bruno"] = attendance.DailyTotal{Technician: "Bruno", Key: "bruno", Minutes: 480}
	agg.Totals["alvaro"] = attendance.DailyTotal{Technician: "Álvaro", Key: "alvaro", Minutes: 35, BelowMinimum: true}
	return agg
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	svc := NewReportService(';', nil, nil)

	file, err := svc.Write(context.Background(), dir, sampleAggregate())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "horas-2024-03-04.csv"), file.Path)
	assert.Equal(t, 2, file.Rows)

	data, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Equal(t,
		"technician;total_duration;below_minimum\n"+
			"Álvaro;00:35;true\n"+
			"Bruno;08:00;false\n",
		string(data))
}

func TestWrite_CustomSeparatorAndEmpty(t *testing.T) {
	dir := t.TempDir()
	svc := NewReportService(',', nil, nil)
	agg := attendance.NewDailyAggregate(time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC))

	file, err := svc.Write(context.Background(), dir, agg)
	require.NoError(t, err)

	data, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Equal(t, "technician,total_duration,below_minimum\n", string(data))
}

func TestWrite_Errors(t *testing.T) {
	svc := NewReportService(';', nil, nil)

	_, err := svc.Write(context.Background(), "", sampleAggregate())
	assert.ErrorIs(t, err, report.ErrNoOutputDir)

	_, err = svc.Write(context.Background(), filepath.Join(t.TempDir(), "missing"), sampleAggregate())
	assert.Error(t, err)
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	archiveDir := t.TempDir()
	local, err := storage.NewLocalStorage(archiveDir)
	require.NoError(t, err)

	svc := NewReportService(';', local, nil)
	file, err := svc.Write(ctx, t.TempDir(), sampleAggregate())
	require.NoError(t, err)

	key, err := svc.Archive(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, "2024/03-Março/04.csv", key)
	assert.FileExists(t, filepath.Join(archiveDir, "2024", "03-Março", "04.csv"))
}

func TestArchive_Disabled(t *testing.T) {
	svc := NewReportService(';', nil, nil)
	key, err := svc.Archive(context.Background(), &report.File{Path: "/nope"})
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestArchive_ReplacesExistingDay(t *testing.T) {
	ctx := context.Background()
	archiveDir := t.TempDir()
	local, err := storage.NewLocalStorage(archiveDir)
	require.NoError(t, err)
	archived := filepath.Join(archiveDir, "2024", "03-Março", "04.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(archived), 0755))
	require.NoError(t, os.WriteFile(archived, []byte("stale"), 0644))

	var logs bytes.Buffer
	svc := NewReportService(';', local, slog.New(slog.NewTextHandler(&logs, nil)))
	file, err := svc.Write(ctx, t.TempDir(), sampleAggregate())
	require.NoError(t, err)

	_, err = svc.Archive(ctx, file)
	require.NoError(t, err)

	data, err := os.ReadFile(archived)
	require.NoError(t, err)
	assert.NotEqual(t, "stale", string(data))
	assert.Contains(t, logs.String(), "Replacing archived report")
}
