package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/monthly"
	"github.com/cmlabs-hris/hours-report/internal/domain/run"
	"github.com/cmlabs-hris/hours-report/internal/service/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	days    []time.Time
	summary *pipeline.Summary
	err     error
}

func (f *fakePipeline) Run(ctx context.Context, day time.Time) (*pipeline.Summary, error) {
	f.days = append(f.days, day)
	summary := f.summary
	if summary == nil {
		summary = &pipeline.Summary{Run: run.Run{ID: "run-1", Day: day, Status: run.StatusSuccess}}
	}
	return summary, f.err
}

type fakeSheets struct {
	sheet *monthly.Sheet
	err   error
}

func (f *fakeSheets) Load(ctx context.Context, year int, month time.Month) (*monthly.Sheet, error) {
	return f.sheet, f.err
}

func (f *fakeSheets) Save(ctx context.Context, sheet *monthly.Sheet) error {
	return errors.New("read-only")
}

func (f *fakeSheets) Path(year int, month time.Month) string { return "" }

type fakeRuns struct {
	runs  []run.Run
	limit int
}

func (f *fakeRuns) EnsureSchema(ctx context.Context) error { return nil }
func (f *fakeRuns) Create(ctx context.Context, r *run.Run) error { return nil }
func (f *fakeRuns) ListRecent(ctx context.Context, limit int) ([]run.Run, error) {
	f.limit = limit
	return f.runs, nil
}

func execute(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCmd(t *testing.T) {
	monday := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

	t.Run("defaults to previous business day", func(t *testing.T) {
		p := &fakePipeline{}
		app := &App{Pipeline: p, Location: time.UTC, Now: func() time.Time { return monday }}

		out, err := execute(t, app, "run")
		require.NoError(t, err)
		require.Len(t, p.days, 1)
		assert.Equal(t, time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC), p.days[0])
		assert.Contains(t, out, "07/03/2025: success")
	})

	t.Run("explicit date", func(t *testing.T) {
		p := &fakePipeline{}
		app := &App{Pipeline: p, Location: time.UTC}

		_, err := execute(t, app, "run", "--date", "2025-02-28")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), p.days[0])
	})

	t.Run("invalid date", func(t *testing.T) {
		p := &fakePipeline{}
		_, err := execute(t, &App{Pipeline: p}, "run", "--date", "28/02/2025")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "YYYY-MM-DD")
		assert.Empty(t, p.days)
	})

	t.Run("failure still prints summary", func(t *testing.T) {
		p := &fakePipeline{
			summary: &pipeline.Summary{Run: run.Run{ID: "run-2", Status: run.StatusFailed, WorkbookPath: "/tmp/x.xlsx"}},
			err:     errors.New("reconcile: schema mismatch"),
		}
		out, err := execute(t, &App{Pipeline: p, Location: time.UTC}, "run", "--date", "2025-03-03")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema mismatch")
		assert.Contains(t, out, "failed")
		assert.Contains(t, out, "/tmp/x.xlsx")
	})
}

func TestSheetCmd(t *testing.T) {
	sheet := monthly.NewSheet(2025, time.March)
	_, _, err := sheet.Set("Ana Souza", 3, 300)
	require.NoError(t, err)
	_, _, err = sheet.Set("Ana Souza", 4, 330)
	require.NoError(t, err)
	_, _, err = sheet.Set("Bruno Lima", 3, 500)
	require.NoError(t, err)
	sheet.Recompute(func(string) int { return 480 })

	t.Run("prints totals", func(t *testing.T) {
		out, err := execute(t, &App{Sheets: &fakeSheets{sheet: sheet}}, "sheet", "--month", "2025-03")
		require.NoError(t, err)
		assert.Contains(t, out, "TECHNICIAN")
		assert.Regexp(t, `Ana Souza\s+10:30\s+2\s+2`, out)
		assert.Regexp(t, `Bruno Lima\s+08:20\s+1\s+0`, out)
	})

	t.Run("missing workbook", func(t *testing.T) {
		_, err := execute(t, &App{Sheets: &fakeSheets{err: monthly.ErrSheetNotFound}}, "sheet", "--month", "2025-04")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "04/2025")
	})

	t.Run("month is required", func(t *testing.T) {
		_, err := execute(t, &App{Sheets: &fakeSheets{sheet: sheet}}, "sheet")
		require.Error(t, err)
	})
}

func TestHistoryCmd(t *testing.T) {
	t.Run("requires database", func(t *testing.T) {
		_, err := execute(t, &App{}, "history")
		assert.ErrorIs(t, err, ErrNoHistory)
	})

	t.Run("lists runs", func(t *testing.T) {
		started := time.Date(2025, time.March, 10, 7, 0, 0, 0, time.UTC)
		runs := &fakeRuns{runs: []run.Run{{
			ID:           "run-1",
			Day:          time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC),
			Status:       run.StatusPartial,
			StartedAt:    started,
			FinishedAt:   started.Add(42 * time.Second),
			Technicians:  5,
			BelowMinimum: 2,
			Alerted:      1,
		}}}

		out, err := execute(t, &App{Runs: runs, Location: time.UTC}, "history", "--limit", "3")
		require.NoError(t, err)
		assert.Equal(t, 3, runs.limit)
		assert.Contains(t, out, "2025-03-10 07:00")
		assert.Contains(t, out, "partial")
		assert.Contains(t, out, "42s")
	})

	t.Run("empty history", func(t *testing.T) {
		out, err := execute(t, &App{Runs: &fakeRuns{}}, "history")
		require.NoError(t, err)
		assert.Contains(t, out, "No runs recorded.")
	})
}
