package postgresql_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/run"
	"github.com/cmlabs-hris/hours-report/internal/pkg/database"
	"github.com/cmlabs-hris/hours-report/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.Exec(context.Background(), "DROP TABLE IF EXISTS report_runs")
	require.NoError(t, err)
	return db
}

func TestRunRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := postgresql.NewRunRepository(db)

	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx), "schema creation must be repeatable")

	started := time.Date(2024, 3, 5, 7, 0, 0, 0, time.UTC)
	first := &run.Run{
		Day:          time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Status:       run.StatusSuccess,
		StartedAt:    started,
		FinishedAt:   started.Add(12 * time.Second),
		Technicians:  5,
		BelowMinimum: 1,
		Alerted:      1,
		ReportSent:   true,
		WorkbookPath: "/data/2024/03-Março/2024-03.xlsx",
	}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEmpty(t, first.ID)

	second := &run.Run{
		Day:        first.Day,
		Status:     run.StatusFailed,
		StartedAt:  started.Add(time.Hour),
		FinishedAt: started.Add(time.Hour + time.Second),
		Error:      "source returned no attendance rows",
	}
	require.NoError(t, repo.Create(ctx, second))

	runs, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, run.StatusFailed, runs[0].Status)
	assert.Equal(t, first.WorkbookPath, runs[1].WorkbookPath)
	assert.Equal(t, 12*time.Second, runs[1].Duration())
}
