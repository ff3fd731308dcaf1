package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hours-report/internal/domain/run"
	"github.com/cmlabs-hris/hours-report/internal/pkg/database"
	"github.com/google/uuid"
)

const createRunsTable = `
	CREATE TABLE IF NOT EXISTS report_runs (
		id              UUID PRIMARY KEY,
		business_day    DATE NOT NULL,
		status          TEXT NOT NULL,
		started_at      TIMESTAMPTZ NOT NULL,
		finished_at     TIMESTAMPTZ NOT NULL,
		technicians     INTEGER NOT NULL DEFAULT 0,
		below_minimum   INTEGER NOT NULL DEFAULT 0,
		rejected_rows   INTEGER NOT NULL DEFAULT 0,
		alerted         INTEGER NOT NULL DEFAULT 0,
		alert_failures  INTEGER NOT NULL DEFAULT 0,
		report_sent     BOOLEAN NOT NULL DEFAULT FALSE,
		workbook_path   TEXT NOT NULL DEFAULT '',
		error           TEXT NOT NULL DEFAULT ''
	)`

const createRunsIndex = `
	CREATE INDEX IF NOT EXISTS report_runs_business_day_idx ON report_runs (business_day DESC, started_at DESC)`

type runRepository struct {
	db *database.DB
}

func NewRunRepository(db *database.DB) run.Repository {
	return &runRepository{db: db}
}

func (r *runRepository) EnsureSchema(ctx context.Context) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)
		if _, err := q.Exec(ctx, createRunsTable); err != nil {
			return fmt.Errorf("failed to create report_runs: %w", err)
		}
		if _, err := q.Exec(ctx, createRunsIndex); err != nil {
			return fmt.Errorf("failed to create report_runs index: %w", err)
		}
		return nil
	})
}

func (r *runRepository) Create(ctx context.Context, rn *run.Run) error {
	q := GetQuerier(ctx, r.db)

	if rn.ID == "" {
		rn.ID = uuid.New().String()
	}

	query := `
		INSERT INTO report_runs (id, business_day, status, started_at, finished_at, technicians,
			below_minimum, rejected_rows, alerted, alert_failures, report_sent, workbook_path, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := q.Exec(ctx, query,
		rn.ID,
		rn.Day,
		string(rn.Status),
		rn.StartedAt,
		rn.FinishedAt,
		rn.Technicians,
		rn.BelowMinimum,
		rn.Rejected,
		rn.Alerted,
		rn.AlertFailures,
		rn.ReportSent,
		rn.WorkbookPath,
		rn.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

func (r *runRepository) ListRecent(ctx context.Context, limit int) ([]run.Run, error) {
	q := GetQuerier(ctx, r.db)
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, business_day, status, started_at, finished_at, technicians, below_minimum,
			rejected_rows, alerted, alert_failures, report_sent, workbook_path, error
		FROM report_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []run.Run
	for rows.Next() {
		var rn run.Run
		var status string
		if err := rows.Scan(
			&rn.ID,
			&rn.Day,
			&status,
			&rn.StartedAt,
			&rn.FinishedAt,
			&rn.Technicians,
			&rn.BelowMinimum,
			&rn.Rejected,
			&rn.Alerted,
			&rn.AlertFailures,
			&rn.ReportSent,
			&rn.WorkbookPath,
			&rn.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rn.Status = run.Status(status)
		runs = append(runs, rn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}
