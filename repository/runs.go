package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"factorflow/models"
)

// CreateComputeRun journals the start of a batch factor run.
func (r *Repository) CreateComputeRun(ctx context.Context, run *models.ComputeRun) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO factor_runs (id, status, total, succeeded, failed, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID, run.Status, run.Total, run.Succeeded, run.Failed, run.StartedAt)

	if err != nil {
		r.metrics.RecordDBError("insert", "factor_runs")
		return fmt.Errorf("failed to create compute run: %w", err)
	}

	return nil
}

// FinishComputeRun records the final counts and status of a run.
func (r *Repository) FinishComputeRun(ctx context.Context, run *models.ComputeRun) error {
	_, err := r.db.Exec(ctx, `
		UPDATE factor_runs
		SET status = $2, succeeded = $3, failed = $4, completed_at = $5
		WHERE id = $1
	`, run.ID, run.Status, run.Succeeded, run.Failed, run.CompletedAt)

	if err != nil {
		r.metrics.RecordDBError("update", "factor_runs")
		return fmt.Errorf("failed to finish compute run: %w", err)
	}

	return nil
}

// GetComputeRun returns a single run by ID.
func (r *Repository) GetComputeRun(ctx context.Context, id uuid.UUID) (*models.ComputeRun, error) {
	var run models.ComputeRun
	err := r.db.QueryRow(ctx, `
		SELECT id, status, total, succeeded, failed, started_at, completed_at
		FROM factor_runs WHERE id = $1
	`, id).Scan(&run.ID, &run.Status, &run.Total, &run.Succeeded, &run.Failed, &run.StartedAt, &run.CompletedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.metrics.RecordDBError("select", "factor_runs")
		return nil, fmt.Errorf("failed to query compute run: %w", err)
	}

	return &run, nil
}

// GetRecentComputeRuns returns the most recent runs, newest first.
func (r *Repository) GetRecentComputeRuns(ctx context.Context, limit int) ([]models.ComputeRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, status, total, succeeded, failed, started_at, completed_at
		FROM factor_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		r.metrics.RecordDBError("select", "factor_runs")
		return nil, fmt.Errorf("failed to query compute runs: %w", err)
	}
	defer rows.Close()

	var runs []models.ComputeRun
	for rows.Next() {
		var run models.ComputeRun
		if err := rows.Scan(&run.ID, &run.Status, &run.Total, &run.Succeeded, &run.Failed, &run.StartedAt, &run.CompletedAt); err != nil {
			r.metrics.RecordDBError("select", "factor_runs")
			return nil, fmt.Errorf("failed to scan compute run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}
