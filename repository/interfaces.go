package repository

import (
	"context"
	"time"

	"factorflow/models"

	"github.com/google/uuid"
)

// RepositoryInterface defines all repository operations
type RepositoryInterface interface {
	// Health and lifecycle
	Close()
	Health(ctx context.Context) error

	// Bars and corporate actions
	GetBars(ctx context.Context, instrument string, from, to *time.Time) ([]models.Bar, error)
	GetCorporateActions(ctx context.Context, instrument string) ([]models.CorporateAction, error)
	GetDailyAdjusted(ctx context.Context, instrument string, from, to *time.Time, mode models.AdjustMode) ([]models.PricePoint, error)

	// Adjustment factors
	GetFactors(ctx context.Context, instrument string, from, to *time.Time) ([]models.AdjustmentFactor, error)
	GetFactorSeries(ctx context.Context, instrument string, from, to *time.Time, mode models.AdjustMode) ([]models.PricePoint, error)
	UpsertFactors(ctx context.Context, records []models.AdjustmentFactor) error
	UpsertFactorsBatch(ctx context.Context, records []models.AdjustmentFactor, batchSize int) error
	UpdateDailyAdjusted(ctx context.Context, records []models.AdjustmentFactor) error

	// Compute runs
	CreateComputeRun(ctx context.Context, run *models.ComputeRun) error
	FinishComputeRun(ctx context.Context, run *models.ComputeRun) error
	GetComputeRun(ctx context.Context, id uuid.UUID) (*models.ComputeRun, error)
	GetRecentComputeRuns(ctx context.Context, limit int) ([]models.ComputeRun, error)
}

// Compile-time interface verification
var _ RepositoryInterface = (*Repository)(nil)
