package adjust

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"factorflow/config"
	"factorflow/models"
	"factorflow/observability"
)

// Store is the persistence surface the batch runner needs. The
// repository package satisfies it.
type Store interface {
	GetBars(ctx context.Context, instrument string, from, to *time.Time) ([]models.Bar, error)
	GetCorporateActions(ctx context.Context, instrument string) ([]models.CorporateAction, error)
	UpsertFactors(ctx context.Context, records []models.AdjustmentFactor) error
	UpdateDailyAdjusted(ctx context.Context, records []models.AdjustmentFactor) error
	CreateComputeRun(ctx context.Context, run *models.ComputeRun) error
	FinishComputeRun(ctx context.Context, run *models.ComputeRun) error
}

// Runner executes batch factor computations across many instruments
// with bounded concurrency. Per-instrument failures are isolated; one
// bad instrument never stops the rest of the batch.
type Runner struct {
	engine  *Engine
	store   Store
	cfg     config.EngineConfig
	retry   RetryConfig
	metrics *observability.Metrics
}

// NewRunner creates a batch runner.
func NewRunner(engine *Engine, store Store, cfg config.EngineConfig) *Runner {
	return &Runner{
		engine:  engine,
		store:   store,
		cfg:     cfg,
		retry:   DefaultRetryConfig,
		metrics: observability.GetMetrics(),
	}
}

// WithRetry overrides the retry policy for store writes.
func (r *Runner) WithRetry(retry RetryConfig) *Runner {
	r.retry = retry
	return r
}

// BatchOptions narrows the bar range a batch run covers. Nil bounds
// mean the full available history.
type BatchOptions struct {
	From *time.Time
	To   *time.Time
}

// BatchCalculateAndSave computes and persists adjustment factors for
// every instrument, journaling the run. The returned result carries
// per-instrument outcomes even when some instruments failed; the error
// is non-nil only when the run itself could not proceed.
func (r *Runner) BatchCalculateAndSave(ctx context.Context, instruments []string, opts BatchOptions) (*models.BatchResult, error) {
	run := &models.ComputeRun{
		ID:        uuid.New(),
		Status:    models.RunStatusRunning,
		Total:     len(instruments),
		StartedAt: time.Now(),
	}
	if err := r.store.CreateComputeRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create compute run: %w", err)
	}

	log := observability.WithRun(run.ID.String())
	log.Info("starting batch factor computation", "instruments", len(instruments))

	var (
		mu        sync.Mutex
		succeeded int
		failed    []string
	)

	sem := make(chan struct{}, r.concurrency())
	var wg sync.WaitGroup
	for _, instrument := range instruments {
		wg.Add(1)
		sem <- struct{}{}
		go func(instrument string) {
			defer wg.Done()
			defer func() { <-sem }()

			err := r.processInstrument(ctx, instrument, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				observability.WithInstrument(instrument).Error("factor computation failed", "error", err)
				r.metrics.RecordBatchInstrument("failure")
				failed = append(failed, instrument)
				return
			}
			r.metrics.RecordBatchInstrument("success")
			succeeded++
		}(instrument)
	}
	wg.Wait()

	now := time.Now()
	run.Succeeded = succeeded
	run.Failed = len(failed)
	run.CompletedAt = &now
	run.Status = models.RunStatusCompleted
	if len(instruments) > 0 && succeeded == 0 {
		run.Status = models.RunStatusFailed
	}
	if err := r.store.FinishComputeRun(ctx, run); err != nil {
		log.Warn("failed to finalize compute run record", "error", err)
	}

	log.Info("batch factor computation finished",
		"succeeded", succeeded,
		"failed", len(failed),
		"total", len(instruments))

	return &models.BatchResult{
		RunID:             run.ID,
		Total:             len(instruments),
		Succeeded:         succeeded,
		Failed:            len(failed),
		FailedInstruments: failed,
	}, nil
}

// processInstrument runs the full compute-and-save path for one
// instrument. A panic inside the path is converted to an error so it
// only fails that instrument.
func (r *Runner) processInstrument(ctx context.Context, instrument string, opts BatchOptions) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while processing %s: %v", instrument, rec)
		}
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("batch canceled: %w", err)
	}

	bars, err := r.store.GetBars(ctx, instrument, opts.From, opts.To)
	if err != nil {
		return fmt.Errorf("failed to load bars for %s: %w", instrument, err)
	}

	events, err := r.store.GetCorporateActions(ctx, instrument)
	if err != nil {
		return fmt.Errorf("failed to load corporate actions for %s: %w", instrument, err)
	}

	records, err := r.engine.Compute(instrument, bars, events)
	if err != nil {
		return err
	}

	err = withRetry(ctx, r.retry, func() error {
		return r.store.UpsertFactors(ctx, records)
	})
	if err != nil {
		return fmt.Errorf("failed to save factors for %s: %w", instrument, err)
	}

	// The denormalized daily columns are a read-path optimization;
	// missing them degrades a later query to the next tier instead of
	// failing this instrument.
	if r.cfg.UpdateDaily {
		if err := r.store.UpdateDailyAdjusted(ctx, records); err != nil {
			observability.WithInstrument(instrument).Warn("failed to update daily adjusted columns", "error", err)
		}
	}

	return nil
}

func (r *Runner) concurrency() int {
	if r.cfg.Concurrency > 0 {
		return r.cfg.Concurrency
	}
	return 1
}
