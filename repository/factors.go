package repository

import (
	"context"
	"fmt"
	"time"

	"factorflow/models"
	"factorflow/observability"
)

// defaultUpsertBatchSize bounds how many factor rows go into one
// transaction.
const defaultUpsertBatchSize = 1000

// GetFactors returns the adjustment factor rows for an instrument,
// ascending by trade date. Nil bounds mean the full history.
func (r *Repository) GetFactors(ctx context.Context, instrument string, from, to *time.Time) ([]models.AdjustmentFactor, error) {
	timer := r.metrics.NewTimer()

	rows, err := r.db.Query(ctx, `
		SELECT ts_code, trade_date, qfq_factor, hfq_factor,
		       qfq_open, qfq_high, qfq_low, qfq_close,
		       hfq_open, hfq_high, hfq_low, hfq_close
		FROM stock_adj_factor
		WHERE ts_code = $1
		  AND ($2::date IS NULL OR trade_date >= $2)
		  AND ($3::date IS NULL OR trade_date <= $3)
		ORDER BY trade_date
	`, instrument, from, to)
	if err != nil {
		r.metrics.RecordDBError("select", "stock_adj_factor")
		return nil, fmt.Errorf("failed to query factors: %w", err)
	}
	defer rows.Close()

	var records []models.AdjustmentFactor
	for rows.Next() {
		var f models.AdjustmentFactor
		if err := rows.Scan(&f.Instrument, &f.TradeDate, &f.QfqFactor, &f.HfqFactor,
			&f.QfqOpen, &f.QfqHigh, &f.QfqLow, &f.QfqClose,
			&f.HfqOpen, &f.HfqHigh, &f.HfqLow, &f.HfqClose); err != nil {
			r.metrics.RecordDBError("select", "stock_adj_factor")
			return nil, fmt.Errorf("failed to scan factor: %w", err)
		}
		records = append(records, f)
	}
	if err := rows.Err(); err != nil {
		r.metrics.RecordDBError("select", "stock_adj_factor")
		return nil, fmt.Errorf("failed to read factors: %w", err)
	}

	timer.ObserveDB("select", "stock_adj_factor")
	return records, nil
}

// GetFactorSeries returns an adjusted price series from the factor
// table, joined against the daily table for volume. An empty factor
// table for the instrument reports a miss as (nil, nil).
func (r *Repository) GetFactorSeries(ctx context.Context, instrument string, from, to *time.Time, mode models.AdjustMode) ([]models.PricePoint, error) {
	prefix, err := modePrefix(mode)
	if err != nil {
		return nil, err
	}

	timer := r.metrics.NewTimer()

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT f.trade_date, f.%[1]s_open, f.%[1]s_high, f.%[1]s_low, f.%[1]s_close,
		       COALESCE(d.vol, 0), f.%[1]s_factor
		FROM stock_adj_factor f
		LEFT JOIN stock_daily d ON d.ts_code = f.ts_code AND d.trade_date = f.trade_date
		WHERE f.ts_code = $1
		  AND ($2::date IS NULL OR f.trade_date >= $2)
		  AND ($3::date IS NULL OR f.trade_date <= $3)
		ORDER BY f.trade_date
	`, prefix), instrument, from, to)
	if err != nil {
		r.metrics.RecordDBError("select", "stock_adj_factor")
		return nil, fmt.Errorf("failed to query factor series: %w", err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.TradeDate, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume, &p.Factor); err != nil {
			r.metrics.RecordDBError("select", "stock_adj_factor")
			return nil, fmt.Errorf("failed to scan factor series point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		r.metrics.RecordDBError("select", "stock_adj_factor")
		return nil, fmt.Errorf("failed to read factor series: %w", err)
	}

	timer.ObserveDB("select", "stock_adj_factor")
	return points, nil
}

// UpsertFactors writes factor records with the default batch size.
func (r *Repository) UpsertFactors(ctx context.Context, records []models.AdjustmentFactor) error {
	return r.UpsertFactorsBatch(ctx, records, defaultUpsertBatchSize)
}

// UpsertFactorsBatch writes factor records in transactions of at most
// batchSize rows, updating existing (instrument, trade date) rows in
// place. A failing batch rolls back alone; earlier batches stay
// committed.
func (r *Repository) UpsertFactorsBatch(ctx context.Context, records []models.AdjustmentFactor, batchSize int) error {
	if len(records) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = defaultUpsertBatchSize
	}

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := r.upsertBatch(ctx, records[start:end]); err != nil {
			return fmt.Errorf("failed to upsert factor batch at %d: %w", start, err)
		}
	}
	return nil
}

func (r *Repository) upsertBatch(ctx context.Context, records []models.AdjustmentFactor) error {
	timer := r.metrics.NewTimer()

	tx, txRepo, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, rec := range records {
		_, err := txRepo.db.Exec(ctx, `
			INSERT INTO stock_adj_factor (ts_code, trade_date, qfq_factor, hfq_factor,
				qfq_open, qfq_high, qfq_low, qfq_close,
				hfq_open, hfq_high, hfq_low, hfq_close)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (ts_code, trade_date) DO UPDATE SET
				qfq_factor = EXCLUDED.qfq_factor,
				hfq_factor = EXCLUDED.hfq_factor,
				qfq_open = EXCLUDED.qfq_open,
				qfq_high = EXCLUDED.qfq_high,
				qfq_low = EXCLUDED.qfq_low,
				qfq_close = EXCLUDED.qfq_close,
				hfq_open = EXCLUDED.hfq_open,
				hfq_high = EXCLUDED.hfq_high,
				hfq_low = EXCLUDED.hfq_low,
				hfq_close = EXCLUDED.hfq_close
		`, rec.Instrument, rec.TradeDate, rec.QfqFactor, rec.HfqFactor,
			rec.QfqOpen, rec.QfqHigh, rec.QfqLow, rec.QfqClose,
			rec.HfqOpen, rec.HfqHigh, rec.HfqLow, rec.HfqClose)
		if err != nil {
			r.metrics.RecordDBError("upsert", "stock_adj_factor")
			return fmt.Errorf("failed to upsert factor: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.metrics.RecordDBError("upsert", "stock_adj_factor")
		return fmt.Errorf("failed to commit factor batch: %w", err)
	}

	timer.ObserveDB("upsert", "stock_adj_factor")
	return nil
}

// UpdateDailyAdjusted projects factor records onto the denormalized
// columns of the daily bar table. Rows missing from the daily table are
// skipped silently; the factor table stays the source of truth.
func (r *Repository) UpdateDailyAdjusted(ctx context.Context, records []models.AdjustmentFactor) error {
	if len(records) == 0 {
		return nil
	}

	timer := r.metrics.NewTimer()

	tx, txRepo, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	updated := 0
	for _, rec := range records {
		tag, err := txRepo.db.Exec(ctx, `
			UPDATE stock_daily SET
				qfq_factor = $3, hfq_factor = $4,
				qfq_open = $5, qfq_high = $6, qfq_low = $7, qfq_close = $8,
				hfq_open = $9, hfq_high = $10, hfq_low = $11, hfq_close = $12
			WHERE ts_code = $1 AND trade_date = $2
		`, rec.Instrument, rec.TradeDate, rec.QfqFactor, rec.HfqFactor,
			rec.QfqOpen, rec.QfqHigh, rec.QfqLow, rec.QfqClose,
			rec.HfqOpen, rec.HfqHigh, rec.HfqLow, rec.HfqClose)
		if err != nil {
			r.metrics.RecordDBError("update", "stock_daily")
			return fmt.Errorf("failed to update daily adjusted columns: %w", err)
		}
		updated += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		r.metrics.RecordDBError("update", "stock_daily")
		return fmt.Errorf("failed to commit daily adjusted update: %w", err)
	}

	timer.ObserveDB("update", "stock_daily")
	observability.WithInstrument(records[0].Instrument).Debug("updated daily adjusted columns", "rows", updated)
	return nil
}
