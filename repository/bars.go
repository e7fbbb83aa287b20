package repository

import (
	"context"
	"fmt"
	"time"

	"factorflow/models"
)

// GetBars returns the raw daily bars for an instrument, ascending by
// trade date. Nil bounds mean the full available history.
func (r *Repository) GetBars(ctx context.Context, instrument string, from, to *time.Time) ([]models.Bar, error) {
	timer := r.metrics.NewTimer()

	rows, err := r.db.Query(ctx, `
		SELECT ts_code, trade_date, open, high, low, close, vol, amount
		FROM stock_daily
		WHERE ts_code = $1
		  AND ($2::date IS NULL OR trade_date >= $2)
		  AND ($3::date IS NULL OR trade_date <= $3)
		ORDER BY trade_date
	`, instrument, from, to)
	if err != nil {
		r.metrics.RecordDBError("select", "stock_daily")
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Instrument, &b.TradeDate, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Amount); err != nil {
			r.metrics.RecordDBError("select", "stock_daily")
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		r.metrics.RecordDBError("select", "stock_daily")
		return nil, fmt.Errorf("failed to read bars: %w", err)
	}

	timer.ObserveDB("select", "stock_daily")
	return bars, nil
}

// GetCorporateActions returns all dividend/split events for an
// instrument, ascending by ex-date.
func (r *Repository) GetCorporateActions(ctx context.Context, instrument string) ([]models.CorporateAction, error) {
	timer := r.metrics.NewTimer()

	rows, err := r.db.Query(ctx, `
		SELECT ts_code, ex_date, COALESCE(cash_div, 0), COALESCE(share_div, 0)
		FROM stock_dividend
		WHERE ts_code = $1 AND ex_date IS NOT NULL
		ORDER BY ex_date
	`, instrument)
	if err != nil {
		r.metrics.RecordDBError("select", "stock_dividend")
		return nil, fmt.Errorf("failed to query corporate actions: %w", err)
	}
	defer rows.Close()

	var events []models.CorporateAction
	for rows.Next() {
		var ev models.CorporateAction
		if err := rows.Scan(&ev.Instrument, &ev.ExDate, &ev.CashDiv, &ev.StockRatio); err != nil {
			r.metrics.RecordDBError("select", "stock_dividend")
			return nil, fmt.Errorf("failed to scan corporate action: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		r.metrics.RecordDBError("select", "stock_dividend")
		return nil, fmt.Errorf("failed to read corporate actions: %w", err)
	}

	timer.ObserveDB("select", "stock_dividend")
	return events, nil
}

// GetDailyAdjusted returns an adjusted price series from the columns
// denormalized onto the daily bar table. When no row in the range
// carries an adjusted close for the mode, the tier reports a miss as
// (nil, nil).
func (r *Repository) GetDailyAdjusted(ctx context.Context, instrument string, from, to *time.Time, mode models.AdjustMode) ([]models.PricePoint, error) {
	prefix, err := modePrefix(mode)
	if err != nil {
		return nil, err
	}

	timer := r.metrics.NewTimer()

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT trade_date, %[1]s_open, %[1]s_high, %[1]s_low, %[1]s_close, vol, %[1]s_factor
		FROM stock_daily
		WHERE ts_code = $1
		  AND ($2::date IS NULL OR trade_date >= $2)
		  AND ($3::date IS NULL OR trade_date <= $3)
		ORDER BY trade_date
	`, prefix), instrument, from, to)
	if err != nil {
		r.metrics.RecordDBError("select", "stock_daily")
		return nil, fmt.Errorf("failed to query daily adjusted prices: %w", err)
	}
	defer rows.Close()

	var points []models.PricePoint
	present := false
	for rows.Next() {
		var p models.PricePoint
		var open, high, low, close, factor *float64
		if err := rows.Scan(&p.TradeDate, &open, &high, &low, &close, &p.Volume, &factor); err != nil {
			r.metrics.RecordDBError("select", "stock_daily")
			return nil, fmt.Errorf("failed to scan daily adjusted price: %w", err)
		}
		if close != nil {
			present = true
			p.Open = deref(open)
			p.High = deref(high)
			p.Low = deref(low)
			p.Close = *close
			p.Factor = deref(factor)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		r.metrics.RecordDBError("select", "stock_daily")
		return nil, fmt.Errorf("failed to read daily adjusted prices: %w", err)
	}

	timer.ObserveDB("select", "stock_daily")

	// No row with adjusted columns means the projection never ran for
	// this instrument.
	if !present {
		return nil, nil
	}
	return points, nil
}

func modePrefix(mode models.AdjustMode) (string, error) {
	switch mode {
	case models.AdjustQfq:
		return "qfq", nil
	case models.AdjustHfq:
		return "hfq", nil
	}
	return "", fmt.Errorf("no adjusted columns for mode %q", mode)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
