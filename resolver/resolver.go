package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"factorflow/config"
	"factorflow/models"
	"factorflow/observability"
)

// PriceStore is the read surface the resolver needs. The repository
// package satisfies it.
type PriceStore interface {
	GetBars(ctx context.Context, instrument string, from, to *time.Time) ([]models.Bar, error)
	GetFactorSeries(ctx context.Context, instrument string, from, to *time.Time, mode models.AdjustMode) ([]models.PricePoint, error)
	GetDailyAdjusted(ctx context.Context, instrument string, from, to *time.Time, mode models.AdjustMode) ([]models.PricePoint, error)
}

// Resolver serves price series under an adjustment mode through a
// fixed fallback chain: the factor table first, then the adjusted
// columns denormalized onto the daily table, then raw prices. Raw
// results for an adjusted query are flagged as degraded, never treated
// as an error.
type Resolver struct {
	store   PriceStore
	metrics *observability.Metrics
}

// NewResolver creates a Resolver over the store. Adjusted-price reads
// go through a circuit breaker configured by cfg.
func NewResolver(store PriceStore, cfg config.ResolverConfig) *Resolver {
	return &Resolver{
		store:   newBreakerStore(store, cfg),
		metrics: observability.GetMetrics(),
	}
}

// GetPrice returns the instrument's price series in [from, to] under
// the given mode. Nil bounds mean the full history. An instrument with
// no bars at all resolves to ErrNoPriceData.
func (r *Resolver) GetPrice(ctx context.Context, instrument string, from, to *time.Time, mode models.AdjustMode) (*models.PriceSeries, error) {
	switch mode {
	case models.AdjustNone:
		return r.rawSeries(ctx, instrument, from, to, mode, false)
	case models.AdjustQfq, models.AdjustHfq:
		return r.adjustedSeries(ctx, instrument, from, to, mode)
	}
	return nil, fmt.Errorf("unsupported adjust mode: %q", mode)
}

func (r *Resolver) adjustedSeries(ctx context.Context, instrument string, from, to *time.Time, mode models.AdjustMode) (*models.PriceSeries, error) {
	log := observability.WithInstrument(instrument)

	points, err := r.store.GetFactorSeries(ctx, instrument, from, to, mode)
	if err != nil {
		logTierError(log, "factor table", err)
	}
	if err == nil && len(points) > 0 {
		r.metrics.RecordResolverQuery(string(mode), string(models.SourceFactorTable))
		return &models.PriceSeries{
			Instrument: instrument,
			Mode:       mode,
			Source:     models.SourceFactorTable,
			Points:     points,
		}, nil
	}

	points, err = r.store.GetDailyAdjusted(ctx, instrument, from, to, mode)
	if err != nil {
		logTierError(log, "daily table", err)
	}
	if err == nil && len(points) > 0 {
		r.metrics.RecordResolverQuery(string(mode), string(models.SourceDailyTable))
		return &models.PriceSeries{
			Instrument: instrument,
			Mode:       mode,
			Source:     models.SourceDailyTable,
			Points:     points,
		}, nil
	}

	log.Warn("no adjusted data found, falling back to raw prices", "mode", string(mode))
	r.metrics.RecordResolverFallback(string(mode))
	return r.rawSeries(ctx, instrument, from, to, mode, true)
}

// rawSeries reads unadjusted bars. fallback marks a degraded answer to
// an adjusted query.
func (r *Resolver) rawSeries(ctx context.Context, instrument string, from, to *time.Time, mode models.AdjustMode, fallback bool) (*models.PriceSeries, error) {
	bars, err := r.store.GetBars(ctx, instrument, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load raw prices for %s: %w", instrument, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no prices for %s: %w", instrument, models.ErrNoPriceData)
	}

	points := make([]models.PricePoint, len(bars))
	for i, b := range bars {
		points[i] = models.PricePoint{
			TradeDate: b.TradeDate,
			Open:      b.Open.InexactFloat64(),
			High:      b.High.InexactFloat64(),
			Low:       b.Low.InexactFloat64(),
			Close:     b.Close.InexactFloat64(),
			Volume:    b.Volume,
			Factor:    1.0,
		}
	}

	r.metrics.RecordResolverQuery(string(mode), string(models.SourceRaw))
	return &models.PriceSeries{
		Instrument: instrument,
		Mode:       mode,
		Source:     models.SourceRaw,
		Fallback:   fallback,
		Points:     points,
	}, nil
}

// GetBatchPrices resolves many instruments under one mode. Instruments
// with no data are omitted from the result rather than failing the
// batch.
func (r *Resolver) GetBatchPrices(ctx context.Context, instruments []string, from, to *time.Time, mode models.AdjustMode) (map[string]*models.PriceSeries, error) {
	results := make(map[string]*models.PriceSeries, len(instruments))
	for _, instrument := range instruments {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("batch price query canceled: %w", err)
		}
		series, err := r.GetPrice(ctx, instrument, from, to, mode)
		if err != nil {
			observability.WithInstrument(instrument).Warn("skipping instrument in batch price query", "error", err)
			continue
		}
		results[instrument] = series
	}
	return results, nil
}

// LatestPrice returns the most recent resolved point for the
// instrument.
func (r *Resolver) LatestPrice(ctx context.Context, instrument string, mode models.AdjustMode) (*models.PricePoint, error) {
	series, err := r.GetPrice(ctx, instrument, nil, nil, mode)
	if err != nil {
		return nil, err
	}
	latest := series.Latest()
	if latest == nil {
		return nil, fmt.Errorf("no latest price for %s: %w", instrument, models.ErrNoPriceData)
	}
	return latest, nil
}

// PriceChange reports the move over the trailing number of trading
// days. A history shorter than days resolves to
// ErrInsufficientHistory; a zero past close pins the percentage change
// to zero.
func (r *Resolver) PriceChange(ctx context.Context, instrument string, days int, mode models.AdjustMode) (*models.PriceChange, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}

	series, err := r.GetPrice(ctx, instrument, nil, nil, mode)
	if err != nil {
		return nil, err
	}
	if len(series.Points) < days {
		return nil, fmt.Errorf("%s has %d bars, need %d: %w",
			instrument, len(series.Points), days, models.ErrInsufficientHistory)
	}

	latest := series.Points[len(series.Points)-1]
	past := series.Points[len(series.Points)-days]

	change := latest.Close - past.Close
	pctChange := 0.0
	if past.Close != 0 {
		pctChange = change / past.Close * 100
	}

	return &models.PriceChange{
		Instrument:  instrument,
		LatestClose: latest.Close,
		PastClose:   past.Close,
		Change:      change,
		PctChange:   pctChange,
		Days:        days,
	}, nil
}

func logTierError(log *slog.Logger, tier string, err error) {
	if isBreakerRejection(err) {
		log.Warn("adjusted read rejected by circuit breaker, trying next tier", "tier", tier)
		return
	}
	log.Warn("adjusted read failed, trying next tier", "tier", tier, "error", err)
}
