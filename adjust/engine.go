package adjust

import (
	"fmt"
	"sort"
	"time"

	"factorflow/models"
	"factorflow/observability"
)

// Engine computes qfq/hfq adjustment factors for one instrument from
// its raw bars and corporate actions.
//
// The qfq factor rescales history so it is directly comparable to the
// current unadjusted price level; each event discounts every bar that
// traded strictly before its ex-date. The hfq factor is the running
// inverse applied from the ex-date forward, normalized so the latest
// bar's factor is exactly 1.
type Engine struct {
	metrics *observability.Metrics
}

// NewEngine creates a factor computation engine.
func NewEngine() *Engine {
	return &Engine{
		metrics: observability.GetMetrics(),
	}
}

// Compute calculates adjustment factors for every bar of the
// instrument. Bars and events may arrive unsorted. An instrument with
// no effective corporate actions gets identity factors on every bar;
// an instrument with no bars is an error.
func (e *Engine) Compute(instrument string, bars []models.Bar, events []models.CorporateAction) ([]models.AdjustmentFactor, error) {
	timer := e.metrics.NewTimer()

	if len(bars) == 0 {
		timer.ObserveCompute("error")
		return nil, fmt.Errorf("failed to compute factors for %s: %w", instrument, models.ErrNoPriceData)
	}

	sorted := make([]models.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TradeDate.Before(sorted[j].TradeDate)
	})

	effective := effectiveEvents(events)
	if len(effective) == 0 {
		observability.WithInstrument(instrument).Warn("no effective corporate actions, using identity factors")
		records := defaultFactors(instrument, sorted)
		timer.ObserveCompute("success")
		return records, nil
	}

	n := len(sorted)
	closes := make([]float64, n)
	for i, b := range sorted {
		closes[i] = b.Close.InexactFloat64()
	}

	qfq := make([]float64, n)
	hfq := make([]float64, n)
	for i := range qfq {
		qfq[i] = 1.0
		hfq[i] = 1.0
	}

	log := observability.WithInstrument(instrument)

	// Forward (qfq) pass, newest event first. Each event discounts all
	// bars strictly before its ex-date.
	for i := len(effective) - 1; i >= 0; i-- {
		ev := effective[i]
		prevIdx := lastBarBefore(sorted, ev.ExDate)
		if prevIdx < 0 {
			continue
		}

		prevClose := closes[prevIdx]
		cashDiv := ev.CashDiv.InexactFloat64()
		stockRatio := ev.StockRatio.InexactFloat64()

		if prevClose <= cashDiv {
			log.Warn("cash dividend not below prior close, skipping qfq event",
				"ex_date", ev.ExDate.Format("2006-01-02"),
				"prev_close", prevClose,
				"cash_div", cashDiv)
			e.metrics.RecordFactorWarning("dividend_exceeds_price")
			continue
		}

		factor := (prevClose - cashDiv) / (prevClose * (1 + stockRatio))
		for j := 0; j <= prevIdx; j++ {
			qfq[j] *= factor
		}
	}

	// Backward (hfq) pass, oldest event first. The inverse of each
	// event's forward factor compounds onto the ex-date and everything
	// after it.
	for _, ev := range effective {
		prevIdx := lastBarBefore(sorted, ev.ExDate)
		if prevIdx < 0 {
			continue
		}

		prevClose := closes[prevIdx]
		cashDiv := ev.CashDiv.InexactFloat64()
		stockRatio := ev.StockRatio.InexactFloat64()

		if prevClose <= cashDiv {
			log.Warn("cash dividend not below prior close, skipping hfq event",
				"ex_date", ev.ExDate.Format("2006-01-02"),
				"prev_close", prevClose,
				"cash_div", cashDiv)
			e.metrics.RecordFactorWarning("dividend_exceeds_price")
			continue
		}

		qfqFactor := (prevClose - cashDiv) / (prevClose * (1 + stockRatio))
		if qfqFactor == 0 {
			log.Warn("zero forward factor, skipping hfq event",
				"ex_date", ev.ExDate.Format("2006-01-02"))
			e.metrics.RecordFactorWarning("zero_qfq_factor")
			continue
		}

		factor := 1 / qfqFactor
		for j := prevIdx + 1; j < n; j++ {
			hfq[j] *= factor
		}
	}

	// Pin the latest bar's hfq factor to 1 so the newest adjusted price
	// equals its raw price.
	latest := hfq[n-1]
	if latest != 0 {
		for i := range hfq {
			hfq[i] /= latest
		}
	} else {
		log.Warn("latest hfq factor is zero, skipping normalization")
		e.metrics.RecordFactorWarning("hfq_normalization_skipped")
	}

	records := make([]models.AdjustmentFactor, n)
	for i, b := range sorted {
		open := b.Open.InexactFloat64()
		high := b.High.InexactFloat64()
		low := b.Low.InexactFloat64()
		close := closes[i]

		records[i] = models.AdjustmentFactor{
			Instrument: instrument,
			TradeDate:  b.TradeDate,
			QfqFactor:  qfq[i],
			HfqFactor:  hfq[i],
			QfqOpen:    open * qfq[i],
			QfqHigh:    high * qfq[i],
			QfqLow:     low * qfq[i],
			QfqClose:   close * qfq[i],
			HfqOpen:    open * hfq[i],
			HfqHigh:    high * hfq[i],
			HfqLow:     low * hfq[i],
			HfqClose:   close * hfq[i],
		}
	}

	timer.ObserveCompute("success")
	return records, nil
}

// effectiveEvents filters out inert events and returns the rest sorted
// ascending by ex-date.
func effectiveEvents(events []models.CorporateAction) []models.CorporateAction {
	out := make([]models.CorporateAction, 0, len(events))
	for _, ev := range events {
		if ev.HasEffect() {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExDate.Before(out[j].ExDate)
	})
	return out
}

// lastBarBefore returns the index of the last bar trading strictly
// before the ex-date, or -1 when the event predates all bars.
func lastBarBefore(bars []models.Bar, exDate time.Time) int {
	idx := sort.Search(len(bars), func(i int) bool {
		return !bars[i].TradeDate.Before(exDate)
	})
	return idx - 1
}

// defaultFactors builds identity-factor records: both factors 1.0 and
// adjusted prices equal to raw prices.
func defaultFactors(instrument string, bars []models.Bar) []models.AdjustmentFactor {
	records := make([]models.AdjustmentFactor, len(bars))
	for i, b := range bars {
		open := b.Open.InexactFloat64()
		high := b.High.InexactFloat64()
		low := b.Low.InexactFloat64()
		close := b.Close.InexactFloat64()

		records[i] = models.AdjustmentFactor{
			Instrument: instrument,
			TradeDate:  b.TradeDate,
			QfqFactor:  1.0,
			HfqFactor:  1.0,
			QfqOpen:    open,
			QfqHigh:    high,
			QfqLow:     low,
			QfqClose:   close,
			HfqOpen:    open,
			HfqHigh:    high,
			HfqLow:     low,
			HfqClose:   close,
		}
	}
	return records
}
