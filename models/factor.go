package models

import (
	"fmt"
	"time"
)

// AdjustMode selects the price adjustment convention for a query.
type AdjustMode string

const (
	// AdjustNone returns raw, unadjusted prices.
	AdjustNone AdjustMode = "none"
	// AdjustQfq rescales history so it is comparable to the current
	// unadjusted price level (forward adjustment).
	AdjustQfq AdjustMode = "qfq"
	// AdjustHfq rescales prices relative to a fixed baseline, normalized
	// so the latest trade date's adjusted price equals its raw price
	// (backward adjustment).
	AdjustHfq AdjustMode = "hfq"
)

// ParseAdjustMode validates a mode string.
func ParseAdjustMode(s string) (AdjustMode, error) {
	switch AdjustMode(s) {
	case AdjustNone, AdjustQfq, AdjustHfq:
		return AdjustMode(s), nil
	}
	return "", fmt.Errorf("unsupported adjust mode: %q", s)
}

// AdjustmentFactor is one computed row per (instrument, trade date):
// both adjustment factors plus the adjusted OHLC under each convention.
// Both factors are strictly positive for valid rows.
type AdjustmentFactor struct {
	Instrument string    `json:"instrument"`
	TradeDate  time.Time `json:"trade_date"`

	QfqFactor float64 `json:"qfq_factor"`
	HfqFactor float64 `json:"hfq_factor"`

	QfqOpen  float64 `json:"qfq_open"`
	QfqHigh  float64 `json:"qfq_high"`
	QfqLow   float64 `json:"qfq_low"`
	QfqClose float64 `json:"qfq_close"`

	HfqOpen  float64 `json:"hfq_open"`
	HfqHigh  float64 `json:"hfq_high"`
	HfqLow   float64 `json:"hfq_low"`
	HfqClose float64 `json:"hfq_close"`
}
