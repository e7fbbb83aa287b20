package models

import "time"

// PriceSource identifies which tier of the read path produced a series.
type PriceSource string

const (
	// SourceFactorTable means the dedicated adjustment-factor table.
	SourceFactorTable PriceSource = "factor_table"
	// SourceDailyTable means adjusted columns denormalized onto the
	// daily bar table.
	SourceDailyTable PriceSource = "daily_table"
	// SourceRaw means unadjusted prices straight from the bar table.
	SourceRaw PriceSource = "raw"
)

// PricePoint is one day of a resolved price series.
type PricePoint struct {
	TradeDate time.Time `json:"trade_date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	Factor    float64   `json:"factor"`
}

// PriceSeries is an ordered (ascending by trade date) price series for
// one instrument under one adjustment mode. Fallback is set when an
// adjusted series was requested but only raw prices were available,
// a degraded but successful result.
type PriceSeries struct {
	Instrument string       `json:"instrument"`
	Mode       AdjustMode   `json:"mode"`
	Source     PriceSource  `json:"source"`
	Fallback   bool         `json:"fallback"`
	Points     []PricePoint `json:"points"`
}

// Latest returns the most recent point, or nil for an empty series.
func (s *PriceSeries) Latest() *PricePoint {
	if s == nil || len(s.Points) == 0 {
		return nil
	}
	return &s.Points[len(s.Points)-1]
}

// Closes returns the close column of the series.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// PriceChange describes the move over a trailing number of trading days.
type PriceChange struct {
	Instrument  string  `json:"instrument"`
	LatestClose float64 `json:"latest_close"`
	PastClose   float64 `json:"past_close"`
	Change      float64 `json:"change"`
	PctChange   float64 `json:"pct_change"`
	Days        int     `json:"days"`
}
