package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents one trading day of OHLCV data for one instrument.
// Bars are keyed by (instrument, trade date) and always handled in
// ascending trade-date order.
type Bar struct {
	Instrument string              `json:"instrument"`
	TradeDate  time.Time           `json:"trade_date"`
	Open       decimal.Decimal     `json:"open"`
	High       decimal.Decimal     `json:"high"`
	Low        decimal.Decimal     `json:"low"`
	Close      decimal.Decimal     `json:"close"`
	Volume     int64               `json:"volume"`
	Amount     decimal.NullDecimal `json:"amount,omitempty"`
}

// CorporateAction represents one ex-date dividend/split event for an
// instrument. CashDiv is the cash dividend per share; StockRatio is the
// number of additional shares granted per existing share.
type CorporateAction struct {
	Instrument string          `json:"instrument"`
	ExDate     time.Time       `json:"ex_date"`
	CashDiv    decimal.Decimal `json:"cash_div"`
	StockRatio decimal.Decimal `json:"stock_ratio"`
}

// HasEffect reports whether the event changes the adjustment factor at
// all. Events with neither a cash dividend nor a stock ratio are inert.
func (c CorporateAction) HasEffect() bool {
	return c.CashDiv.IsPositive() || c.StockRatio.IsPositive()
}
