package resolver

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"factorflow/models"
)

// mockPriceStore is a hand-written PriceStore for resolver tests.
type mockPriceStore struct {
	bars        map[string][]models.Bar
	factors     map[string][]models.PricePoint
	daily       map[string][]models.PricePoint
	barsErr     error
	factorsErr  error
	dailyErr    error
	factorCalls int
	dailyCalls  int
	rawCalls    int
}

func newMockPriceStore() *mockPriceStore {
	return &mockPriceStore{
		bars:    make(map[string][]models.Bar),
		factors: make(map[string][]models.PricePoint),
		daily:   make(map[string][]models.PricePoint),
	}
}

func (m *mockPriceStore) GetBars(_ context.Context, instrument string, _, _ *time.Time) ([]models.Bar, error) {
	m.rawCalls++
	if m.barsErr != nil {
		return nil, m.barsErr
	}
	return m.bars[instrument], nil
}

func (m *mockPriceStore) GetFactorSeries(_ context.Context, instrument string, _, _ *time.Time, _ models.AdjustMode) ([]models.PricePoint, error) {
	m.factorCalls++
	if m.factorsErr != nil {
		return nil, m.factorsErr
	}
	return m.factors[instrument], nil
}

func (m *mockPriceStore) GetDailyAdjusted(_ context.Context, instrument string, _, _ *time.Time, _ models.AdjustMode) ([]models.PricePoint, error) {
	m.dailyCalls++
	if m.dailyErr != nil {
		return nil, m.dailyErr
	}
	return m.daily[instrument], nil
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testBar(date string, close float64) models.Bar {
	return models.Bar{
		Instrument: "600000.SH",
		TradeDate:  day(date),
		Open:       decimal.NewFromFloat(close - 0.2),
		High:       decimal.NewFromFloat(close + 0.5),
		Low:        decimal.NewFromFloat(close - 0.5),
		Close:      decimal.NewFromFloat(close),
		Volume:     10000,
	}
}

func testPoint(date string, close, factor float64) models.PricePoint {
	return models.PricePoint{
		TradeDate: day(date),
		Open:      close - 0.2,
		High:      close + 0.5,
		Low:       close - 0.5,
		Close:     close,
		Volume:    10000,
		Factor:    factor,
	}
}
