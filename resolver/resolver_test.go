package resolver

import (
	"context"
	"errors"
	"math"
	"testing"

	"factorflow/config"
	"factorflow/models"
)

func newTestResolver(store PriceStore) *Resolver {
	return NewResolver(store, config.NewTestConfig().Resolver)
}

func TestGetPriceNoneSkipsAdjustedTiers(t *testing.T) {
	store := newMockPriceStore()
	store.bars["600000.SH"] = []models.Bar{
		testBar("2024-01-02", 10),
		testBar("2024-01-03", 10.5),
	}
	r := newTestResolver(store)

	series, err := r.GetPrice(context.Background(), "600000.SH", nil, nil, models.AdjustNone)
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if series.Source != models.SourceRaw {
		t.Errorf("source = %s, want raw", series.Source)
	}
	if series.Fallback {
		t.Error("raw request must not be marked as fallback")
	}
	if store.factorCalls != 0 || store.dailyCalls != 0 {
		t.Errorf("adjusted tiers queried for mode none: factor=%d daily=%d",
			store.factorCalls, store.dailyCalls)
	}
	if len(series.Points) != 2 {
		t.Fatalf("got %d points, want 2", len(series.Points))
	}
	if series.Points[1].Close != 10.5 {
		t.Errorf("close = %v, want 10.5", series.Points[1].Close)
	}
	if series.Points[0].Factor != 1.0 {
		t.Errorf("raw factor = %v, want 1.0", series.Points[0].Factor)
	}
}

func TestGetPriceFactorTableHit(t *testing.T) {
	store := newMockPriceStore()
	store.factors["600000.SH"] = []models.PricePoint{
		testPoint("2024-01-02", 9.0, 0.9),
		testPoint("2024-01-03", 10.5, 1.0),
	}
	r := newTestResolver(store)

	series, err := r.GetPrice(context.Background(), "600000.SH", nil, nil, models.AdjustQfq)
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if series.Source != models.SourceFactorTable {
		t.Errorf("source = %s, want factor_table", series.Source)
	}
	if series.Fallback {
		t.Error("factor table hit must not be marked as fallback")
	}
	if store.dailyCalls != 0 || store.rawCalls != 0 {
		t.Errorf("lower tiers queried after factor table hit: daily=%d raw=%d",
			store.dailyCalls, store.rawCalls)
	}
	if series.Points[0].Factor != 0.9 {
		t.Errorf("factor = %v, want 0.9", series.Points[0].Factor)
	}
}

func TestGetPriceFallsToDailyTable(t *testing.T) {
	store := newMockPriceStore()
	store.daily["600000.SH"] = []models.PricePoint{
		testPoint("2024-01-02", 9.0, 0.9),
	}
	r := newTestResolver(store)

	series, err := r.GetPrice(context.Background(), "600000.SH", nil, nil, models.AdjustHfq)
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if series.Source != models.SourceDailyTable {
		t.Errorf("source = %s, want daily_table", series.Source)
	}
	if store.factorCalls != 1 {
		t.Errorf("factor table queried %d times, want 1", store.factorCalls)
	}
	if store.rawCalls != 0 {
		t.Error("raw tier queried despite daily table hit")
	}
}

func TestGetPriceFallsBackToRaw(t *testing.T) {
	store := newMockPriceStore()
	store.bars["600000.SH"] = []models.Bar{testBar("2024-01-02", 10)}
	r := newTestResolver(store)

	series, err := r.GetPrice(context.Background(), "600000.SH", nil, nil, models.AdjustQfq)
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if series.Source != models.SourceRaw {
		t.Errorf("source = %s, want raw", series.Source)
	}
	if !series.Fallback {
		t.Error("raw answer to an adjusted query must be marked as fallback")
	}
	if series.Mode != models.AdjustQfq {
		t.Errorf("mode = %s, want qfq", series.Mode)
	}
	if store.factorCalls != 1 || store.dailyCalls != 1 {
		t.Errorf("tier calls = factor:%d daily:%d, want 1 each",
			store.factorCalls, store.dailyCalls)
	}
}

func TestGetPriceTierErrorTreatedAsMiss(t *testing.T) {
	store := newMockPriceStore()
	store.factorsErr = errors.New("connection reset")
	store.dailyErr = errors.New("connection reset")
	store.bars["600000.SH"] = []models.Bar{testBar("2024-01-02", 10)}
	r := newTestResolver(store)

	series, err := r.GetPrice(context.Background(), "600000.SH", nil, nil, models.AdjustQfq)
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if series.Source != models.SourceRaw || !series.Fallback {
		t.Errorf("got source=%s fallback=%v, want degraded raw", series.Source, series.Fallback)
	}
}

func TestGetPriceNoDataAtAll(t *testing.T) {
	store := newMockPriceStore()
	r := newTestResolver(store)

	_, err := r.GetPrice(context.Background(), "999999.SH", nil, nil, models.AdjustQfq)
	if !errors.Is(err, models.ErrNoPriceData) {
		t.Errorf("expected ErrNoPriceData, got %v", err)
	}
}

func TestGetPriceUnknownMode(t *testing.T) {
	store := newMockPriceStore()
	r := newTestResolver(store)

	_, err := r.GetPrice(context.Background(), "600000.SH", nil, nil, models.AdjustMode("bogus"))
	if err == nil {
		t.Fatal("expected error for unknown adjust mode")
	}
}

func TestGetBatchPricesOmitsFailing(t *testing.T) {
	store := newMockPriceStore()
	store.bars["600000.SH"] = []models.Bar{testBar("2024-01-02", 10)}
	store.bars["000001.SZ"] = []models.Bar{testBar("2024-01-02", 12)}
	r := newTestResolver(store)

	results, err := r.GetBatchPrices(context.Background(),
		[]string{"600000.SH", "999999.SH", "000001.SZ"}, nil, nil, models.AdjustNone)
	if err != nil {
		t.Fatalf("GetBatchPrices failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if _, ok := results["999999.SH"]; ok {
		t.Error("instrument with no data should be omitted")
	}
	for _, instrument := range []string{"600000.SH", "000001.SZ"} {
		if results[instrument] == nil {
			t.Errorf("missing result for %s", instrument)
		}
	}
}

func TestGetBatchPricesCanceledContext(t *testing.T) {
	store := newMockPriceStore()
	store.bars["600000.SH"] = []models.Bar{testBar("2024-01-02", 10)}
	r := newTestResolver(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.GetBatchPrices(ctx, []string{"600000.SH"}, nil, nil, models.AdjustNone)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLatestPrice(t *testing.T) {
	store := newMockPriceStore()
	store.bars["600000.SH"] = []models.Bar{
		testBar("2024-01-02", 10),
		testBar("2024-01-03", 10.5),
	}
	r := newTestResolver(store)

	latest, err := r.LatestPrice(context.Background(), "600000.SH", models.AdjustNone)
	if err != nil {
		t.Fatalf("LatestPrice failed: %v", err)
	}
	if latest.Close != 10.5 {
		t.Errorf("latest close = %v, want 10.5", latest.Close)
	}
	if !latest.TradeDate.Equal(day("2024-01-03")) {
		t.Errorf("latest date = %s, want 2024-01-03", latest.TradeDate)
	}
}

func TestPriceChange(t *testing.T) {
	store := newMockPriceStore()
	store.bars["600000.SH"] = []models.Bar{
		testBar("2024-01-02", 10),
		testBar("2024-01-03", 11),
		testBar("2024-01-04", 12),
	}
	r := newTestResolver(store)

	change, err := r.PriceChange(context.Background(), "600000.SH", 3, models.AdjustNone)
	if err != nil {
		t.Fatalf("PriceChange failed: %v", err)
	}
	if change.PastClose != 10 || change.LatestClose != 12 {
		t.Errorf("closes = %v -> %v, want 10 -> 12", change.PastClose, change.LatestClose)
	}
	if math.Abs(change.PctChange-20.0) > 1e-9 {
		t.Errorf("pct change = %v, want 20", change.PctChange)
	}
}

func TestPriceChangeInsufficientHistory(t *testing.T) {
	store := newMockPriceStore()
	store.bars["600000.SH"] = []models.Bar{testBar("2024-01-02", 10)}
	r := newTestResolver(store)

	_, err := r.PriceChange(context.Background(), "600000.SH", 5, models.AdjustNone)
	if !errors.Is(err, models.ErrInsufficientHistory) {
		t.Errorf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestPriceChangeZeroPastClose(t *testing.T) {
	store := newMockPriceStore()
	store.bars["600000.SH"] = []models.Bar{
		testBar("2024-01-02", 0),
		testBar("2024-01-03", 5),
	}
	r := newTestResolver(store)

	change, err := r.PriceChange(context.Background(), "600000.SH", 2, models.AdjustNone)
	if err != nil {
		t.Fatalf("PriceChange failed: %v", err)
	}
	if change.PctChange != 0 {
		t.Errorf("pct change on zero past close = %v, want 0", change.PctChange)
	}
	if change.Change != 5 {
		t.Errorf("absolute change = %v, want 5", change.Change)
	}
}

func TestPriceChangeInvalidDays(t *testing.T) {
	store := newMockPriceStore()
	r := newTestResolver(store)

	if _, err := r.PriceChange(context.Background(), "600000.SH", 0, models.AdjustNone); err == nil {
		t.Error("expected error for zero days")
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	store := newMockPriceStore()
	store.factorsErr = errors.New("db down")
	store.dailyErr = errors.New("db down")
	store.bars["600000.SH"] = []models.Bar{testBar("2024-01-02", 10)}
	r := newTestResolver(store)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := r.GetPrice(ctx, "600000.SH", nil, nil, models.AdjustQfq); err != nil {
			t.Fatalf("degraded query %d failed: %v", i, err)
		}
	}

	factorCallsBefore := store.factorCalls

	// The breaker is open now, so adjusted tiers are rejected without
	// reaching the store, but raw fallback still serves.
	series, err := r.GetPrice(ctx, "600000.SH", nil, nil, models.AdjustQfq)
	if err != nil {
		t.Fatalf("query with open breaker failed: %v", err)
	}
	if series.Source != models.SourceRaw || !series.Fallback {
		t.Errorf("got source=%s fallback=%v, want degraded raw", series.Source, series.Fallback)
	}
	if store.factorCalls != factorCallsBefore {
		t.Errorf("store reached %d more times despite open breaker",
			store.factorCalls-factorCallsBefore)
	}
}
