package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"factorflow/config"
	"factorflow/models"
)

// testBars builds n synthetic ascending bars with enough movement to
// exercise every family.
func testBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 100 + 5*math.Sin(float64(i)/4) + 0.2*float64(i)
		bars[i] = models.Bar{
			Instrument: "600000.SH",
			TradeDate:  base.AddDate(0, 0, i),
			Open:       decimal.NewFromFloat(c - 0.5),
			High:       decimal.NewFromFloat(c + 1.2),
			Low:        decimal.NewFromFloat(c - 1.3),
			Close:      decimal.NewFromFloat(c),
			Volume:     int64(10000 + 150*i),
		}
	}
	return bars
}

func barsFromCloses(closes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.Bar{
			Instrument: "600000.SH",
			TradeDate:  base.AddDate(0, 0, i),
			Open:       decimal.NewFromFloat(c),
			High:       decimal.NewFromFloat(c + 1),
			Low:        decimal.NewFromFloat(c - 1),
			Close:      decimal.NewFromFloat(c),
			Volume:     1000,
		}
	}
	return bars
}

func mustColumn(t *testing.T, f *Frame, name string) []float32 {
	t.Helper()
	col, ok := f.Column(name)
	if !ok {
		t.Fatalf("column %q not found, have %v", name, f.Columns())
	}
	if len(col) != f.Len() {
		t.Fatalf("column %q has %d rows, frame has %d", name, len(col), f.Len())
	}
	return col
}

func TestApplyAllFamilies(t *testing.T) {
	f := NewFrame(testBars(120))
	p := NewPipeline(config.DefaultIndicatorConfig())

	if err := p.Apply(f); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	expected := []string{
		"ma5", "ma10", "ma20", "ma60",
		"macd", "macd_signal", "macd_hist",
		"pdi_14", "ndi_14", "adx_14", "adxr_14", "pdi", "ndi", "adx", "adxr",
		"trix12", "trma12", "trix", "trma",
		"rsi14",
		"k14", "d14", "j14", "k", "d", "j",
		"cci14", "cci",
		"roc12", "roc",
		"mtm12", "mtm",
		"mb20", "up20", "dn20", "mb", "up", "dn",
		"wr10", "wr6", "wr", "wr1", "wr2",
		"ar26", "br26", "ar", "br",
		"asi", "asi_sig",
		"emv14", "emv",
		"mcst", "mcst_ma12",
		"obv",
		"vr26", "vr",
		"psy12", "psy",
		"vol_ma5", "vol_ma10",
	}
	for _, name := range expected {
		mustColumn(t, f, name)
	}
}

func TestMAMatchesRollingMean(t *testing.T) {
	f := NewFrame(barsFromCloses([]float64{1, 2, 3, 4, 5}))
	p := NewPipeline(config.DefaultIndicatorConfig())
	if err := p.Apply(f, KindMA); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	ma5 := mustColumn(t, f, "ma5")
	if ma5[1] != 1.5 {
		t.Errorf("ma5[1] = %v, want 1.5 (partial window)", ma5[1])
	}
	if ma5[4] != 3 {
		t.Errorf("ma5[4] = %v, want 3", ma5[4])
	}
}

func TestRSIBoundsAndAllGains(t *testing.T) {
	// Strictly rising closes: no losses, RSI pins to 100 everywhere.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 10 + float64(i)
	}
	f := NewFrame(barsFromCloses(closes))
	p := NewPipeline(config.DefaultIndicatorConfig())
	if err := p.Apply(f, KindRSI); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	rsi := mustColumn(t, f, "rsi14")
	for i, v := range rsi {
		if v != 100 {
			t.Errorf("rsi14[%d] = %v, want 100 with no losses", i, v)
		}
	}

	// Mixed series stays inside [0, 100].
	f2 := NewFrame(testBars(60))
	if err := p.Apply(f2, KindRSI); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	rsi2 := mustColumn(t, f2, "rsi14")
	for i, v := range rsi2 {
		if v < 0 || v > 100 {
			t.Errorf("rsi14[%d] = %v, out of [0, 100]", i, v)
		}
	}
}

func TestKDJDefaultAliases(t *testing.T) {
	f := NewFrame(testBars(40))
	p := NewPipeline(config.DefaultIndicatorConfig())
	if err := p.Apply(f, KindKDJ); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	pairs := [][2]string{{"k", "k14"}, {"d", "d14"}, {"j", "j14"}}
	for _, pair := range pairs {
		alias := mustColumn(t, f, pair[0])
		orig := mustColumn(t, f, pair[1])
		for i := range alias {
			if alias[i] != orig[i] && !(math.IsNaN(float64(alias[i])) && math.IsNaN(float64(orig[i]))) {
				t.Errorf("%s[%d] = %v, differs from %s[%d] = %v", pair[0], i, alias[i], pair[1], i, orig[i])
			}
		}
	}
}

func TestWRAliases(t *testing.T) {
	f := NewFrame(testBars(40))
	p := NewPipeline(config.DefaultIndicatorConfig())
	if err := p.Apply(f, KindWR); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	wr := mustColumn(t, f, "wr")
	wr1 := mustColumn(t, f, "wr1")
	wr10 := mustColumn(t, f, "wr10")
	mustColumn(t, f, "wr2")
	for i := range wr {
		if wr[i] != wr10[i] || wr1[i] != wr10[i] {
			t.Errorf("wr aliases diverge at %d: wr=%v wr1=%v wr10=%v", i, wr[i], wr1[i], wr10[i])
		}
	}
}

func TestMACDUptrend(t *testing.T) {
	// A steady uptrend keeps the fast average above the slow one.
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 50 + 2*float64(i)
	}
	f := NewFrame(barsFromCloses(closes))
	p := NewPipeline(config.DefaultIndicatorConfig())
	if err := p.Apply(f, KindMACD); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	macd := mustColumn(t, f, "macd")
	for i := 40; i < len(macd); i++ {
		if macd[i] <= 0 {
			t.Errorf("macd[%d] = %v, want positive in uptrend", i, macd[i])
		}
	}
}

func TestBollBandOrdering(t *testing.T) {
	f := NewFrame(testBars(60))
	p := NewPipeline(config.DefaultIndicatorConfig())
	if err := p.Apply(f, KindBoll); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	mb := mustColumn(t, f, "mb")
	up := mustColumn(t, f, "up")
	dn := mustColumn(t, f, "dn")
	for i := range mb {
		if math.IsNaN(float64(up[i])) {
			continue
		}
		if up[i] < mb[i] || mb[i] < dn[i] {
			t.Errorf("band ordering broken at %d: up=%v mb=%v dn=%v", i, up[i], mb[i], dn[i])
		}
	}
}

func TestOBVAccumulates(t *testing.T) {
	f := NewFrame(barsFromCloses([]float64{10, 11, 10.5, 10.5, 12}))
	p := NewPipeline(config.DefaultIndicatorConfig())
	if err := p.Apply(f, KindOBV); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	obv := mustColumn(t, f, "obv")
	// +1000 up day, -1000 down day, unchanged day adds nothing.
	want := []float32{0, 1000, 0, 0, 1000}
	for i := range want {
		if obv[i] != want[i] {
			t.Errorf("obv[%d] = %v, want %v", i, obv[i], want[i])
		}
	}
}

func TestPSYRange(t *testing.T) {
	f := NewFrame(testBars(50))
	p := NewPipeline(config.DefaultIndicatorConfig())
	if err := p.Apply(f, KindPSY); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	psy := mustColumn(t, f, "psy12")
	for i, v := range psy {
		if v < 0 || v > 100 {
			t.Errorf("psy12[%d] = %v, out of [0, 100]", i, v)
		}
	}
}

func TestASIFirstRowZero(t *testing.T) {
	f := NewFrame(testBars(30))
	p := NewPipeline(config.DefaultIndicatorConfig())
	if err := p.Apply(f, KindASI); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	asi := mustColumn(t, f, "asi")
	if asi[0] != 0 {
		t.Errorf("asi[0] = %v, want 0 without a prior bar", asi[0])
	}
}

func TestEMVFirstRowNaN(t *testing.T) {
	f := NewFrame(testBars(30))
	p := NewPipeline(config.DefaultIndicatorConfig())
	if err := p.Apply(f, KindEMV); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	emv := mustColumn(t, f, "emv14")
	if !math.IsNaN(float64(emv[0])) {
		t.Errorf("emv14[0] = %v, want NaN without a prior bar", emv[0])
	}
}

func TestPipelineCache(t *testing.T) {
	cache := NewCache(10, time.Minute)
	p := NewPipeline(config.DefaultIndicatorConfig()).WithCache(cache)

	bars := testBars(60)
	f1 := NewFrame(bars)
	if err := p.Apply(f1, KindMA, KindMACD); err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache has %d entries, want 1", cache.Len())
	}

	f2 := NewFrame(bars)
	if err := p.Apply(f2, KindMA, KindMACD); err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}

	ma1 := mustColumn(t, f1, "ma5")
	ma2 := mustColumn(t, f2, "ma5")
	for i := range ma1 {
		if ma1[i] != ma2[i] {
			t.Errorf("cached ma5[%d] = %v, want %v", i, ma2[i], ma1[i])
		}
	}

	cache.Invalidate()
	if cache.Len() != 0 {
		t.Errorf("cache has %d entries after Invalidate, want 0", cache.Len())
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range AllKinds() {
		parsed, err := ParseKind(k.String())
		if err != nil {
			t.Errorf("ParseKind(%q) failed: %v", k.String(), err)
		}
		if parsed != k {
			t.Errorf("ParseKind(%q) = %v, want %v", k.String(), parsed, k)
		}
	}

	if _, err := ParseKind("bogus"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
