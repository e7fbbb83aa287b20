package indicator

import (
	"time"

	"factorflow/models"
)

// Frame is a column-oriented view of a bar table: the five base OHLCV
// columns in float64 plus any number of derived float32 indicator
// columns. Derived columns are pure functions of the base columns, so
// families can be computed in any order.
type Frame struct {
	n      int
	dates  []time.Time
	open   []float64
	high   []float64
	low    []float64
	close  []float64
	volume []float64

	names []string
	cols  map[string][]float32
}

// NewFrame builds a Frame from raw bars. Bars must be sorted ascending
// by trade date.
func NewFrame(bars []models.Bar) *Frame {
	f := newEmptyFrame(len(bars))
	for i, b := range bars {
		f.dates[i] = b.TradeDate
		f.open[i] = b.Open.InexactFloat64()
		f.high[i] = b.High.InexactFloat64()
		f.low[i] = b.Low.InexactFloat64()
		f.close[i] = b.Close.InexactFloat64()
		f.volume[i] = float64(b.Volume)
	}
	return f
}

// NewFrameFromSeries builds a Frame from a resolved price series, so
// indicators can run over adjusted as well as raw prices.
func NewFrameFromSeries(s *models.PriceSeries) *Frame {
	f := newEmptyFrame(len(s.Points))
	for i, p := range s.Points {
		f.dates[i] = p.TradeDate
		f.open[i] = p.Open
		f.high[i] = p.High
		f.low[i] = p.Low
		f.close[i] = p.Close
		f.volume[i] = float64(p.Volume)
	}
	return f
}

func newEmptyFrame(n int) *Frame {
	return &Frame{
		n:      n,
		dates:  make([]time.Time, n),
		open:   make([]float64, n),
		high:   make([]float64, n),
		low:    make([]float64, n),
		close:  make([]float64, n),
		volume: make([]float64, n),
		cols:   make(map[string][]float32),
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.n
}

// Dates returns the trade-date index.
func (f *Frame) Dates() []time.Time {
	return f.dates
}

// Column returns a derived column by name.
func (f *Frame) Column(name string) ([]float32, bool) {
	col, ok := f.cols[name]
	return col, ok
}

// Columns returns the derived column names in the order they were
// attached.
func (f *Frame) Columns() []string {
	return f.names
}

// attach appends derived columns. A column that re-uses an existing
// name overwrites it in place, keeping the original position.
func (f *Frame) attach(cols []column) {
	for _, c := range cols {
		if _, exists := f.cols[c.name]; !exists {
			f.names = append(f.names, c.name)
		}
		f.cols[c.name] = c.values
	}
}

// column is one named derived column, the unit the pipeline evaluates.
type column struct {
	name   string
	values []float32
}

// aliasColumns creates unsuffixed alias columns sharing the source
// column's backing slice, so an alias is always exactly equal to its
// parameterized original.
func aliasColumns(cols []column, aliases map[string]string) []column {
	var out []column
	for _, c := range cols {
		if alias, ok := aliases[c.name]; ok {
			out = append(out, column{name: alias, values: c.values})
		}
	}
	return out
}
