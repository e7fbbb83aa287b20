package indicator

import (
	"fmt"
	"math"
)

// Volatility families: boll, wr, brar, asi, emv, mcst.

func bollColumns(f *Frame, windows []int, stdDev float64) []column {
	var cols []column
	for _, w := range windows {
		mb := rollingMean(f.close, w)
		sd := rollingStd(f.close, w)
		up := make([]float64, f.n)
		dn := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			up[i] = mb[i] + sd[i]*stdDev
			dn[i] = mb[i] - sd[i]*stdDev
		}
		cols = append(cols,
			column{name: fmt.Sprintf("mb%d", w), values: toFloat32(mb)},
			column{name: fmt.Sprintf("up%d", w), values: toFloat32(up)},
			column{name: fmt.Sprintf("dn%d", w), values: toFloat32(dn)},
		)
	}

	if len(windows) >= 1 {
		w := windows[0]
		cols = append(cols, aliasColumns(cols, map[string]string{
			fmt.Sprintf("mb%d", w): "mb",
			fmt.Sprintf("up%d", w): "up",
			fmt.Sprintf("dn%d", w): "dn",
		})...)
	}
	return cols
}

func wrColumns(f *Frame, windows []int) []column {
	var cols []column
	for _, w := range windows {
		highN := rollingMax(f.high, w)
		lowN := rollingMin(f.low, w)
		wr := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			wr[i] = (highN[i] - f.close[i]) / (highN[i] - lowN[i]) * 100
		}
		cols = append(cols, column{name: fmt.Sprintf("wr%d", w), values: toFloat32(wr)})
	}

	// The first window doubles as both the plain and the "1" series.
	if len(windows) >= 1 {
		cols = append(cols, aliasColumns(cols, map[string]string{
			fmt.Sprintf("wr%d", windows[0]): "wr",
		})...)
		cols = append(cols, aliasColumns(cols, map[string]string{
			fmt.Sprintf("wr%d", windows[0]): "wr1",
		})...)
	}
	if len(windows) >= 2 {
		cols = append(cols, aliasColumns(cols, map[string]string{
			fmt.Sprintf("wr%d", windows[1]): "wr2",
		})...)
	}
	return cols
}

func brarColumns(f *Frame, windows []int) []column {
	prevClose := shift(f.close, 1)

	arUp := make([]float64, f.n)
	arDown := make([]float64, f.n)
	brUp := make([]float64, f.n)
	brDown := make([]float64, f.n)
	for i := 0; i < f.n; i++ {
		arUp[i] = posPart(f.high[i] - f.open[i])
		arDown[i] = posPart(f.open[i] - f.low[i])
		brUp[i] = posPart(f.high[i] - prevClose[i])
		brDown[i] = posPart(prevClose[i] - f.low[i])
	}

	var cols []column
	for _, w := range windows {
		arUpSum := rollingSum(arUp, w)
		arDownSum := rollingSum(arDown, w)
		brUpSum := rollingSum(brUp, w)
		brDownSum := rollingSum(brDown, w)

		ar := make([]float64, f.n)
		br := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			ar[i] = arUpSum[i] / (arDownSum[i] + 0.0001) * 100
			br[i] = brUpSum[i] / (brDownSum[i] + 0.0001) * 100
		}
		cols = append(cols,
			column{name: fmt.Sprintf("ar%d", w), values: toFloat32(ar)},
			column{name: fmt.Sprintf("br%d", w), values: toFloat32(br)},
		)
	}

	if len(windows) >= 1 {
		w := windows[0]
		cols = append(cols, aliasColumns(cols, map[string]string{
			fmt.Sprintf("ar%d", w): "ar",
			fmt.Sprintf("br%d", w): "br",
		})...)
	}
	return cols
}

func asiColumns(f *Frame, signalPeriod int) []column {
	prevHigh := shift(f.high, 1)
	prevLow := shift(f.low, 1)
	prevClose := shift(f.close, 1)
	prevOpen := shift(f.open, 1)

	asi := make([]float64, f.n)
	for i := 0; i < f.n; i++ {
		tr := math.Max(math.Abs(prevHigh[i]-f.close[i]),
			math.Max(math.Abs(prevLow[i]-f.close[i]), math.Abs(prevHigh[i]-prevLow[i])))

		num := (f.open[i] - prevClose[i]) +
			0.5*(f.open[i]-f.close[i]) +
			0.25*(prevClose[i]-prevOpen[i])

		// The first row has no prior bar; its range is undefined and
		// the value pins to zero, as does a zero-range day.
		if tr != 0 && !math.IsNaN(tr) {
			asi[i] = num / tr * 16
		}
	}
	asiSig := rollingMean(asi, signalPeriod)

	return []column{
		{name: "asi", values: toFloat32(asi)},
		{name: "asi_sig", values: toFloat32(asiSig)},
	}
}

func emvColumns(f *Frame, windows []int, constant float64) []column {
	prevHigh := shift(f.high, 1)
	prevLow := shift(f.low, 1)

	base := make([]float64, f.n)
	for i := 0; i < f.n; i++ {
		if f.high[i] == f.low[i] {
			base[i] = 0
			continue
		}
		midMove := (f.high[i]+f.low[i])/2 - (prevHigh[i]+prevLow[i])/2
		base[i] = midMove / (f.volume[i] / (f.high[i] - f.low[i])) * constant
	}

	var cols []column
	for _, w := range windows {
		cols = append(cols, column{
			name:   fmt.Sprintf("emv%d", w),
			values: toFloat32(rollingMean(base, w)),
		})
	}

	if len(windows) >= 1 {
		cols = append(cols, aliasColumns(cols, map[string]string{
			fmt.Sprintf("emv%d", windows[0]): "emv",
		})...)
	}
	return cols
}

func mcstColumns(f *Frame, windows []int) []column {
	priceVolume := make([]float64, f.n)
	for i := 0; i < f.n; i++ {
		priceVolume[i] = f.close[i] * f.volume[i]
	}
	cumCost := cumsum(priceVolume)
	cumVolume := cumsum(f.volume)

	mcst := make([]float64, f.n)
	for i := 0; i < f.n; i++ {
		if cumVolume[i] != 0 {
			mcst[i] = cumCost[i] / cumVolume[i]
		}
	}

	cols := []column{{name: "mcst", values: toFloat32(mcst)}}
	for _, w := range windows {
		cols = append(cols, column{
			name:   fmt.Sprintf("mcst_ma%d", w),
			values: toFloat32(rollingMean(mcst, w)),
		})
	}
	return cols
}
