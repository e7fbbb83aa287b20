package indicator

import (
	"fmt"
	"math"
)

// Trend families: ma, macd, dmi, trix.

func maColumns(f *Frame, windows []int) []column {
	cols := make([]column, 0, len(windows))
	for _, w := range windows {
		cols = append(cols, column{
			name:   fmt.Sprintf("ma%d", w),
			values: toFloat32(rollingMean(f.close, w)),
		})
	}
	return cols
}

func macdColumns(f *Frame, fast, slow, signal int) []column {
	emaFast := ema(f.close, fast)
	emaSlow := ema(f.close, slow)

	macdLine := make([]float64, f.n)
	for i := range macdLine {
		macdLine[i] = emaFast[i] - emaSlow[i]
	}
	macdSignal := ema(macdLine, signal)
	macdHist := make([]float64, f.n)
	for i := range macdHist {
		macdHist[i] = macdLine[i] - macdSignal[i]
	}

	return []column{
		{name: "macd", values: toFloat32(macdLine)},
		{name: "macd_signal", values: toFloat32(macdSignal)},
		{name: "macd_hist", values: toFloat32(macdHist)},
	}
}

func dmiColumns(f *Frame, windows []int) []column {
	prevHigh := shift(f.high, 1)
	prevLow := shift(f.low, 1)
	prevClose := shift(f.close, 1)

	// True range. Without a prior close it degenerates to the day's
	// own high-low span.
	tr := make([]float64, f.n)
	plusDM := make([]float64, f.n)
	minusDM := make([]float64, f.n)
	for i := 0; i < f.n; i++ {
		if math.IsNaN(prevClose[i]) {
			tr[i] = f.high[i] - f.low[i]
		} else {
			tr[i] = math.Max(f.high[i], prevClose[i]) - math.Min(f.low[i], prevClose[i])
		}

		highDiff := f.high[i] - prevHigh[i]
		lowDiff := prevLow[i] - f.low[i]
		if highDiff > lowDiff && highDiff > 0 {
			plusDM[i] = highDiff
		}
		if lowDiff > highDiff && lowDiff > 0 {
			minusDM[i] = lowDiff
		}
	}

	var cols []column
	for _, w := range windows {
		trSum := rollingSum(tr, w)
		pdmSum := rollingSum(plusDM, w)
		ndmSum := rollingSum(minusDM, w)

		pdi := make([]float64, f.n)
		ndi := make([]float64, f.n)
		dx := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			pdi[i] = pdmSum[i] / trSum[i] * 100
			ndi[i] = ndmSum[i] / trSum[i] * 100
			if pdi[i]+ndi[i] == 0 {
				dx[i] = 0
			} else {
				dx[i] = math.Abs(pdi[i]-ndi[i]) / (pdi[i] + ndi[i]) * 100
			}
		}
		adx := rollingMean(dx, w)
		adxShifted := shift(adx, w)
		adxr := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			adxr[i] = (adx[i] + adxShifted[i]) / 2
		}

		cols = append(cols,
			column{name: fmt.Sprintf("pdi_%d", w), values: toFloat32(pdi)},
			column{name: fmt.Sprintf("ndi_%d", w), values: toFloat32(ndi)},
			column{name: fmt.Sprintf("adx_%d", w), values: toFloat32(adx)},
			column{name: fmt.Sprintf("adxr_%d", w), values: toFloat32(adxr)},
		)
	}

	if len(windows) >= 1 {
		w := windows[0]
		cols = append(cols, aliasColumns(cols, map[string]string{
			fmt.Sprintf("pdi_%d", w):  "pdi",
			fmt.Sprintf("ndi_%d", w):  "ndi",
			fmt.Sprintf("adx_%d", w):  "adx",
			fmt.Sprintf("adxr_%d", w): "adxr",
		})...)
	}
	return cols
}

func trixColumns(f *Frame, windows []int, signalPeriod int) []column {
	var cols []column
	for _, w := range windows {
		ema1 := ema(f.close, w)
		ema2 := ema(ema1, w)
		ema3 := ema(ema2, w)

		prev := shift(ema3, 1)
		trix := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			trix[i] = (ema3[i] - prev[i]) / prev[i] * 100
		}
		trma := ema(trix, signalPeriod)

		cols = append(cols,
			column{name: fmt.Sprintf("trix%d", w), values: toFloat32(trix)},
			column{name: fmt.Sprintf("trma%d", w), values: toFloat32(trma)},
		)
	}

	if len(windows) >= 1 {
		w := windows[0]
		cols = append(cols, aliasColumns(cols, map[string]string{
			fmt.Sprintf("trix%d", w): "trix",
			fmt.Sprintf("trma%d", w): "trma",
		})...)
	}
	return cols
}
