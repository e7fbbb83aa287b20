package indicator

import "fmt"

// Oscillator families: rsi, kdj, cci, roc, mtm.

func rsiColumns(f *Frame, windows []int) []column {
	change := diff(f.close)
	gain := make([]float64, f.n)
	loss := make([]float64, f.n)
	for i, c := range change {
		gain[i] = posPart(c)
		loss[i] = posPart(-c)
	}

	cols := make([]column, 0, len(windows))
	for _, w := range windows {
		avgGain := ema(gain, w)
		avgLoss := ema(loss, w)
		rsi := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			if avgLoss[i] == 0 {
				rsi[i] = 100
			} else {
				rsi[i] = 100 - 100/(1+avgGain[i]/avgLoss[i])
			}
		}
		cols = append(cols, column{name: fmt.Sprintf("rsi%d", w), values: toFloat32(rsi)})
	}
	return cols
}

func kdjColumns(f *Frame, windows []int) []column {
	var cols []column
	for _, w := range windows {
		highN := rollingMax(f.high, w)
		lowN := rollingMin(f.low, w)

		rsv := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			rsv[i] = (f.close[i] - lowN[i]) / (highN[i] - lowN[i]) * 100
		}
		k := rollingMean(rsv, 3)
		d := rollingMean(k, 3)
		j := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			j[i] = 3*k[i] - 2*d[i]
		}

		cols = append(cols,
			column{name: fmt.Sprintf("k%d", w), values: toFloat32(k)},
			column{name: fmt.Sprintf("d%d", w), values: toFloat32(d)},
			column{name: fmt.Sprintf("j%d", w), values: toFloat32(j)},
		)

		// The unsuffixed k/d/j names are reserved for the standard
		// 14-day parameterization.
		if w == 14 {
			cols = append(cols, aliasColumns(cols, map[string]string{
				"k14": "k",
				"d14": "d",
				"j14": "j",
			})...)
		}
	}
	return cols
}

func cciColumns(f *Frame, windows []int) []column {
	tp := make([]float64, f.n)
	for i := 0; i < f.n; i++ {
		tp[i] = (f.high[i] + f.low[i] + f.close[i]) / 3
	}

	var cols []column
	for _, w := range windows {
		maTP := rollingMean(tp, w)
		mad := rollingMAD(tp, w)
		cci := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			cci[i] = (tp[i] - maTP[i]) / (0.015 * mad[i])
		}
		cols = append(cols, column{name: fmt.Sprintf("cci%d", w), values: toFloat32(cci)})
	}

	if len(windows) >= 1 {
		cols = append(cols, aliasColumns(cols, map[string]string{
			fmt.Sprintf("cci%d", windows[0]): "cci",
		})...)
	}
	return cols
}

func rocColumns(f *Frame, windows []int) []column {
	var cols []column
	for _, w := range windows {
		past := shift(f.close, w)
		roc := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			roc[i] = (f.close[i] - past[i]) / past[i] * 100
		}
		cols = append(cols, column{name: fmt.Sprintf("roc%d", w), values: toFloat32(roc)})
	}

	if len(windows) >= 1 {
		cols = append(cols, aliasColumns(cols, map[string]string{
			fmt.Sprintf("roc%d", windows[0]): "roc",
		})...)
	}
	return cols
}

func mtmColumns(f *Frame, windows []int) []column {
	var cols []column
	for _, w := range windows {
		past := shift(f.close, w)
		mtm := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			mtm[i] = f.close[i] - past[i]
		}
		cols = append(cols, column{name: fmt.Sprintf("mtm%d", w), values: toFloat32(mtm)})
	}

	if len(windows) >= 1 {
		cols = append(cols, aliasColumns(cols, map[string]string{
			fmt.Sprintf("mtm%d", windows[0]): "mtm",
		})...)
	}
	return cols
}
