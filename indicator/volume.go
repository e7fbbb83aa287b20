package indicator

import "fmt"

// Volume families: obv, vr, psy, vol_ma.

func volMAColumns(f *Frame, windows []int) []column {
	cols := make([]column, 0, len(windows))
	for _, w := range windows {
		cols = append(cols, column{
			name:   fmt.Sprintf("vol_ma%d", w),
			values: toFloat32(rollingMean(f.volume, w)),
		})
	}
	return cols
}

func obvColumns(f *Frame) []column {
	prevClose := shift(f.close, 1)
	change := make([]float64, f.n)
	for i := 0; i < f.n; i++ {
		switch {
		case f.close[i] > prevClose[i]:
			change[i] = f.volume[i]
		case f.close[i] < prevClose[i]:
			change[i] = -f.volume[i]
		}
	}
	return []column{{name: "obv", values: toFloat32(cumsum(change))}}
}

func vrColumns(f *Frame, windows []int) []column {
	prevClose := shift(f.close, 1)
	upVol := make([]float64, f.n)
	downVol := make([]float64, f.n)
	flatVol := make([]float64, f.n)
	for i := 0; i < f.n; i++ {
		switch {
		case f.close[i] > prevClose[i]:
			upVol[i] = f.volume[i]
		case f.close[i] < prevClose[i]:
			downVol[i] = f.volume[i]
		case f.close[i] == prevClose[i]:
			flatVol[i] = f.volume[i]
		}
	}

	var cols []column
	for _, w := range windows {
		upSum := rollingSum(upVol, w)
		downSum := rollingSum(downVol, w)
		flatSum := rollingSum(flatVol, w)
		vr := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			vr[i] = (upSum[i] + flatSum[i]/2) / (downSum[i] + flatSum[i]/2 + 0.0001) * 100
		}
		cols = append(cols, column{name: fmt.Sprintf("vr%d", w), values: toFloat32(vr)})
	}

	if len(windows) >= 1 {
		cols = append(cols, aliasColumns(cols, map[string]string{
			fmt.Sprintf("vr%d", windows[0]): "vr",
		})...)
	}
	return cols
}

func psyColumns(f *Frame, windows []int) []column {
	prevClose := shift(f.close, 1)
	upDay := make([]float64, f.n)
	for i := 0; i < f.n; i++ {
		if f.close[i] > prevClose[i] {
			upDay[i] = 1
		}
	}

	var cols []column
	for _, w := range windows {
		upCount := rollingSum(upDay, w)
		psy := make([]float64, f.n)
		for i := 0; i < f.n; i++ {
			psy[i] = upCount[i] / float64(w) * 100
		}
		cols = append(cols, column{name: fmt.Sprintf("psy%d", w), values: toFloat32(psy)})
	}

	if len(windows) >= 1 {
		cols = append(cols, aliasColumns(cols, map[string]string{
			fmt.Sprintf("psy%d", windows[0]): "psy",
		})...)
	}
	return cols
}
