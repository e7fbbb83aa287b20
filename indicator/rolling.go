package indicator

import "math"

// Rolling primitives shared by the indicator families. All windows are
// trailing: output[i] covers rows [i-window+1, i]. A partial window is
// still evaluated as long as it holds at least one observation; NaN
// values inside the window are skipped rather than poisoning the result.

func rollingMean(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum, count := 0.0, 0
		for j := start; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				continue
			}
			sum += xs[j]
			count++
		}
		if count == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(count)
	}
	return out
}

func rollingSum(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum, count := 0.0, 0
		for j := start; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				continue
			}
			sum += xs[j]
			count++
		}
		if count == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum
	}
	return out
}

func rollingMax(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		best, found := math.Inf(-1), false
		for j := start; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				continue
			}
			if xs[j] > best {
				best = xs[j]
			}
			found = true
		}
		if !found {
			out[i] = math.NaN()
			continue
		}
		out[i] = best
	}
	return out
}

func rollingMin(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		best, found := math.Inf(1), false
		for j := start; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				continue
			}
			if xs[j] < best {
				best = xs[j]
			}
			found = true
		}
		if !found {
			out[i] = math.NaN()
			continue
		}
		out[i] = best
	}
	return out
}

// rollingStd computes the sample standard deviation (N-1 denominator)
// over the trailing window. Windows with fewer than two observations
// yield NaN.
func rollingStd(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum, count := 0.0, 0
		for j := start; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				continue
			}
			sum += xs[j]
			count++
		}
		if count < 2 {
			out[i] = math.NaN()
			continue
		}
		mean := sum / float64(count)
		sq := 0.0
		for j := start; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				continue
			}
			d := xs[j] - mean
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(count-1))
	}
	return out
}

// ema computes a span-parameterized exponentially weighted mean with
// adjusted weights: out[t] is the weighted average of all observations
// up to t with weight (1-alpha)^age, alpha = 2/(span+1). Leading NaN
// values stay NaN and later NaN values carry the previous estimate
// forward without updating it.
func ema(xs []float64, span int) []float64 {
	out := make([]float64, len(xs))
	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1.0 - alpha
	num, den := 0.0, 0.0
	for i, x := range xs {
		if math.IsNaN(x) {
			if den == 0 {
				out[i] = math.NaN()
			} else {
				out[i] = num / den
			}
			continue
		}
		num = decay*num + x
		den = decay*den + 1.0
		out[i] = num / den
	}
	return out
}

// shift moves the series forward by n rows, filling the head with NaN.
func shift(xs []float64, n int) []float64 {
	out := make([]float64, len(xs))
	for i := range out {
		if i < n {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[i-n]
	}
	return out
}

// diff returns the first difference of the series (NaN at row 0).
func diff(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[i] - xs[i-1]
	}
	return out
}

// cumsum returns the running total of the series; NaN values contribute
// nothing.
func cumsum(xs []float64) []float64 {
	out := make([]float64, len(xs))
	total := 0.0
	for i, x := range xs {
		if !math.IsNaN(x) {
			total += x
		}
		out[i] = total
	}
	return out
}

// rollingMAD computes the rolling mean absolute deviation from the
// rolling mean over the same window.
func rollingMAD(xs []float64, window int) []float64 {
	means := rollingMean(xs, window)
	absDev := make([]float64, len(xs))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(means[i]) {
			absDev[i] = math.NaN()
			continue
		}
		absDev[i] = math.Abs(xs[i] - means[i])
	}
	return rollingMean(absDev, window)
}

// posPart clamps negatives (and NaN) to zero.
func posPart(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// toFloat32 narrows a computed column to the pipeline's output type.
func toFloat32(xs []float64) []float32 {
	out := make([]float32, len(xs))
	for i, x := range xs {
		out[i] = float32(x)
	}
	return out
}
