package trend

import (
	"math"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// regressionSlope returns the least-squares slope of ys over xs. Returns 0
// with fewer than 2 points or when all xs coincide.
func regressionSlope(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || len(ys) != n {
		return 0
	}

	xMean := mean(xs)
	yMean := mean(ys)

	var num, den float64
	for i := 0; i < n; i++ {
		dx := xs[i] - xMean
		num += dx * (ys[i] - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// normalizedVelocity is the regression slope divided by the series mean, a
// fractional rate of change rather than an absolute slope. A series with
// mean 0 has velocity 0. Small nonzero means can produce extreme values;
// this sensitivity is preserved as-is and the radar composite tames it
// through a clamped sigmoid.
func normalizedVelocity(xs, ys []float64) float64 {
	m := mean(ys)
	if m == 0 {
		return 0
	}
	return regressionSlope(xs, ys) / m
}

// sigmoid maps its input to (0, 1), clamping to [-20, 20] first for
// numerical stability.
func sigmoid(x float64) float64 {
	if x > 20 {
		x = 20
	} else if x < -20 {
		x = -20
	}
	return 1 / (1 + math.Exp(-x))
}

// percentileRank returns the percentile (0-100) of v among values: the share
// of other values strictly below v.
func percentileRank(values []float64, v float64) float64 {
	if len(values) < 2 {
		return 0
	}
	below := 0
	for _, other := range values {
		if other < v {
			below++
		}
	}
	return 100 * float64(below) / float64(len(values)-1)
}
