package finesse

import (
	"fmt"
	"math"

	"github.com/hockijo/techconnect/core/algo"
	"github.com/hockijo/techconnect/schema"
)

// NormalizeAndFilter removes the mean, scales to unit peak magnitude and,
// when cutoff lies in (0, 1), applies a zero-phase low-pass at that fraction of Nyquist.
// A zero cutoff skips filtering.
func NormalizeAndFilter(data []float64, cutoff float64) []float64 {
	out := make([]float64, len(data))
	if len(data) == 0 {
		return out
	}

	mean := algo.Mean(data)
	for i, v := range data {
		out[i] = v - mean
	}
	if peak := algo.MaxAbs(out); peak > 0 {
		for i := range out {
			out[i] /= peak
		}
	}

	if cutoff <= 0 || cutoff >= 1 {
		return out
	}
	return algo.FiltFilt(algo.ButterworthLowpass(cutoff, DefaultFilterOrder), out)
}

// DecimateIfLong shrinks data to roughly target samples by averaging blocks of an odd factor.
// Sequences no longer than twice the target pass through with factor 1.
func DecimateIfLong(data []float64, target int) ([]float64, int) {
	n := len(data)
	if target <= 0 || n <= 2*target {
		out := make([]float64, n)
		copy(out, data)
		return out, 1
	}

	factor := oddFactor(n, target)
	out := make([]float64, n/factor)
	for i := range out {
		out[i] = algo.Mean(data[i*factor : (i+1)*factor])
	}
	return out, factor
}

// oddFactor picks the odd factor whose decimated length lands closest to target.
func oddFactor(n, target int) int {
	ideal := float64(n) / float64(target)
	lo := int(math.Floor(ideal))
	if lo%2 == 0 {
		lo--
	}
	lo = max(lo, 1)
	hi := lo + 2

	dist := func(f int) float64 {
		return math.Abs(float64(n)/float64(f) - float64(target))
	}
	if dist(hi) < dist(lo) {
		return hi
	}
	return lo
}

// RecoverIndex maps an index in decimated data back to the center of its block.
func RecoverIndex(index, factor int) int {
	return index*factor + factor/2
}

// AutoThresholdFor returns fraction times the largest second-difference magnitude of data.
func AutoThresholdFor(data []float64, fraction float64) float64 {
	return fraction * algo.Max(algo.Abs(algo.SecondDifference(data)))
}

// FindTurningPoints returns the indices where the slope of data changes sharply:
// local maxima of the absolute second difference that exceed threshold.
// A negative threshold uses DefaultThresholdFraction of the largest magnitude.
func FindTurningPoints(data []float64, threshold float64) []int {
	curvature := algo.Abs(algo.SecondDifference(data))
	if len(curvature) == 0 {
		return nil
	}
	if threshold < 0 {
		threshold = DefaultThresholdFraction * algo.Max(curvature)
	}

	var points []int
	for _, p := range algo.FindPeaks(curvature, algo.PeakOptions{}) {
		if p.Height > threshold {
			// The second difference at i is centered on sample i+1.
			points = append(points, p.Index+1)
		}
	}
	return points
}

// SelectSingleRamp picks one window between consecutive turning points.
// Forward and reverse pick the first window whose mean slope is rising or falling;
// NoDirection picks the window at pairIndex.
func SelectSingleRamp(turningPoints []int, data []float64, direction schema.Direction, pairIndex int) (schema.RampWindow, error) {
	pairs := len(turningPoints) - 1
	if pairs < 1 {
		return schema.RampWindow{}, fmt.Errorf("%w: %d turning points", schema.ErrNoRampFound, len(turningPoints))
	}

	for i := range pairs {
		start, end := turningPoints[i], turningPoints[i+1]
		if start < 0 || end > len(data) || end-start < 2 {
			continue
		}
		window := schema.RampWindow{Start: start, End: end}

		switch direction {
		case schema.ForwardDirection:
			if meanSlope(data[start:end]) > 0 {
				return window, nil
			}
		case schema.ReverseDirection:
			if meanSlope(data[start:end]) < 0 {
				return window, nil
			}
		default:
			if i == pairIndex {
				return window, nil
			}
		}
	}

	if direction == schema.ForwardDirection || direction == schema.ReverseDirection {
		return schema.RampWindow{}, fmt.Errorf("%w: no %s ramp among %d windows", schema.ErrNoRampFound, direction, pairs)
	}
	return schema.RampWindow{}, fmt.Errorf("%w: pair index %d out of range [0, %d)", schema.ErrNoRampFound, pairIndex, pairs)
}

// meanSlope is the average first difference over the window.
func meanSlope(data []float64) float64 {
	return (data[len(data)-1] - data[0]) / float64(len(data)-1)
}
