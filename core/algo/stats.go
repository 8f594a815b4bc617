package algo

import "math"

// Mean returns the arithmetic mean using compensated summation.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum, c float64
	for _, v := range data {
		y := v - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum / float64(len(data))
}

// MaxAbs returns the largest magnitude in data.
func MaxAbs(data []float64) float64 {
	peak := 0.0
	for _, v := range data {
		peak = math.Max(peak, math.Abs(v))
	}
	return peak
}

// Max returns the largest value in data, or 0 when empty.
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	m := data[0]
	for _, v := range data[1:] {
		m = math.Max(m, v)
	}
	return m
}

// SecondDifference returns x[i+2] - 2*x[i+1] + x[i] for every interior triple.
func SecondDifference(data []float64) []float64 {
	if len(data) < 3 {
		return nil
	}
	out := make([]float64, len(data)-2)
	for i := range out {
		out[i] = data[i+2] - 2*data[i+1] + data[i]
	}
	return out
}

// Abs returns the element-wise magnitude of data.
func Abs(data []float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = math.Abs(v)
	}
	return out
}
