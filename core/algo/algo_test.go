package algo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaussian(n int, center, sigma, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		d := float64(i) - center
		out[i] = amp * math.Exp(-d*d/(2*sigma*sigma))
	}
	return out
}

func TestButterworthLowpassSections(t *testing.T) {
	assert.Nil(t, ButterworthLowpass(0, 3))
	assert.Nil(t, ButterworthLowpass(1, 3))
	assert.Nil(t, ButterworthLowpass(0.2, 0))

	third := ButterworthLowpass(0.2, 3)
	require.Len(t, third, 2)
	assert.Equal(t, 0.0, third[1].B2, "odd order ends with a first-order section")
	assert.Equal(t, 3, NewChain(third).Order())

	fourth := ButterworthLowpass(0.2, 4)
	require.Len(t, fourth, 2)
	assert.Equal(t, 4, NewChain(fourth).Order())

	for _, c := range append(third, fourth...) {
		assert.InDelta(t, 1.0, c.dcGain(), 1e-12, "low-pass sections pass DC unchanged")
	}
}

func TestButterworthQ(t *testing.T) {
	// Second order Butterworth is the classic 1/sqrt(2).
	assert.InDelta(t, 1/math.Sqrt2, butterworthQ(2, 0), 1e-12)
}

func TestChainPrimeHoldsConstant(t *testing.T) {
	chain := NewChain(ButterworthLowpass(0.1, 3))
	chain.Prime(2.5)
	for range 50 {
		assert.InDelta(t, 2.5, chain.ProcessSample(2.5), 1e-9)
	}
}

func TestFiltFiltConstantAndLinear(t *testing.T) {
	coeffs := ButterworthLowpass(0.05, 3)

	flat := make([]float64, 200)
	for i := range flat {
		flat[i] = 1.5
	}
	out := FiltFilt(coeffs, flat)
	for i := range out {
		assert.InDelta(t, 1.5, out[i], 1e-9)
	}

	ramp := make([]float64, 300)
	for i := range ramp {
		ramp[i] = float64(i) * 0.01
	}
	out = FiltFilt(ButterworthLowpass(0.2, 3), ramp)
	for i := 40; i < 260; i++ {
		assert.InDelta(t, ramp[i], out[i], 1e-4, "zero-phase filtering leaves a ramp in place")
	}
}

func TestFiltFiltRemovesHighFrequency(t *testing.T) {
	n := 1000
	clean := make([]float64, n)
	noisy := make([]float64, n)
	for i := range n {
		clean[i] = math.Sin(2 * math.Pi * float64(i) / 250)
		noisy[i] = clean[i] + 0.3*math.Sin(2*math.Pi*float64(i)*0.45)
	}

	out := FiltFilt(ButterworthLowpass(0.1, 3), noisy)
	require.Len(t, out, n)
	for i := 50; i < n-50; i++ {
		assert.InDelta(t, clean[i], out[i], 0.02)
	}
}

func TestFiltFiltPassThrough(t *testing.T) {
	data := []float64{1, 2, 3}
	assert.Equal(t, data, FiltFilt(nil, data))
	assert.Equal(t, []float64{4}, FiltFilt(ButterworthLowpass(0.2, 3), []float64{4}))
}

func TestLocalMaximaPlateau(t *testing.T) {
	data := []float64{0, 1, 1, 1, 0, 2, 0, 3, 3, 0}
	assert.Equal(t, []int{2, 5, 7}, localMaxima(data))
	assert.Empty(t, localMaxima([]float64{0, 1, 2, 3}))
}

func TestFindPeaksGaussianWidth(t *testing.T) {
	sigma := 8.0
	data := gaussian(200, 100, sigma, 1)

	peaks := FindPeaks(data, PeakOptions{})
	require.Len(t, peaks, 1)
	p := peaks[0]
	assert.Equal(t, 100, p.Index)
	assert.InDelta(t, 1.0, p.Height, 1e-12)
	assert.InDelta(t, 1.0, p.Prominence, 1e-6)
	assert.InDelta(t, 2*math.Sqrt(2*math.Ln2)*sigma, p.Width, 0.05)
	assert.Less(t, p.LeftIP, 100.0)
	assert.Greater(t, p.RightIP, 100.0)
}

func TestFindPeaksHeightAndDistance(t *testing.T) {
	data := make([]float64, 300)
	for _, g := range [][]float64{
		gaussian(300, 50, 3, 1.0),
		gaussian(300, 60, 3, 0.8),
		gaussian(300, 200, 3, 0.9),
		gaussian(300, 260, 3, 0.2),
	} {
		for j := range data {
			data[j] += g[j]
		}
	}

	all := FindPeaks(data, PeakOptions{})
	require.Len(t, all, 4)

	tall := FindPeaks(data, PeakOptions{Height: 0.5})
	require.Len(t, tall, 3)

	spaced := FindPeaks(data, PeakOptions{Height: 0.5, Distance: 30})
	require.Len(t, spaced, 2)
	assert.InDelta(t, 50, spaced[0].Index, 1)
	assert.InDelta(t, 200, spaced[1].Index, 1)
}

func TestStats(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
	assert.Equal(t, 7.0, MaxAbs([]float64{1, -7, 3}))
	assert.Equal(t, 3.0, Max([]float64{-1, 3, 2}))
	assert.Equal(t, 0.0, Max(nil))
	assert.Equal(t, []float64{0, 0}, SecondDifference([]float64{1, 2, 3, 4}))
	assert.Equal(t, []float64{2, -4, 2}, SecondDifference([]float64{0, 0, 2, 0, 0}))
	assert.Nil(t, SecondDifference([]float64{1, 2}))
	assert.Equal(t, []float64{1, 2}, Abs([]float64{-1, 2}))
}
