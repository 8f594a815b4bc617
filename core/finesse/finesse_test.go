package finesse

import (
	"math"
	"testing"

	"github.com/hockijo/techconnect/core/waveform"
	"github.com/hockijo/techconnect/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStep = 1e-6

// triangleScan rises for 500 samples, falls for 500, and repeats.
func triangleScan(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		phase := i % 1000
		if phase <= 500 {
			out[i] = float64(phase)
		} else {
			out[i] = float64(1000 - phase)
		}
	}
	return out
}

// resonances places unit Gaussians with the given FWHM (in samples) at each center.
func resonances(n int, fwhm float64, centers ...float64) []float64 {
	sigma := fwhm / (2 * math.Sqrt(2*math.Ln2))
	out := make([]float64, n)
	for _, c := range centers {
		for i := range out {
			d := float64(i) - c
			out[i] += math.Exp(-d * d / (2 * sigma * sigma))
		}
	}
	return out
}

func timeAxis(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i) * sampleStep
	}
	return x
}

func TestNormalizeAndFilter(t *testing.T) {
	out := NormalizeAndFilter([]float64{1, 2, 3, 4, 5}, 0)
	assert.InDeltaSlice(t, []float64{-1, -0.5, 0, 0.5, 1}, out, 1e-12)

	flat := NormalizeAndFilter([]float64{2, 2, 2}, 0)
	assert.Equal(t, []float64{0, 0, 0}, flat)

	assert.Empty(t, NormalizeAndFilter(nil, 0.1))

	filtered := NormalizeAndFilter(triangleScan(2000), 0.1)
	require.Len(t, filtered, 2000)
	assert.InDelta(t, 0.0, filtered[250], 0.01, "mid-ramp samples are untouched by smoothing")
}

func TestDecimateIfLong(t *testing.T) {
	tests := []struct {
		n          int
		wantFactor int
		wantLen    int
	}{
		{1000, 1, 1000},
		{2000, 5, 400},
		{5000, 11, 454},
		{20000, 41, 487},
	}

	for _, tt := range tests {
		data := make([]float64, tt.n)
		out, factor := DecimateIfLong(data, DefaultTargetLength)
		assert.Equal(t, tt.wantFactor, factor, "n=%d", tt.n)
		assert.Len(t, out, tt.wantLen, "n=%d", tt.n)
		assert.Equal(t, 1, factor%2, "factor must be odd")
		if tt.n > 2*DefaultTargetLength {
			assert.GreaterOrEqual(t, len(out), 400)
			assert.LessOrEqual(t, len(out), 700)
		}
	}
}

func TestDecimateAveragesBlocks(t *testing.T) {
	data := make([]float64, 2000)
	for i := range data {
		data[i] = float64(i)
	}
	out, factor := DecimateIfLong(data, 500)
	require.Equal(t, 5, factor)
	assert.InDelta(t, 2.0, out[0], 1e-12)
	assert.InDelta(t, 7.0, out[1], 1e-12)
	assert.Equal(t, 502, RecoverIndex(100, factor))
	assert.Equal(t, 7, RecoverIndex(7, 1))
}

func TestFindTurningPointsTriangle(t *testing.T) {
	scan := NormalizeAndFilter(triangleScan(2000), 0)
	reduced, factor := DecimateIfLong(scan, DefaultTargetLength)

	points := FindTurningPoints(reduced, Auto)
	require.Len(t, points, 3)
	for i, p := range points {
		points[i] = RecoverIndex(p, factor)
	}
	assert.Equal(t, []int{502, 1002, 1502}, points)

	assert.Empty(t, FindTurningPoints(reduced, 10), "threshold above every curvature")
	assert.Nil(t, FindTurningPoints([]float64{1, 2}, Auto))
}

func TestSelectSingleRamp(t *testing.T) {
	scan := triangleScan(2000)
	points := []int{502, 1002, 1502}

	fwd, err := SelectSingleRamp(points, scan, schema.ForwardDirection, 0)
	require.NoError(t, err)
	assert.Equal(t, schema.RampWindow{Start: 1002, End: 1502}, fwd)

	rev, err := SelectSingleRamp(points, scan, schema.ReverseDirection, 0)
	require.NoError(t, err)
	assert.Equal(t, schema.RampWindow{Start: 502, End: 1002}, rev)

	byIndex, err := SelectSingleRamp(points, scan, schema.NoDirection, 1)
	require.NoError(t, err)
	assert.Equal(t, fwd, byIndex)

	_, err = SelectSingleRamp(points, scan, schema.NoDirection, 2)
	assert.ErrorIs(t, err, schema.ErrNoRampFound)

	_, err = SelectSingleRamp([]int{502}, scan, schema.ForwardDirection, 0)
	assert.ErrorIs(t, err, schema.ErrNoRampFound)

	_, err = SelectSingleRamp([]int{502, 1002}, scan, schema.ForwardDirection, 0)
	assert.ErrorIs(t, err, schema.ErrNoRampFound, "only a falling window is available")
}

func TestComputeFinesseSynthetic(t *testing.T) {
	n := 2000
	x := timeAxis(n)
	y := resonances(n, 20, 1102, 1402)

	res, err := ComputeFinesse(x, y, schema.RampWindow{Start: 1002, End: 1502}, Auto)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 400}, res.Peaks)
	assert.InDelta(t, 300*sampleStep, res.FSR, 1e-12)
	assert.InDelta(t, 20*sampleStep, res.FWHM, 0.2*sampleStep)
	assert.InEpsilon(t, 15.0, res.Finesse, 0.05)
	assert.Len(t, res.X, 500)
	assert.Len(t, res.Y, 500)
}

func TestComputeFinesseErrors(t *testing.T) {
	n := 2000
	x := timeAxis(n)

	_, err := ComputeFinesse(x, resonances(n, 20, 1102), schema.RampWindow{Start: 1002, End: 1502}, Auto)
	assert.ErrorIs(t, err, schema.ErrInsufficientPeaks)

	_, err = ComputeFinesse(x, resonances(n, 20, 1102, 1402), schema.RampWindow{Start: 1900, End: 2100}, Auto)
	assert.ErrorIs(t, err, schema.ErrNoRampFound)

	_, err = ComputeFinesse(x[:10], resonances(n, 20, 1102), schema.RampWindow{Start: 0, End: 5}, Auto)
	assert.ErrorIs(t, err, schema.ErrShapeMismatch)
}

func TestAnalyzeSegment(t *testing.T) {
	n := 2000
	opts := DefaultOptions()

	res, err := AnalyzeSegment(timeAxis(n), triangleScan(n), resonances(n, 20, 1102, 1402), opts)
	require.NoError(t, err)
	assert.InEpsilon(t, 15.0, res.Finesse, 0.05)
	assert.InEpsilon(t, 300*sampleStep, res.FSR, 0.05)

	opts.Cutoff = 0
	res, err = AnalyzeSegment(timeAxis(n), triangleScan(n), resonances(n, 20, 1102, 1402), opts)
	require.NoError(t, err)
	assert.InEpsilon(t, 15.0, res.Finesse, 0.05)

	_, err = AnalyzeSegment(timeAxis(n), triangleScan(n-1), resonances(n, 20, 1102, 1402), opts)
	assert.ErrorIs(t, err, schema.ErrShapeMismatch)
}

func TestAnalyzeSegmentNarrowResonances(t *testing.T) {
	n := 2000
	x := timeAxis(n)
	tags := []float64{0, 1}

	for _, fwhm := range []float64{4, 6, 8} {
		want := 300 / fwhm

		direct, err := ComputeFinesse(x, resonances(n, fwhm, 1102, 1402), schema.RampWindow{Start: 1002, End: 1502}, Auto)
		require.NoError(t, err)
		assert.InEpsilon(t, want, direct.Finesse, 0.05, "fwhm=%v", fwhm)

		res, err := AnalyzeSegment(x, triangleScan(n), resonances(n, fwhm, 1102, 1402), DefaultOptions())
		require.NoError(t, err)
		assert.InEpsilon(t, want, res.Finesse, 0.05, "fwhm=%v", fwhm)
		assert.InEpsilon(t, fwhm*sampleStep, res.FWHM, 0.05, "fwhm=%v", fwhm)

		scan, err := waveform.Assemble(false, x, [][]float64{triangleScan(n), triangleScan(n)}, tags, schema.ChannelInfo{})
		require.NoError(t, err)
		resp, err := waveform.Assemble(false, x, [][]float64{resonances(n, fwhm, 1102, 1402), resonances(n, fwhm, 1102, 1402)}, tags, schema.ChannelInfo{})
		require.NoError(t, err)

		summary, err := MeasureOverSegments(scan, resp, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Valid)
		assert.InEpsilon(t, want, summary.Average, 0.05, "fwhm=%v", fwhm)
	}
}

func TestAnalyzeSegmentNoRamp(t *testing.T) {
	n := 2000
	flat := make([]float64, n)
	_, err := AnalyzeSegment(timeAxis(n), flat, resonances(n, 20, 1102, 1402), DefaultOptions())
	assert.ErrorIs(t, err, schema.ErrNoRampFound)
}

func TestMeasureOverSegmentsPartialFailure(t *testing.T) {
	n := 2000
	x := timeAxis(n)
	tags := []float64{0, 1, 2, 3}

	scanRows := make([][]float64, 4)
	respRows := make([][]float64, 4)
	for i := range 4 {
		scanRows[i] = triangleScan(n)
		respRows[i] = resonances(n, 20, 1102, 1402)
	}
	respRows[1] = resonances(n, 20, 1102)

	scan, err := waveform.Assemble(false, x, scanRows, tags, schema.ChannelInfo{})
	require.NoError(t, err)
	resp, err := waveform.Assemble(false, x, respRows, tags, schema.ChannelInfo{})
	require.NoError(t, err)

	summary, err := MeasureOverSegments(scan, resp, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, summary.Segments, 4)
	assert.Equal(t, 3, summary.Valid)
	assert.InEpsilon(t, 15.0, summary.Average, 0.05)

	for _, i := range []int{0, 2, 3} {
		assert.True(t, summary.Segments[i].OK(), "segment %d", i+1)
		assert.Equal(t, i+1, summary.Segments[i].Segment)
	}

	failed := summary.Segments[1]
	assert.False(t, failed.OK())
	assert.ErrorIs(t, failed.Err, schema.ErrInsufficientPeaks)
	var segErr *schema.SegmentError
	require.ErrorAs(t, failed.Err, &segErr)
	assert.Equal(t, 2, segErr.Segment)
}

func TestMeasureOverSegmentsStitched(t *testing.T) {
	n := 2000
	x := timeAxis(n)
	tags := []float64{0, 0.01}

	scan, err := waveform.Assemble(true, x, [][]float64{triangleScan(n), triangleScan(n)}, tags, schema.ChannelInfo{})
	require.NoError(t, err)
	resp, err := waveform.Assemble(true, x, [][]float64{resonances(n, 20, 1102, 1402), resonances(n, 20, 1102, 1402)}, tags, schema.ChannelInfo{})
	require.NoError(t, err)

	summary, err := MeasureOverSegments(scan, resp, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Valid)
	assert.InEpsilon(t, 15.0, summary.Average, 0.05)
}

func TestMeasureOverSegmentsAllFail(t *testing.T) {
	n := 2000
	x := timeAxis(n)
	tags := []float64{0, 1}

	scan, err := waveform.Assemble(false, x, [][]float64{triangleScan(n), triangleScan(n)}, tags, schema.ChannelInfo{})
	require.NoError(t, err)
	resp, err := waveform.Assemble(false, x, [][]float64{make([]float64, n), make([]float64, n)}, tags, schema.ChannelInfo{})
	require.NoError(t, err)

	summary, err := MeasureOverSegments(scan, resp, DefaultOptions())
	assert.ErrorIs(t, err, schema.ErrNoValidSegments)
	assert.Equal(t, 0, summary.Valid)
	assert.Len(t, summary.Segments, 2)
}

func TestMeasureOverSegmentsShapeMismatch(t *testing.T) {
	x := timeAxis(10)
	scan, err := waveform.Assemble(false, x, [][]float64{make([]float64, 10)}, []float64{0}, schema.ChannelInfo{})
	require.NoError(t, err)
	resp, err := waveform.Assemble(false, x, [][]float64{make([]float64, 10), make([]float64, 10)}, []float64{0, 1}, schema.ChannelInfo{})
	require.NoError(t, err)

	_, err = MeasureOverSegments(scan, resp, DefaultOptions())
	assert.ErrorIs(t, err, schema.ErrShapeMismatch)
}
