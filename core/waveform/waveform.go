// Package waveform turns raw segmented captures into physical time series.
// Nothing here talks to hardware; every function is a pure transform over
// samples and channel metadata.
package waveform

import (
	"fmt"
	"math"

	"github.com/hockijo/techconnect/schema"
)

// peakDetectType is the waveform type whose samples arrive as min/max pairs.
const peakDetectType = 1

// GenerateXAxis returns the per-segment time axis for the given metadata.
// For peak-detect captures every time value appears twice in a row.
func GenerateXAxis(info schema.ChannelInfo) ([]float64, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}

	repeat := 1
	if info.WaveformType == peakDetectType {
		repeat = 2
	}

	x := make([]float64, 0, info.Points*repeat)
	for i := range info.Points {
		v := (float64(i)-info.XReference)*info.XIncrement + info.XOrigin
		for range repeat {
			x = append(x, v)
		}
	}
	return x, nil
}

// ScaleSamples converts raw sample codes to physical values.
func ScaleSamples(raw []int16, info schema.ChannelInfo) []float64 {
	y := make([]float64, len(raw))
	for i, r := range raw {
		y[i] = (float64(r)-info.YReference)*info.YIncrement + info.YOrigin
	}
	return y
}

// UnscaleSamples inverts ScaleSamples, rounding to the nearest code.
func UnscaleSamples(y []float64, info schema.ChannelInfo) ([]int16, error) {
	if info.YIncrement == 0 {
		return nil, fmt.Errorf("%w: y increment must be non-zero", schema.ErrInvalidMetadata)
	}
	raw := make([]int16, len(y))
	for i, v := range y {
		code := math.Round((v-info.YOrigin)/info.YIncrement + info.YReference)
		raw[i] = int16(max(math.MinInt16, min(math.MaxInt16, code)))
	}
	return raw, nil
}

// Stitch builds a continuous axis by offsetting the segment axis by each time tag in order.
func Stitch(segmentX []float64, timeTags []float64) []float64 {
	out := make([]float64, 0, len(segmentX)*len(timeTags))
	for _, tag := range timeTags {
		for _, x := range segmentX {
			out = append(out, x+tag)
		}
	}
	return out
}

// Assemble packages one channel's segments into a ReconstructedWaveform.
// Stitched output flattens the rows in segment order against a stitched axis;
// unstitched output keeps one row per segment against the single-segment axis.
func Assemble(stitched bool, segmentX []float64, ySegments [][]float64, timeTags []float64, info schema.ChannelInfo) (schema.ReconstructedWaveform, error) {
	if len(ySegments) != len(timeTags) {
		return schema.ReconstructedWaveform{}, fmt.Errorf("%w: %d segments for %d time tags", schema.ErrShapeMismatch, len(ySegments), len(timeTags))
	}

	w := schema.ReconstructedWaveform{
		Stitched: stitched,
		TimeTags: timeTags,
		Info:     info,
	}

	if !stitched {
		w.X = segmentX
		w.Y = ySegments
		if err := w.Validate(); err != nil {
			return schema.ReconstructedWaveform{}, err
		}
		return w, nil
	}

	w.X = Stitch(segmentX, timeTags)
	flat := make([]float64, 0, len(w.X))
	for _, row := range ySegments {
		flat = append(flat, row...)
	}
	if len(flat) != len(w.X) {
		return schema.ReconstructedWaveform{}, fmt.Errorf("%w: %d samples against a %d point stitched axis", schema.ErrShapeMismatch, len(flat), len(w.X))
	}
	w.Y = [][]float64{flat}
	return w, nil
}

// Unstitch splits a stitched waveform back into one row per time tag.
// Waveforms that are already unstitched are returned unchanged.
func Unstitch(w schema.ReconstructedWaveform) (schema.ReconstructedWaveform, error) {
	if !w.Stitched {
		return w, nil
	}
	if err := w.Validate(); err != nil {
		return schema.ReconstructedWaveform{}, err
	}
	n := len(w.TimeTags)
	if n == 0 || len(w.X)%n != 0 {
		return schema.ReconstructedWaveform{}, fmt.Errorf("%w: %d samples do not split into %d segments", schema.ErrShapeMismatch, len(w.X), n)
	}

	segLen := len(w.X) / n
	x := make([]float64, segLen)
	for i := range segLen {
		x[i] = w.X[i] - w.TimeTags[0]
	}

	rows := make([][]float64, n)
	for s := range n {
		rows[s] = w.Y[0][s*segLen : (s+1)*segLen]
	}

	return schema.ReconstructedWaveform{
		Stitched: false,
		X:        x,
		Y:        rows,
		TimeTags: w.TimeTags,
		Info:     w.Info,
	}, nil
}

// Segment returns the x-axis and samples of one 1-based segment of a waveform,
// whether or not it is stitched.
func Segment(w schema.ReconstructedWaveform, index int) ([]float64, []float64, error) {
	if index < 1 || index > len(w.TimeTags) {
		return nil, nil, fmt.Errorf("segment %d out of range [1, %d]", index, len(w.TimeTags))
	}
	rows, err := Unstitch(w)
	if err != nil {
		return nil, nil, err
	}
	return rows.X, rows.Y[index-1], nil
}
