// Package finesse locates a single linear ramp in a cavity scan and extracts
// the free spectral range, linewidth and finesse from the transmitted signal.
package finesse

import (
	"fmt"

	"github.com/hockijo/techconnect/core/algo"
	"github.com/hockijo/techconnect/core/waveform"
	"github.com/hockijo/techconnect/schema"
)

// Analysis defaults.
const (
	DefaultThresholdFraction = 0.55 // Share of the largest curvature counted as a turning point
	DefaultPeakFraction      = 0.75 // Share of the window maximum counted as a resonance
	DefaultTargetLength      = 500  // Samples kept for turning point detection
	DefaultFilterOrder       = 3
	DefaultCutoff            = 0.1 // Fraction of Nyquist

	// Auto selects the data-derived threshold or peak height.
	Auto = -1.0

	peakDistanceFraction = 0.25
)

// Options tune a finesse measurement.
type Options struct {
	Cutoff            float64          // Low-pass cutoff as a fraction of Nyquist; 0 disables filtering
	Threshold         float64          // Turning point threshold; negative for auto
	ThresholdFraction float64          // Fraction used by the auto threshold
	Direction         schema.Direction // Ramp slope to select
	PairIndex         int              // Window index when Direction is none
	PeakHeight        float64          // Minimum resonance height; negative for auto
	TargetLength      int              // Decimation target for turning point detection
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Cutoff:            DefaultCutoff,
		Threshold:         Auto,
		ThresholdFraction: DefaultThresholdFraction,
		Direction:         schema.ForwardDirection,
		PeakHeight:        Auto,
		TargetLength:      DefaultTargetLength,
	}
}

// ComputeFinesse trims x and y to window and measures the resonances inside it.
// The free spectral range is the spacing of the first two peaks and the linewidth
// is the mean full width at half prominence of every detected peak.
func ComputeFinesse(x, y []float64, window schema.RampWindow, peakHeight float64) (schema.FinesseResult, error) {
	if len(x) != len(y) {
		return schema.FinesseResult{}, fmt.Errorf("%w: x has %d samples, y has %d", schema.ErrShapeMismatch, len(x), len(y))
	}
	if window.Start < 0 || window.End > len(y) || window.Len() < 3 {
		return schema.FinesseResult{}, fmt.Errorf("%w: window [%d, %d) outside %d samples", schema.ErrNoRampFound, window.Start, window.End, len(y))
	}

	tx := x[window.Start:window.End]
	ty := y[window.Start:window.End]

	if peakHeight < 0 {
		peakHeight = DefaultPeakFraction * algo.Max(ty)
	}
	peaks := algo.FindPeaks(ty, algo.PeakOptions{
		Height:   peakHeight,
		Distance: int(peakDistanceFraction * float64(len(ty))),
	})
	if len(peaks) < 2 {
		return schema.FinesseResult{}, fmt.Errorf("%w: found %d above %.3g", schema.ErrInsufficientPeaks, len(peaks), peakHeight)
	}

	dx := (tx[len(tx)-1] - tx[0]) / float64(len(tx)-1)
	indices := make([]int, len(peaks))
	widths := make([]float64, len(peaks))
	for i, p := range peaks {
		indices[i] = p.Index
		widths[i] = p.Width
	}

	fsr := float64(abs(peaks[1].Index-peaks[0].Index)) * dx
	fwhm := algo.Mean(widths) * dx
	if fwhm == 0 {
		return schema.FinesseResult{}, fmt.Errorf("%w: zero linewidth", schema.ErrInsufficientPeaks)
	}
	if fwhm < 0 {
		fsr, fwhm = -fsr, -fwhm
	}

	return schema.FinesseResult{
		FSR:     fsr,
		FWHM:    fwhm,
		Finesse: fsr / fwhm,
		Peaks:   indices,
		X:       tx,
		Y:       ty,
	}, nil
}

// AnalyzeSegment runs the full pipeline on one segment: locate a ramp in the scan
// signal, then measure the resonances of the response signal inside it.
func AnalyzeSegment(x, scan, response []float64, opts Options) (schema.FinesseResult, error) {
	if len(scan) != len(x) || len(response) != len(x) {
		return schema.FinesseResult{}, fmt.Errorf("%w: x %d, scan %d, response %d", schema.ErrShapeMismatch, len(x), len(scan), len(response))
	}

	normScan := NormalizeAndFilter(scan, opts.Cutoff)
	reduced, factor := DecimateIfLong(normScan, opts.TargetLength)

	threshold := opts.Threshold
	if threshold < 0 {
		fraction := opts.ThresholdFraction
		if fraction <= 0 {
			fraction = DefaultThresholdFraction
		}
		threshold = AutoThresholdFor(reduced, fraction)
	}

	points := FindTurningPoints(reduced, threshold)
	for i, p := range points {
		points[i] = RecoverIndex(p, factor)
	}

	window, err := SelectSingleRamp(points, normScan, opts.Direction, opts.PairIndex)
	if err != nil {
		return schema.FinesseResult{}, err
	}

	// Linewidths are measured on the unfiltered response.
	return ComputeFinesse(x, NormalizeAndFilter(response, 0), window, opts.PeakHeight)
}

// MeasureOverSegments analyzes every segment of a scan/response pair.
// A failing segment is recorded and skipped; the average covers the successes only.
// ErrNoValidSegments is returned when no segment produced a value.
func MeasureOverSegments(scan, response schema.ReconstructedWaveform, opts Options) (schema.FinesseSummary, error) {
	scanRows, err := waveform.Unstitch(scan)
	if err != nil {
		return schema.FinesseSummary{}, fmt.Errorf("scan channel: %w", err)
	}
	respRows, err := waveform.Unstitch(response)
	if err != nil {
		return schema.FinesseSummary{}, fmt.Errorf("response channel: %w", err)
	}
	if len(scanRows.Y) != len(respRows.Y) || len(scanRows.X) != len(respRows.X) {
		return schema.FinesseSummary{}, fmt.Errorf("%w: scan has %dx%d samples, response has %dx%d",
			schema.ErrShapeMismatch, len(scanRows.Y), len(scanRows.X), len(respRows.Y), len(respRows.X))
	}

	summary := schema.FinesseSummary{Segments: make([]schema.SegmentFinesse, len(scanRows.Y))}
	var total float64
	for i := range scanRows.Y {
		seg := schema.SegmentFinesse{Segment: i + 1}
		res, err := AnalyzeSegment(scanRows.X, scanRows.Y[i], respRows.Y[i], opts)
		if err != nil {
			seg.Err = &schema.SegmentError{Segment: i + 1, Err: err}
		} else {
			seg.Result = &res
			total += res.Finesse
			summary.Valid++
		}
		summary.Segments[i] = seg
	}

	if summary.Valid == 0 {
		return summary, fmt.Errorf("%w: all %d segments failed", schema.ErrNoValidSegments, len(summary.Segments))
	}
	summary.Average = total / float64(summary.Valid)
	return summary, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
