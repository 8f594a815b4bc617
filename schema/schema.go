// Package schema has models, constants and error values for all parts of techconnect.
package schema

import (
	"fmt"
	"math"
	"time"
)

// MaxPoints bounds the samples per segment. It matches the largest binary block
// a transport accepts (two bytes per sample).
const MaxPoints = 32 << 20

// ChannelInfo is the per-channel metadata reported by the instrument.
// It describes how raw integer samples map to physical units and time.
// A fresh copy is read before every multi-segment collection.
type ChannelInfo struct {
	Format       int     `json:"format"`        // Sample encoding reported by the scope (0 byte, 1 word, 4 ascii)
	WaveformType int     `json:"waveform_type"` // 0 normal, 1 peak-detect (min/max pairs)
	Points       int     `json:"points"`        // Samples per segment
	Count        int     `json:"count"`         // Averaging count reported by the scope
	XIncrement   float64 `json:"x_increment"`   // Seconds between samples
	XOrigin      float64 `json:"x_origin"`      // Time of the reference sample
	XReference   float64 `json:"x_reference"`   // Index of the reference sample
	YIncrement   float64 `json:"y_increment"`   // Volts per code
	YOrigin      float64 `json:"y_origin"`      // Volts at the reference code
	YReference   float64 `json:"y_reference"`   // Reference code
}

// Validate reports ErrInvalidMetadata when the metadata cannot produce an x-axis.
func (ci ChannelInfo) Validate() error {
	if ci.Points <= 0 || ci.Points > MaxPoints {
		return fmt.Errorf("%w: points must be in [1, %d] (received %d)", ErrInvalidMetadata, MaxPoints, ci.Points)
	}
	fields := []struct {
		name  string
		value float64
	}{
		{"x increment", ci.XIncrement},
		{"x origin", ci.XOrigin},
		{"x reference", ci.XReference},
		{"y increment", ci.YIncrement},
		{"y origin", ci.YOrigin},
		{"y reference", ci.YReference},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite (received %v)", ErrInvalidMetadata, f.name, f.value)
		}
	}
	if ci.XIncrement == 0 {
		return fmt.Errorf("%w: x increment must be non-zero", ErrInvalidMetadata)
	}
	return nil
}

// RawSegment is one captured trigger event before scaling.
type RawSegment struct {
	Index   int     // 1-based segment index
	TimeTag float64 // Trigger time relative to the first segment, in seconds
	Samples []int16 // Raw signed sample codes
}

// ReconstructedWaveform is a channel's physical time series.
// When Stitched is set, Y holds exactly one row aligned with X.
// Otherwise Y holds one row per time tag and X is the single-segment axis.
type ReconstructedWaveform struct {
	Stitched bool        `json:"stitched"`
	X        []float64   `json:"x"`
	Y        [][]float64 `json:"y"`
	TimeTags []float64   `json:"time_tags"`
	Info     ChannelInfo `json:"info"`
}

// Validate checks the shape invariants of the waveform.
func (w ReconstructedWaveform) Validate() error {
	if w.Stitched {
		if len(w.Y) != 1 || len(w.Y[0]) != len(w.X) {
			return fmt.Errorf("%w: stitched waveform needs one row of %d samples", ErrShapeMismatch, len(w.X))
		}
		return nil
	}
	if len(w.Y) != len(w.TimeTags) {
		return fmt.Errorf("%w: %d rows for %d time tags", ErrShapeMismatch, len(w.Y), len(w.TimeTags))
	}
	for i, row := range w.Y {
		if len(row) != len(w.X) {
			return fmt.Errorf("%w: segment %d has %d samples, x-axis has %d", ErrShapeMismatch, i+1, len(row), len(w.X))
		}
	}
	return nil
}

// Segments returns the number of segments represented by the waveform.
func (w ReconstructedWaveform) Segments() int {
	return len(w.TimeTags)
}

// AcquisitionParams holds the capture parameters for a run.
type AcquisitionParams struct {
	TimeWindow   float64         `json:"time_window"`   // Seconds of signal per segment
	SegmentCount int             `json:"segment_count"` // Trigger events to capture
	Mode         AcquisitionMode `json:"mode"`
	Stitched     bool            `json:"stitched"`
}

// Validate checks the parameters before any instrument traffic.
func (p AcquisitionParams) Validate() error {
	if p.TimeWindow <= 0 {
		return fmt.Errorf("time window must be positive (received %g)", p.TimeWindow)
	}
	if p.SegmentCount < 1 {
		return fmt.Errorf("segment count must be at least 1 (received %d)", p.SegmentCount)
	}
	if _, ok := ValidAcquisitionModes[p.Mode]; !ok {
		return fmt.Errorf("invalid acquisition mode '%s'. must be NORMAL, HRESOLUTION, PEAK, AVERAGE", p.Mode)
	}
	return nil
}

// AcquisitionResult is the outcome of a completed run.
// Channels preserves the order in which the caller requested them.
type AcquisitionResult struct {
	Channels    []int                         `json:"channels"`
	Waveforms   map[int]ReconstructedWaveform `json:"waveforms"`
	Params      AcquisitionParams             `json:"params"`
	CollectedAt time.Time                     `json:"collected_at"`
	Identity    string                        `json:"identity,omitempty"` // *IDN? response when available
}

// Provenance returns the flat metadata recorded alongside a stored result.
func (r *AcquisitionResult) Provenance() map[string]string {
	prov := map[string]string{
		"acquisition_mode": string(r.Params.Mode),
		"time_window":      fmt.Sprintf("%g", r.Params.TimeWindow),
		"segment_count":    fmt.Sprintf("%d", r.Params.SegmentCount),
		"stitched":         fmt.Sprintf("%t", r.Params.Stitched),
		"collected_at":     r.CollectedAt.UTC().Format(time.RFC3339Nano),
	}
	if r.Identity != "" {
		prov["identity"] = r.Identity
	}
	return prov
}
