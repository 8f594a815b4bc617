package acquire

import (
	"time"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
)

// Timing describes one open-loop wait:
// Margin + Multiplier * TimeWindow * SegmentCount + PerSegment * SegmentCount.
type Timing struct {
	Margin     time.Duration
	Multiplier float64
	PerSegment time.Duration
}

// Wait returns the blocking duration for the given parameters.
func (t Timing) Wait(params schema.AcquisitionParams) time.Duration {
	segments := float64(params.SegmentCount)
	capture := time.Duration(t.Multiplier * params.TimeWindow * segments * float64(time.Second))
	return t.Margin + capture + time.Duration(segments)*t.PerSegment
}

// TimingPolicy picks the wait used after a digitize.
// Mode entries take precedence, then Stitched for stitched captures, then Default.
type TimingPolicy struct {
	Default  Timing
	Stitched Timing
	Modes    map[schema.AcquisitionMode]Timing
}

// DefaultTimingPolicy returns the waits that have worked on Keysight 3000T scopes.
func DefaultTimingPolicy() TimingPolicy {
	return TimingPolicy{
		Default:  Timing{Margin: 2 * time.Second, Multiplier: 3, PerSegment: 100 * time.Millisecond},
		Stitched: Timing{Margin: 2 * time.Second, Multiplier: 1.5},
		Modes:    map[schema.AcquisitionMode]Timing{},
	}
}

// For returns the timing that applies to params.
func (p TimingPolicy) For(params schema.AcquisitionParams) Timing {
	if t, ok := p.Modes[params.Mode]; ok {
		return t
	}
	if params.Stitched {
		return p.Stitched
	}
	return p.Default
}

// WithOverrides applies the non-zero configured knobs to the default and stitched timings.
func (p TimingPolicy) WithOverrides(cfg contract.TimingConfig) TimingPolicy {
	apply := func(t Timing) Timing {
		if cfg.Margin > 0 {
			t.Margin = cfg.Margin
		}
		if cfg.Multiplier > 0 {
			t.Multiplier = cfg.Multiplier
		}
		if cfg.PerSegment > 0 {
			t.PerSegment = cfg.PerSegment
		}
		return t
	}
	out := TimingPolicy{
		Default:  apply(p.Default),
		Stitched: apply(p.Stitched),
		Modes:    make(map[schema.AcquisitionMode]Timing, len(p.Modes)),
	}
	for mode, t := range p.Modes {
		out.Modes[mode] = apply(t)
	}
	return out
}
