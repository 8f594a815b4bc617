package schema

// RampWindow is a half-open index range [Start, End) covering one monotonic ramp.
type RampWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of samples in the window.
func (w RampWindow) Len() int {
	return w.End - w.Start
}

// FinesseResult is the metric extracted from one ramp.
type FinesseResult struct {
	FSR     float64   `json:"fsr"`     // Free spectral range in x units
	FWHM    float64   `json:"fwhm"`    // Mean full width at half maximum in x units
	Finesse float64   `json:"finesse"` // FSR / FWHM
	Peaks   []int     `json:"peaks"`   // Peak indices relative to the window
	X       []float64 `json:"-"`       // Trimmed x-axis
	Y       []float64 `json:"-"`       // Trimmed, normalized response
}

// SegmentFinesse is the per-segment outcome of a multi-segment measurement.
// Exactly one of Result or Err is meaningful.
type SegmentFinesse struct {
	Segment int            `json:"segment"`
	Result  *FinesseResult `json:"result,omitempty"`
	Err     error          `json:"-"`
}

// OK reports whether the segment produced a value.
func (s SegmentFinesse) OK() bool {
	return s.Err == nil && s.Result != nil
}

// FinesseSummary aggregates a multi-segment measurement.
type FinesseSummary struct {
	Average  float64          `json:"average"`
	Valid    int              `json:"valid"`
	Segments []SegmentFinesse `json:"segments"`
}
