// Package algo holds the numeric primitives used by the analysis pipeline:
// IIR low-pass design, zero-phase filtering, peak detection and summary statistics.
package algo

import "math"

// Coefficients are normalized biquad coefficients (a0 == 1).
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// dcGain returns the section gain at zero frequency.
func (c Coefficients) dcGain() float64 {
	den := 1 + c.A1 + c.A2
	if den == 0 {
		return 0
	}
	return (c.B0 + c.B1 + c.B2) / den
}

// Section is a single biquad in Direct Form II Transposed.
type Section struct {
	Coefficients
	d0, d1 float64
}

// ProcessSample filters one sample.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y
	return y
}

// prime sets the state to the steady-state response for a constant input x.
func (s *Section) prime(x float64) {
	y := s.dcGain() * x
	s.d1 = s.B2*x - s.A2*y
	s.d0 = y - s.B0*x
}

// Chain is a cascade of biquad sections.
type Chain []Section

// NewChain builds a cascade from the given coefficients.
func NewChain(coeffs []Coefficients) Chain {
	chain := make(Chain, len(coeffs))
	for i, c := range coeffs {
		chain[i] = Section{Coefficients: c}
	}
	return chain
}

// ProcessSample runs one sample through every section.
func (c Chain) ProcessSample(x float64) float64 {
	for i := range c {
		x = c[i].ProcessSample(x)
	}
	return x
}

// Prime sets every section to its steady state for a constant input x.
func (c Chain) Prime(x float64) {
	for i := range c {
		c[i].prime(x)
		x *= c[i].dcGain()
	}
}

// Order returns the filter order of the cascade.
func (c Chain) Order() int {
	order := 0
	for _, s := range c {
		if s.B2 == 0 && s.A2 == 0 {
			order++
		} else {
			order += 2
		}
	}
	return order
}

// ButterworthLowpass designs a low-pass Butterworth cascade.
// cutoff is a fraction of the Nyquist frequency in (0, 1).
// Odd orders end with a first-order section. Invalid input returns nil.
func ButterworthLowpass(cutoff float64, order int) []Coefficients {
	if order <= 0 || cutoff <= 0 || cutoff >= 1 {
		return nil
	}

	// Normalized so that Nyquist sits at 1 with a sample rate of 2.
	const sampleRate = 2.0
	sections := make([]Coefficients, 0, (order+1)/2)
	for i := order/2 - 1; i >= 0; i-- {
		sections = append(sections, lowpassRBJ(cutoff, butterworthQ(order, i), sampleRate))
	}
	if order%2 != 0 {
		sections = append(sections, firstOrderLowpass(cutoff, sampleRate))
	}
	return sections
}

func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))
	s := math.Sin(theta)
	if s == 0 {
		return 1 / math.Sqrt2
	}
	return 1 / (2 * s)
}

func lowpassRBJ(freq, q, sampleRate float64) Coefficients {
	w0 := 2 * math.Pi * freq / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	a0 := 1 + alpha
	return Coefficients{
		B0: (1 - cw) / 2 / a0,
		B1: (1 - cw) / a0,
		B2: (1 - cw) / 2 / a0,
		A1: -2 * cw / a0,
		A2: (1 - alpha) / a0,
	}
}

func firstOrderLowpass(freq, sampleRate float64) Coefficients {
	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k)
	return Coefficients{
		B0: k * norm,
		B1: k * norm,
		A1: (k - 1) * norm,
	}
}

// FiltFilt applies the cascade forward and then backward so the result has no phase shift.
// Edges are extended by odd reflection and the state is primed from the edge sample.
func FiltFilt(coeffs []Coefficients, data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	if len(coeffs) == 0 || len(data) < 2 {
		return out
	}

	padLen := 3 * (NewChain(coeffs).Order() + 1)
	padLen = min(padLen, len(data)-1)
	ext := oddExtend(data, padLen)

	forward := runChain(coeffs, ext)
	reverse(forward)
	backward := runChain(coeffs, forward)
	reverse(backward)

	copy(out, backward[padLen:padLen+len(data)])
	return out
}

func runChain(coeffs []Coefficients, data []float64) []float64 {
	chain := NewChain(coeffs)
	chain.Prime(data[0])
	out := make([]float64, len(data))
	for i, x := range data {
		out[i] = chain.ProcessSample(x)
	}
	return out
}

// oddExtend reflects n samples about each end point.
func oddExtend(data []float64, n int) []float64 {
	last := len(data) - 1
	ext := make([]float64, 0, len(data)+2*n)
	for i := n; i >= 1; i-- {
		ext = append(ext, 2*data[0]-data[i])
	}
	ext = append(ext, data...)
	for i := 1; i <= n; i++ {
		ext = append(ext, 2*data[last]-data[last-i])
	}
	return ext
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
