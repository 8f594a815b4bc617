package dialect

import (
	"fmt"
	"math"

	"github.com/hockijo/techconnect/internal/contract"
)

// Ramp drive shaping relative to the requested scan voltages.
const (
	rampAmplitudeGain = 1.4
	rampOffsetGain    = 0.8
	rampSymmetry      = 50
)

// DG1000 speaks the Rigol DG1000 function generator command set.
// Channel 2 commands carry a :CH2 suffix.
type DG1000 struct{}

var _ contract.RampDialect = DG1000{} // Compile-time check

func dgSuffix(channel int) string {
	if channel == 2 {
		return ":CH2"
	}
	return ""
}

// Reset clears the status registers.
func (DG1000) Reset() []string { return []string{"*CLS"} }

// Ramp configures a symmetric triangle ramp.
func (DG1000) Ramp(channel int, frequency, amplitude, offset float64) []string {
	sfx := dgSuffix(channel)
	return []string{
		"FUNC" + sfx + " RAMP",
		fmt.Sprintf("FUNC:RAMP:SYMM%s %d", sfx, rampSymmetry),
		"FREQ" + sfx + " " + num(frequency),
		"VOLT" + sfx + " " + num(amplitude),
		"VOLT" + sfx + ":OFFSET " + num(offset),
		"PHASE" + sfx + " 0",
	}
}

// Output switches a channel output.
func (DG1000) Output(channel int, on bool) string {
	state := "OFF"
	if on {
		state = "ON"
	}
	return "OUTPUT" + dgSuffix(channel) + " " + state
}

// ApplyQuery returns the query for a channel's applied settings.
func (DG1000) ApplyQuery(channel int) string {
	return "APPLY" + dgSuffix(channel) + "?"
}

// RampLevels converts the two scan voltages bracketing the resonances into
// a peak-to-peak amplitude and a DC offset with headroom on both ends.
func RampLevels(v1, v2 float64) (amplitude, offset float64) {
	amplitude = math.Abs(v1-v2) / 2 * rampAmplitudeGain
	offset = rampOffsetGain * math.Min(v1, v2)
	return amplitude, offset
}
