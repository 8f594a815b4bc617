package dialect

import (
	"testing"

	"github.com/hockijo/techconnect/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keysightPreamble = "+1,+0,+62500,+1,+8.00000000E-09,-2.50000000E-04,+0,+3.05175781E-05,+1.50000000E-01,+0\n"

func TestForScope(t *testing.T) {
	d, err := ForScope(schema.KeysightDialect)
	require.NoError(t, err)
	assert.Equal(t, schema.KeysightDialect, d.Name())

	d, err = ForScope(schema.RigolDialect)
	require.NoError(t, err)
	assert.Equal(t, schema.RigolDialect, d.Name())

	_, err = ForScope("tektronix")
	assert.Error(t, err)
}

func TestKeysightParsePreamble(t *testing.T) {
	info, err := Keysight3000T{}.ParsePreamble(keysightPreamble)
	require.NoError(t, err)

	assert.Equal(t, schema.ChannelInfo{
		Format:       1,
		WaveformType: 0,
		Points:       62500,
		Count:        1,
		XIncrement:   8e-9,
		XOrigin:      -2.5e-4,
		XReference:   0,
		YIncrement:   3.05175781e-5,
		YOrigin:      0.15,
		YReference:   0,
	}, info)
}

func TestParsePreambleErrors(t *testing.T) {
	tests := []struct {
		name string
		resp string
	}{
		{"too few fields", "1,0,100"},
		{"not a number", "1,0,abc,1,1e-6,0,0,1,0,0"},
		{"zero points", "1,0,0,1,1e-6,0,0,1,0,0"},
		{"zero x increment", "1,0,100,1,0,0,0,1,0,0"},
		{"huge points", "1,0,1e15,1,1e-9,0,0,0.01,0,0"},
		{"points above limit", "1,0,40000000,1,1e-9,0,0,0.01,0,0"},
		{"NaN points", "1,0,NaN,1,1e-6,0,0,1,0,0"},
		{"infinite points", "1,0,+Inf,1,1e-6,0,0,1,0,0"},
		{"NaN x increment", "1,0,100,1,NaN,0,0,1,0,0"},
		{"infinite y origin", "1,0,100,1,1e-6,0,0,1,-Inf,0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Keysight3000T{}.ParsePreamble(tt.resp)
			assert.ErrorIs(t, err, schema.ErrInvalidMetadata)
		})
	}
}

func TestParsePreambleScientificPoints(t *testing.T) {
	info, err := parsePreamble("1,1,1.0E+3,1,1e-6,0,0,1,0,0")
	require.NoError(t, err)
	assert.Equal(t, 1000, info.Points)
	assert.Equal(t, 1, info.WaveformType)
}

func TestKeysightCommands(t *testing.T) {
	d := Keysight3000T{}
	assert.Equal(t, ":DIGITIZE CHANNEL1,CHANNEL3", d.Digitize([]int{1, 3}))
	assert.Equal(t, []string{":TIMEBASE:SCALE 0.005"}, d.Timebase(0.005))
	assert.Equal(t, ":ACQUIRE:SEGMENTED:INDEX 12", d.SelectSegment(12))
	assert.Equal(t, ":WAVEFORM:SOURCE CHANNEL2;:WAVEFORM:DATA?", d.DataQuery(2))
	assert.Contains(t, d.Segmented(200, schema.HighResMode), ":ACQUIRE:SEGMENTED:COUNT 200")
	assert.Contains(t, d.Segmented(200, schema.HighResMode), ":ACQUIRE:TYPE HRESOLUTION")
	assert.Contains(t, d.ExportSetup(), ":WAVEFORM:BYTEORDER LSBFIRST")
	assert.Contains(t, d.TriggerSetup(), ":TRIGGER:EDGE:SOURCE EXT")
}

func TestRigolAcquisitionType(t *testing.T) {
	tests := map[string]int{"NORM": 0, "AVER": 1, "PEAK": 2, "HRES": 3, "hres\n": 3}
	for resp, want := range tests {
		got, err := RigolAcquisitionType(resp)
		require.NoError(t, err, resp)
		assert.Equal(t, want, got, resp)
	}
	_, err := RigolAcquisitionType("FAST")
	assert.ErrorIs(t, err, schema.ErrInvalidMetadata)
}

func TestRigolParsePreamble(t *testing.T) {
	d := RigolDS4000{}

	info, err := d.ParsePreamble("0,0,1400,1,1e-6,-7e-4,0,4e-3,0,127;PEAK")
	require.NoError(t, err)
	assert.Equal(t, 1, info.WaveformType, "peak detect produces min/max pairs")
	assert.Equal(t, 1400, info.Points)

	info, err = d.ParsePreamble("0,2,1400,1,1e-6,-7e-4,0,4e-3,0,127;AVER")
	require.NoError(t, err)
	assert.Equal(t, 0, info.WaveformType, "the waveform mode field is not a type")

	_, err = d.ParsePreamble("0,0,1400,1,1e-6,-7e-4,0,4e-3,0,127")
	assert.ErrorIs(t, err, schema.ErrInvalidMetadata)
}

func TestRigolSegmented(t *testing.T) {
	lines := RigolDS4000{}.Segmented(50, schema.AverageMode)
	assert.Equal(t, []string{":ACQUIRE:TYPE AVER", ":FUNCTION:WRECORD:ENABLE ON", ":FUNCTION:WRECORD:FEND 50"}, lines)
}

func TestDG1000(t *testing.T) {
	d := DG1000{}
	assert.Equal(t, []string{
		"FUNC RAMP", "FUNC:RAMP:SYMM 50", "FREQ 10", "VOLT 1.4", "VOLT:OFFSET -0.8", "PHASE 0",
	}, d.Ramp(1, 10, 1.4, -0.8))
	assert.Equal(t, "FUNC:CH2 RAMP", d.Ramp(2, 10, 1, 0)[0])
	assert.Equal(t, "OUTPUT ON", d.Output(1, true))
	assert.Equal(t, "OUTPUT:CH2 OFF", d.Output(2, false))
	assert.Equal(t, "APPLY:CH2?", d.ApplyQuery(2))
	assert.Equal(t, []string{"*CLS"}, d.Reset())
}

func TestRampLevels(t *testing.T) {
	amp, offset := RampLevels(-1, 3)
	assert.InDelta(t, 2.8, amp, 1e-12)
	assert.InDelta(t, -0.8, offset, 1e-12)

	amp, offset = RampLevels(3, -1)
	assert.InDelta(t, 2.8, amp, 1e-12)
	assert.InDelta(t, -0.8, offset, 1e-12)
}
