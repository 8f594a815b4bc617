package dialect

import (
	"fmt"
	"strings"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
)

// Rigol acquisition type codes as reported by :ACQUIRE:TYPE?.
const (
	RigolNormal = iota
	RigolAverage
	RigolPeak
	RigolHighRes
)

var rigolTypes = map[string]int{
	"NORM": RigolNormal,
	"AVER": RigolAverage,
	"PEAK": RigolPeak,
	"HRES": RigolHighRes,
}

var rigolModes = map[schema.AcquisitionMode]string{
	schema.NormalMode:     "NORM",
	schema.AverageMode:    "AVER",
	schema.PeakDetectMode: "PEAK",
	schema.HighResMode:    "HRES",
}

// RigolAcquisitionType maps an :ACQUIRE:TYPE? response to its type code.
func RigolAcquisitionType(resp string) (int, error) {
	code, ok := rigolTypes[strings.ToUpper(strings.TrimSpace(resp))]
	if !ok {
		return 0, fmt.Errorf("%w: unexpected acquisition type %q", schema.ErrInvalidMetadata, resp)
	}
	return code, nil
}

// RigolDS4000 speaks the DS4000 command set, using waveform recording
// for segmented capture.
type RigolDS4000 struct{}

var _ contract.ScopeDialect = RigolDS4000{} // Compile-time check

// Name returns the dialect identifier.
func (RigolDS4000) Name() schema.DialectName { return schema.RigolDialect }

// Autoscale returns the autoscale command.
func (RigolDS4000) Autoscale() []string { return []string{":AUTOSCALE"} }

// TriggerSetup arms an edge trigger on the external input, rising slope.
func (RigolDS4000) TriggerSetup() []string {
	return []string{
		":TRIGGER:MODE EDGE",
		":TRIGGER:EDGE:SOURCE EXT",
		":TRIGGER:EDGE:SLOPE POSITIVE",
	}
}

// SegmentedEnable turns the channel display on so it is recorded.
func (RigolDS4000) SegmentedEnable(channel int) []string {
	return []string{fmt.Sprintf(":CHANNEL%d:DISPLAY ON", channel)}
}

// Timebase sets the main horizontal scale.
func (RigolDS4000) Timebase(scale float64) []string {
	return []string{":TIMEBASE:MAIN:SCALE " + num(scale)}
}

// Segmented enables waveform recording of count frames.
func (RigolDS4000) Segmented(count int, mode schema.AcquisitionMode) []string {
	return []string{
		":ACQUIRE:TYPE " + rigolModes[mode],
		":FUNCTION:WRECORD:ENABLE ON",
		fmt.Sprintf(":FUNCTION:WRECORD:FEND %d", count),
	}
}

// Digitize starts the recording. The DS4000 records every displayed channel.
func (RigolDS4000) Digitize([]int) string { return ":FUNCTION:WRECORD:OPERATE RUN" }

// SourceSelect makes channel the waveform source.
func (RigolDS4000) SourceSelect(channel int) string {
	return fmt.Sprintf(":WAVEFORM:SOURCE CHANNEL%d", channel)
}

// ExportSetup selects 16-bit export of the recorded frame.
func (RigolDS4000) ExportSetup() []string {
	return []string{
		":WAVEFORM:MODE NORM",
		":WAVEFORM:FORMAT WORD",
	}
}

// PreambleQuery returns the preamble and acquisition type in one compound query.
func (RigolDS4000) PreambleQuery() string { return ":WAVEFORM:PREAMBLE?;:ACQUIRE:TYPE?" }

// ParsePreamble decodes the compound preamble response. The preamble's second field is
// the waveform mode on Rigol scopes; the waveform type is derived from the acquisition type.
func (RigolDS4000) ParsePreamble(resp string) (schema.ChannelInfo, error) {
	preamble, acqType, ok := strings.Cut(resp, ";")
	if !ok {
		return schema.ChannelInfo{}, fmt.Errorf("%w: missing acquisition type in %q", schema.ErrInvalidMetadata, resp)
	}
	info, err := parsePreamble(preamble)
	if err != nil {
		return schema.ChannelInfo{}, err
	}
	code, err := RigolAcquisitionType(acqType)
	if err != nil {
		return schema.ChannelInfo{}, err
	}
	info.WaveformType = 0
	if code == RigolPeak {
		info.WaveformType = 1
	}
	return info, nil
}

// SelectSegment selects the frame to replay.
func (RigolDS4000) SelectSegment(index int) string {
	return fmt.Sprintf(":FUNCTION:WREPLAY:FCURRENT %d", index)
}

// TimeTagQuery returns the current frame's time stamp query.
func (RigolDS4000) TimeTagQuery() string { return ":FUNCTION:WREPLAY:TTAG?" }

// DataQuery returns the binary data query for a channel.
func (RigolDS4000) DataQuery(channel int) string {
	return fmt.Sprintf(":WAVEFORM:SOURCE CHANNEL%d;:WAVEFORM:DATA?", channel)
}

// SampleRateQuery returns the sample rate query.
func (RigolDS4000) SampleRateQuery() string { return ":ACQUIRE:SRATE?" }

// PointsQuery returns the memory depth query.
func (RigolDS4000) PointsQuery() string { return ":ACQUIRE:MDEPTH?" }

// IdentityQuery returns the identification query.
func (RigolDS4000) IdentityQuery() string { return "*IDN?" }

// ErrorQuery returns the error queue query.
func (RigolDS4000) ErrorQuery() string { return ":SYSTEM:ERROR?" }
