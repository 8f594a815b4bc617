package dialect

import (
	"fmt"
	"strings"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
)

// Keysight3000T speaks the InfiniiVision 3000T X-Series command set.
type Keysight3000T struct{}

var _ contract.ScopeDialect = Keysight3000T{} // Compile-time check

// Name returns the dialect identifier.
func (Keysight3000T) Name() schema.DialectName { return schema.KeysightDialect }

// Autoscale returns the autoscale command.
func (Keysight3000T) Autoscale() []string { return []string{":AUTOSCALE"} }

// TriggerSetup arms an edge trigger on the external input, rising slope.
func (Keysight3000T) TriggerSetup() []string {
	return []string{
		":TRIGGER:MODE EDGE",
		":TRIGGER:EDGE:SOURCE EXT",
		":TRIGGER:EDGE:SLOPE POSITIVE",
	}
}

// SegmentedEnable turns the channel display on so it is captured.
func (Keysight3000T) SegmentedEnable(channel int) []string {
	return []string{fmt.Sprintf(":CHANNEL%d:DISPLAY ON", channel)}
}

// Timebase sets the horizontal scale.
func (Keysight3000T) Timebase(scale float64) []string {
	return []string{":TIMEBASE:SCALE " + num(scale)}
}

// Segmented selects segmented memory with automatic rate and depth.
func (Keysight3000T) Segmented(count int, mode schema.AcquisitionMode) []string {
	return []string{
		":ACQUIRE:MODE SEGMENTED",
		":ACQUIRE:SRATE:AUTO ON",
		":ACQUIRE:POINTS:AUTO ON",
		fmt.Sprintf(":ACQUIRE:SEGMENTED:COUNT %d", count),
		":ACQUIRE:TYPE " + string(mode),
	}
}

// Digitize captures the listed channels.
func (Keysight3000T) Digitize(channels []int) string {
	sources := make([]string, len(channels))
	for i, ch := range channels {
		sources[i] = fmt.Sprintf("CHANNEL%d", ch)
	}
	return ":DIGITIZE " + strings.Join(sources, ",")
}

// SourceSelect makes channel the waveform source.
func (Keysight3000T) SourceSelect(channel int) string {
	return fmt.Sprintf(":WAVEFORM:SOURCE CHANNEL%d", channel)
}

// ExportSetup selects signed 16-bit LSB-first raw export.
func (Keysight3000T) ExportSetup() []string {
	return []string{
		":WAVEFORM:FORMAT WORD",
		":WAVEFORM:BYTEORDER LSBFIRST",
		":WAVEFORM:UNSIGNED 0",
		":WAVEFORM:POINTS:MODE RAW",
		":WAVEFORM:POINTS MAX",
	}
}

// PreambleQuery returns the preamble query.
func (Keysight3000T) PreambleQuery() string { return ":WAVEFORM:PREAMBLE?" }

// ParsePreamble decodes the ten-field preamble.
func (Keysight3000T) ParsePreamble(resp string) (schema.ChannelInfo, error) {
	return parsePreamble(resp)
}

// SelectSegment moves the segment pointer.
func (Keysight3000T) SelectSegment(index int) string {
	return fmt.Sprintf(":ACQUIRE:SEGMENTED:INDEX %d", index)
}

// TimeTagQuery returns the current segment's time tag query.
func (Keysight3000T) TimeTagQuery() string { return ":WAVEFORM:SEGMENTED:TTAG?" }

// DataQuery returns the binary data query for a channel.
func (Keysight3000T) DataQuery(channel int) string {
	return fmt.Sprintf(":WAVEFORM:SOURCE CHANNEL%d;:WAVEFORM:DATA?", channel)
}

// SampleRateQuery returns the sample rate query.
func (Keysight3000T) SampleRateQuery() string { return ":ACQUIRE:SRATE?" }

// PointsQuery returns the points-per-segment query.
func (Keysight3000T) PointsQuery() string { return ":ACQUIRE:POINTS?" }

// IdentityQuery returns the identification query.
func (Keysight3000T) IdentityQuery() string { return "*IDN?" }

// ErrorQuery returns the error queue query.
func (Keysight3000T) ErrorQuery() string { return ":SYSTEM:ERROR?" }
