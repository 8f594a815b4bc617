package schema

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the acquisition and analysis packages.
var (
	ErrTransport         = errors.New("transport failure")
	ErrTimeout           = errors.New("instrument timeout")
	ErrInvalidMetadata   = errors.New("invalid channel metadata")
	ErrShapeMismatch     = errors.New("waveform shape mismatch")
	ErrNoRampFound       = errors.New("no ramp found")
	ErrInsufficientPeaks = errors.New("insufficient peaks")
	ErrNoValidSegments   = errors.New("no valid segments")
	ErrInstrument        = errors.New("instrument reported an error")
	ErrRunNotFound       = errors.New("run not found")
)

// AcquisitionError is returned when a run aborts. It names the stage,
// channel and segment that failed; zero values mean "not applicable".
type AcquisitionError struct {
	Stage   RunState
	Channel int
	Segment int
	Err     error
}

func (e *AcquisitionError) Error() string {
	switch {
	case e.Channel > 0 && e.Segment > 0:
		return fmt.Sprintf("acquisition failed while %s channel %d segment %d: %v", e.Stage, e.Channel, e.Segment, e.Err)
	case e.Channel > 0:
		return fmt.Sprintf("acquisition failed while %s channel %d: %v", e.Stage, e.Channel, e.Err)
	default:
		return fmt.Sprintf("acquisition failed while %s: %v", e.Stage, e.Err)
	}
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// SegmentError marks a segment that could not be analyzed.
type SegmentError struct {
	Segment int
	Err     error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d: %v", e.Segment, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}
