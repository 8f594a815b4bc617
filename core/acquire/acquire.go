// Package acquire drives a segmented capture on an oscilloscope: configuration,
// trigger arm, a timed wait and the per-segment readout, followed by reconstruction
// of every requested channel.
package acquire

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hockijo/techconnect/core/waveform"
	"github.com/hockijo/techconnect/schema"
)

// Request describes one capture.
type Request struct {
	Channels  []int // Reconstructed in this order
	Params    schema.AcquisitionParams
	Autoscale bool // Let the scope choose vertical and horizontal scales first
}

// DrainOutput is the scaled readout of one channel.
type DrainOutput struct {
	Info     schema.ChannelInfo
	SegmentX []float64   // Single-segment time axis
	TimeTags []float64   // One per segment
	Y        [][]float64 // One row per segment, aligned with SegmentX
}

// Orchestrator runs the capture state machine.
// It keeps no instrument state between runs and is not safe for concurrent use.
type Orchestrator struct {
	Timing TimingPolicy

	// Sleep blocks for the given duration. Defaults to time.Sleep.
	Sleep func(time.Duration)

	// Now stamps completed runs. Defaults to time.Now.
	Now func() time.Time

	// Observer, when set, is told about every state change.
	Observer func(schema.RunState)

	state schema.RunState
}

// New creates an orchestrator with the given timing policy.
func New(timing TimingPolicy) *Orchestrator {
	return &Orchestrator{
		Timing: timing,
		Sleep:  time.Sleep,
		Now:    time.Now,
		state:  schema.StateIdle,
	}
}

// State returns the current stage. A failed run stays at the stage that failed.
func (o *Orchestrator) State() schema.RunState {
	if o.state == "" {
		return schema.StateIdle
	}
	return o.state
}

func (o *Orchestrator) setState(s schema.RunState) {
	o.state = s
	if o.Observer != nil {
		o.Observer(s)
	}
}

func (o *Orchestrator) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if o.Sleep != nil {
		o.Sleep(d)
		return
	}
	time.Sleep(d)
}

// writeLines sends each line with the session's pause in between.
func (o *Orchestrator) writeLines(ctx context.Context, s *Session, lines []string) error {
	for i, line := range lines {
		if i > 0 {
			o.sleep(s.LineDelay)
		}
		if err := s.Instrument.Write(ctx, line); err != nil {
			return fmt.Errorf("write %q: %w", line, err)
		}
	}
	return nil
}

// Configure issues the setup commands for req: optional autoscale, trigger, per-channel
// segmented enablement, time-base scale of TimeWindow/10, then segment count and mode.
func (o *Orchestrator) Configure(ctx context.Context, s *Session, req Request) error {
	o.setState(schema.StateConfiguring)
	if err := req.Params.Validate(); err != nil {
		return &schema.AcquisitionError{Stage: schema.StateConfiguring, Err: err}
	}
	if len(req.Channels) == 0 {
		return &schema.AcquisitionError{Stage: schema.StateConfiguring, Err: fmt.Errorf("no channels requested")}
	}

	var lines []string
	if req.Autoscale {
		lines = append(lines, s.Dialect.Autoscale()...)
	}
	lines = append(lines, s.Dialect.TriggerSetup()...)
	for _, ch := range req.Channels {
		lines = append(lines, s.Dialect.SegmentedEnable(ch)...)
	}
	lines = append(lines, s.Dialect.Timebase(req.Params.TimeWindow/10)...)
	lines = append(lines, s.Dialect.Segmented(req.Params.SegmentCount, req.Params.Mode)...)

	if err := o.writeLines(ctx, s, lines); err != nil {
		return &schema.AcquisitionError{Stage: schema.StateConfiguring, Err: err}
	}
	return nil
}

// TriggerAndWait starts the capture and blocks for the policy's wait.
// The scope offers no completion event for segmented captures, so the wait is open loop
// and is not interrupted by ctx.
func (o *Orchestrator) TriggerAndWait(ctx context.Context, s *Session, req Request) error {
	o.setState(schema.StateTriggered)
	if err := s.Instrument.Write(ctx, s.Dialect.Digitize(req.Channels)); err != nil {
		return &schema.AcquisitionError{Stage: schema.StateTriggered, Err: err}
	}

	o.setState(schema.StateWaiting)
	o.sleep(o.Timing.For(req.Params).Wait(req.Params))
	return nil
}

// Drain reads count segments of one channel in index order and scales them.
// Channel metadata is fetched fresh before the loop.
func (o *Orchestrator) Drain(ctx context.Context, s *Session, channel, count int) (DrainOutput, error) {
	o.setState(schema.StateDraining)
	fail := func(segment int, err error) (DrainOutput, error) {
		return DrainOutput{}, &schema.AcquisitionError{Stage: schema.StateDraining, Channel: channel, Segment: segment, Err: err}
	}

	if err := s.SelectChannel(ctx, channel); err != nil {
		return fail(0, err)
	}
	if err := o.writeLines(ctx, s, s.Dialect.ExportSetup()); err != nil {
		return fail(0, err)
	}

	resp, err := s.Instrument.Query(ctx, s.Dialect.PreambleQuery())
	if err != nil {
		return fail(0, err)
	}
	info, err := s.Dialect.ParsePreamble(resp)
	if err != nil {
		return fail(0, err)
	}
	segmentX, err := waveform.GenerateXAxis(info)
	if err != nil {
		return fail(0, err)
	}

	out := DrainOutput{
		Info:     info,
		SegmentX: segmentX,
		TimeTags: make([]float64, 0, count),
		Y:        make([][]float64, 0, count),
	}
	for index := 1; index <= count; index++ {
		seg, err := o.readSegment(ctx, s, channel, index)
		if err != nil {
			return fail(index, err)
		}
		if len(seg.Samples) != len(segmentX) {
			return fail(index, fmt.Errorf("%w: %d samples for %d-point axis", schema.ErrShapeMismatch, len(seg.Samples), len(segmentX)))
		}
		out.TimeTags = append(out.TimeTags, seg.TimeTag)
		out.Y = append(out.Y, waveform.ScaleSamples(seg.Samples, info))
	}
	return out, nil
}

// readSegment selects one segment and reads its time tag and raw samples.
func (o *Orchestrator) readSegment(ctx context.Context, s *Session, channel, index int) (schema.RawSegment, error) {
	if err := s.SelectSegment(ctx, index); err != nil {
		return schema.RawSegment{}, err
	}
	resp, err := s.Instrument.Query(ctx, s.Dialect.TimeTagQuery())
	if err != nil {
		return schema.RawSegment{}, err
	}
	tag, err := strconv.ParseFloat(strings.TrimSpace(resp), 64)
	if err != nil {
		return schema.RawSegment{}, fmt.Errorf("%w: time tag %q", schema.ErrInvalidMetadata, resp)
	}
	samples, err := s.Instrument.QueryBinary(ctx, s.Dialect.DataQuery(channel))
	if err != nil {
		return schema.RawSegment{}, err
	}
	return schema.RawSegment{Index: index, TimeTag: tag, Samples: samples}, nil
}

// Run performs a complete capture. Any failure aborts the run and returns a nil result
// with an *schema.AcquisitionError naming the stage, channel and segment.
func (o *Orchestrator) Run(ctx context.Context, s *Session, req Request) (*schema.AcquisitionResult, error) {
	o.setState(schema.StateIdle)

	if err := o.Configure(ctx, s, req); err != nil {
		return nil, err
	}
	if err := o.TriggerAndWait(ctx, s, req); err != nil {
		return nil, err
	}

	result := &schema.AcquisitionResult{
		Channels:  append([]int(nil), req.Channels...),
		Waveforms: make(map[int]schema.ReconstructedWaveform, len(req.Channels)),
		Params:    req.Params,
	}
	for _, ch := range req.Channels {
		drained, err := o.Drain(ctx, s, ch, req.Params.SegmentCount)
		if err != nil {
			return nil, err
		}
		w, err := waveform.Assemble(req.Params.Stitched, drained.SegmentX, drained.Y, drained.TimeTags, drained.Info)
		if err != nil {
			return nil, &schema.AcquisitionError{Stage: schema.StateDraining, Channel: ch, Err: err}
		}
		result.Waveforms[ch] = w
	}

	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	result.CollectedAt = now().UTC()
	o.setState(schema.StateComplete)
	return result, nil
}
