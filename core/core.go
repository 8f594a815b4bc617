// Package core has the top level workflows: acquisition, finesse analysis and ramp drive.
package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hockijo/techconnect/core/acquire"
	"github.com/hockijo/techconnect/core/finesse"
	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/internal/dialect"
	"github.com/hockijo/techconnect/internal/outwriter"
	"github.com/hockijo/techconnect/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteAcquire captures the configured channels, stores the run and prints a summary.
// It serves as the main entry point for the 'acquire' command.
func ExecuteAcquire(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	result, err := Acquire(ctx, cfg)
	if err != nil {
		return err
	}
	runID := storeResult(ctx, mgr, result)
	publishMessage(cfg, "acquisition", newAcquisitionMessage(result, runID))

	duration := time.Since(start)
	return outwriter.NewOutWriter().WriteAcquisition(result, runID, cfg, duration)
}

// ExecuteFinesse measures the finesse of a stored run, or of a fresh acquisition
// when no run ID is configured, and records the per-segment outcome.
// It serves as the main entry point for the 'finesse' command.
func ExecuteFinesse(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	fc := finesseChannels(cfg.Finesse)
	logFinesseHeader(ctx, fc, cfg.RunID)

	var (
		summary schema.FinesseSummary
		runID   int64
		err     error
	)
	if cfg.RunID > 0 {
		runID = cfg.RunID
		summary, err = MeasureStoredRun(ctx, cfg, mgr, runID)
	} else {
		acqCfg := cfg.Clone()
		acqCfg.Channels = withFinesseChannels(cfg.Channels, fc)
		var result *schema.AcquisitionResult
		result, err = Acquire(ctx, acqCfg)
		if err != nil {
			return err
		}
		runID = storeResult(ctx, mgr, result)
		summary, err = Measure(result, cfg.Finesse)
		recordFinesse(ctx, mgr, runID, summary, err)
	}
	if err != nil && !errors.Is(err, schema.ErrNoValidSegments) {
		return err
	}
	publishMessage(cfg, "finesse", newFinesseMessage(summary, runID))

	duration := time.Since(start)
	if writeErr := outwriter.NewOutWriter().WriteFinesse(summary, runID, cfg, duration); writeErr != nil {
		return writeErr
	}
	return err
}

// ExecuteRamp programs the function generator with the configured ramp and switches
// its output on. It serves as the main entry point for the 'ramp' command.
func ExecuteRamp(ctx context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	inst, err := openInstrument(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to function generator: %w", err)
	}
	defer func() { _ = inst.Close() }()

	gen := dialect.DG1000{}
	ch := cfg.Ramp.Channel
	amplitude, offset := dialect.RampLevels(cfg.Ramp.V1, cfg.Ramp.V2)

	lines := gen.Reset()
	lines = append(lines, gen.Ramp(ch, cfg.Ramp.Frequency, amplitude, offset)...)
	lines = append(lines, gen.Output(ch, true))
	for _, line := range lines {
		if err := inst.Write(ctx, line); err != nil {
			return fmt.Errorf("failed to send %q: %w", line, err)
		}
		sleep(cfg.LineDelay)
	}

	applied, err := inst.Query(ctx, gen.ApplyQuery(ch))
	if err != nil {
		return fmt.Errorf("failed to read back ramp settings: %w", err)
	}
	return outwriter.NewOutWriter().WriteRamp(outwriter.RampReport{
		Channel:   ch,
		Frequency: cfg.Ramp.Frequency,
		Amplitude: amplitude,
		Offset:    offset,
		Applied:   applied,
	}, cfg)
}

// Acquire connects to the configured scope and performs one capture.
// With EstimateSegments set, the segment count is derived from the scope's sample
// rate so that the segments cover AcqTime.
func Acquire(ctx context.Context, cfg *contract.Config) (*schema.AcquisitionResult, error) {
	scopeDialect, err := dialect.ForScope(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	inst, err := openInstrument(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to instrument: %w", err)
	}
	defer func() { _ = inst.Close() }()

	session := &acquire.Session{Instrument: inst, Dialect: scopeDialect, LineDelay: cfg.LineDelay}
	identity, err := session.Identify(ctx)
	if err != nil {
		contract.LogWarn("Could not identify instrument", err)
	}

	params := cfg.Params
	if cfg.EstimateSegments {
		if params, err = estimateParams(ctx, session, cfg); err != nil {
			return nil, err
		}
	}
	logAcquireHeader(ctx, cfg, params)

	orch := acquire.New(acquire.DefaultTimingPolicy().WithOverrides(cfg.Timing))
	orch.Sleep = sleep
	if !shouldSuppressHeader(ctx) {
		orch.Observer = logState
	}

	result, err := orch.Run(ctx, session, acquire.Request{
		Channels:  cfg.Channels,
		Params:    params,
		Autoscale: cfg.Autoscale,
	})
	if err != nil {
		return nil, err
	}
	if err := session.CheckError(ctx); err != nil {
		contract.LogWarn("Instrument error queue is not empty", err)
	}
	result.Identity = identity
	return result, nil
}

// estimateParams sizes a stitched capture from the scope's current setup.
func estimateParams(ctx context.Context, session *acquire.Session, cfg *contract.Config) (schema.AcquisitionParams, error) {
	params := cfg.Params
	n, err := session.EstimateSegmentCount(ctx, cfg.AcqTime)
	if err != nil {
		return params, fmt.Errorf("failed to estimate segment count: %w", err)
	}
	if n > contract.MaxSegments {
		contract.LogWarn("Segment estimate exceeds the scope limit",
			fmt.Errorf("%d segments needed, capturing %d longer segments", n, contract.MaxSegments))
		n = contract.MaxSegments
	}
	params.SegmentCount = n
	params.TimeWindow = cfg.AcqTime / float64(n)
	params.Stitched = true
	return params, params.Validate()
}

// MeasureStoredRun loads a run, measures its finesse and records the outcome.
// A summary is returned alongside ErrNoValidSegments so callers can report the failures.
func MeasureStoredRun(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, runID int64) (schema.FinesseSummary, error) {
	s := getStore(mgr)
	if s == nil {
		return schema.FinesseSummary{}, errors.New("acquisition store is not initialized")
	}
	result, err := s.LoadRun(ctx, runID)
	if err != nil {
		return schema.FinesseSummary{}, fmt.Errorf("failed to load run %d: %w", runID, err)
	}
	summary, err := Measure(result, cfg.Finesse)
	recordFinesse(ctx, mgr, runID, summary, err)
	return summary, err
}

// Measure runs the finesse analysis on the scan and response channels of a result.
func Measure(result *schema.AcquisitionResult, cfg contract.FinesseConfig) (schema.FinesseSummary, error) {
	fc := finesseChannels(cfg)
	scan, ok := result.Waveforms[fc.ScanChannel]
	if !ok {
		return schema.FinesseSummary{}, fmt.Errorf("scan channel %d was not acquired (channels: %s)", fc.ScanChannel, joinChannels(result.Channels))
	}
	response, ok := result.Waveforms[fc.ResponseChannel]
	if !ok {
		return schema.FinesseSummary{}, fmt.Errorf("response channel %d was not acquired (channels: %s)", fc.ResponseChannel, joinChannels(result.Channels))
	}
	return finesse.MeasureOverSegments(scan, response, FinesseOptions(cfg))
}

// FinesseOptions maps the configured analysis knobs onto finesse.Options.
// An unset threshold fraction, direction or target length keeps the analysis default.
func FinesseOptions(cfg contract.FinesseConfig) finesse.Options {
	opts := finesse.DefaultOptions()
	opts.Cutoff = cfg.Cutoff
	opts.Threshold = cfg.Threshold
	opts.PeakHeight = cfg.PeakHeight
	opts.PairIndex = cfg.PairIndex
	if cfg.ThresholdFraction > 0 {
		opts.ThresholdFraction = cfg.ThresholdFraction
	}
	if cfg.Direction != "" {
		opts.Direction = cfg.Direction
	}
	if cfg.TargetLength > 0 {
		opts.TargetLength = cfg.TargetLength
	}
	return opts
}

// finesseChannels fills in the default scan and response channels.
func finesseChannels(cfg contract.FinesseConfig) contract.FinesseConfig {
	if cfg.ScanChannel == 0 {
		cfg.ScanChannel = contract.DefaultScanChannel
	}
	if cfg.ResponseChannel == 0 {
		cfg.ResponseChannel = contract.DefaultRespChannel
	}
	return cfg
}

// withFinesseChannels appends the scan and response channels when they are missing.
func withFinesseChannels(channels []int, fc contract.FinesseConfig) []int {
	out := slices.Clone(channels)
	for _, ch := range []int{fc.ScanChannel, fc.ResponseChannel} {
		if !slices.Contains(out, ch) {
			out = append(out, ch)
		}
	}
	return out
}

// getStore returns the configured store, tolerating a nil manager.
func getStore(mgr contract.StoreManager) contract.AcquisitionStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetAcquisitionStore()
}

// storeResult persists a result and returns its run ID, or 0 when nothing was stored.
// Store failures are reported but do not discard the acquisition.
func storeResult(ctx context.Context, mgr contract.StoreManager, result *schema.AcquisitionResult) int64 {
	s := getStore(mgr)
	if s == nil {
		return 0
	}
	runID, err := s.StoreRun(ctx, result, result.Provenance())
	if err != nil {
		contract.LogWarn("Failed to store acquisition", err)
		return 0
	}
	return runID
}

// recordFinesse stores a measurement unless it failed before producing segments.
func recordFinesse(ctx context.Context, mgr contract.StoreManager, runID int64, summary schema.FinesseSummary, measureErr error) {
	s := getStore(mgr)
	if s == nil || runID == 0 || len(summary.Segments) == 0 {
		return
	}
	if measureErr != nil && !errors.Is(measureErr, schema.ErrNoValidSegments) {
		return
	}
	if err := s.RecordFinesse(ctx, runID, summary); err != nil {
		contract.LogWarn("Failed to record finesse results", err)
	}
}
