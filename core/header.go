package core

import (
	"context"
	"strconv"
	"strings"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
)

// logAcquireHeader prints a concise, 2-line header before a capture.
func logAcquireHeader(ctx context.Context, cfg *contract.Config, params schema.AcquisitionParams) {
	if shouldSuppressHeader(ctx) {
		return
	}
	address := cfg.Address
	if address == "" {
		address = string(cfg.Transport)
	}

	// Line 1: where the samples come from
	contract.LogInfo("🔎 Instrument: %s via %s (dialect: %s)", address, cfg.Transport, cfg.Dialect)

	// Line 2: what is being captured
	contract.LogInfo("📈 Channels: %s, %d x %gs segments (mode: %s, stitched: %t)",
		joinChannels(cfg.Channels), params.SegmentCount, params.TimeWindow, params.Mode, params.Stitched)
}

// logFinesseHeader prints the channel pairing used by a measurement.
func logFinesseHeader(ctx context.Context, fc contract.FinesseConfig, runID int64) {
	if shouldSuppressHeader(ctx) {
		return
	}
	source := "new acquisition"
	if runID > 0 {
		source = "run " + strconv.FormatInt(runID, 10)
	}
	contract.LogInfo("🔬 Finesse: scan channel %d, response channel %d (%s, direction: %s)",
		fc.ScanChannel, fc.ResponseChannel, source, fc.Direction)
}

// logState reports a run state change.
func logState(state schema.RunState) {
	contract.LogInfo("  … %s", state)
}

func joinChannels(channels []int) string {
	parts := make([]string, len(channels))
	for i, ch := range channels {
		parts[i] = strconv.Itoa(ch)
	}
	return strings.Join(parts, ",")
}
