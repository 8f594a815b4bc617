package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hockijo/techconnect/core"
	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// store returns the configured store, or nil.
func (h *toolHandler) store() contract.AcquisitionStore {
	if h.mgr == nil {
		return nil
	}
	return h.mgr.GetAcquisitionStore()
}

func (h *toolHandler) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s := h.store()
	if s == nil {
		return mcp.NewToolResultError("acquisition store is not initialized"), nil
	}
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}
	if l := request.GetInt("limit", 0); l > 0 && l < len(runs) {
		runs = runs[len(runs)-l:]
	}
	if runs == nil {
		runs = []schema.RunRecord{}
	}

	jsonData, _ := json.MarshalIndent(runs, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleMeasureFinesse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID := int64(request.GetInt("run_id", 0))
	if runID < 1 {
		return mcp.NewToolResultError("run_id must be a positive integer"), nil
	}

	cfg := h.baseCfg.Clone()
	if ch := request.GetInt("scan_channel", 0); ch > 0 {
		cfg.Finesse.ScanChannel = ch
	}
	if ch := request.GetInt("response_channel", 0); ch > 0 {
		cfg.Finesse.ResponseChannel = ch
	}
	if d := request.GetString("direction", ""); d != "" {
		direction := schema.Direction(d)
		if _, ok := schema.ValidDirections[direction]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid direction '%s'. must be forward, reverse, none", d)), nil
		}
		cfg.Finesse.Direction = direction
	}

	summary, err := core.MeasureStoredRun(core.WithSuppressHeader(ctx), cfg, h.mgr, runID)
	if err != nil && !errors.Is(err, schema.ErrNoValidSegments) {
		return mcp.NewToolResultError(fmt.Sprintf("finesse measurement failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(enrichSummary(summary, runID), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v\n%s", err, jsonData)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleStoreStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s := h.store()
	if s == nil {
		return mcp.NewToolResultError("acquisition store is not initialized"), nil
	}
	status, err := s.GetStatus()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get store status: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// segmentJSON is a per-segment outcome with its quality label.
type segmentJSON struct {
	Segment int     `json:"segment"`
	FSR     float64 `json:"fsr,omitempty"`
	FWHM    float64 `json:"fwhm,omitempty"`
	Finesse float64 `json:"finesse,omitempty"`
	Label   string  `json:"label"`
	Error   string  `json:"error,omitempty"`
}

// summaryJSON is the tool response for a finesse measurement.
type summaryJSON struct {
	RunID    int64         `json:"run_id"`
	Average  float64       `json:"average"`
	Valid    int           `json:"valid"`
	Segments []segmentJSON `json:"segments"`
}

func enrichSummary(summary schema.FinesseSummary, runID int64) summaryJSON {
	out := summaryJSON{RunID: runID, Average: summary.Average, Valid: summary.Valid, Segments: make([]segmentJSON, len(summary.Segments))}
	for i, seg := range summary.Segments {
		row := segmentJSON{Segment: seg.Segment, Label: contract.FailedValue}
		switch {
		case seg.OK():
			row.FSR, row.FWHM, row.Finesse = seg.Result.FSR, seg.Result.FWHM, seg.Result.Finesse
			row.Label = contract.GetPlainLabel(seg.Result.Finesse)
		case seg.Err != nil:
			row.Error = seg.Err.Error()
		}
		out.Segments[i] = row
	}
	return out
}
