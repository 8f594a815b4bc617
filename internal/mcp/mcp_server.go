// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the techconnect MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Techconnect Acquisition Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: list_runs ---
	s.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List stored oscilloscope acquisition runs, newest last."),
		mcp.WithNumber("limit", mcp.Description("Only return the most recent runs.")),
	), h.handleListRuns)

	// --- 2. Tool: measure_finesse ---
	s.AddTool(mcp.NewTool("measure_finesse",
		mcp.WithDescription("Measure the cavity finesse of every segment of a stored run and record the result."),
		mcp.WithNumber("run_id", mcp.Description("ID of the stored run to analyze."), mcp.Required()),
		mcp.WithNumber("scan_channel", mcp.Description("Channel carrying the scan ramp.")),
		mcp.WithNumber("response_channel", mcp.Description("Channel carrying the cavity transmission.")),
		mcp.WithString("direction", mcp.Description("Ramp slope to analyze."), mcp.Enum("forward", "reverse", "none")),
	), h.handleMeasureFinesse)

	// --- 3. Tool: store_status ---
	s.AddTool(mcp.NewTool("store_status",
		mcp.WithDescription("Report the acquisition store backend, run count and table sizes."),
	), h.handleStoreStatus)

	return s
}

// StartMCPServer starts the techconnect MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
