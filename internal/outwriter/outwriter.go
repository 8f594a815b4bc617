// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteAcquisition prints an acquisition summary using the configured output format.
func (ow *OutWriter) WriteAcquisition(result *schema.AcquisitionResult, runID int64, cfg *contract.Config, duration time.Duration) error {
	return PrintAcquisition(result, runID, cfg, duration)
}

// WriteFinesse prints per-segment finesse results using the configured output format.
func (ow *OutWriter) WriteFinesse(summary schema.FinesseSummary, runID int64, cfg *contract.Config, duration time.Duration) error {
	return PrintFinesse(summary, runID, cfg, duration)
}

// WriteRuns prints stored runs using the configured output format.
func (ow *OutWriter) WriteRuns(runs []schema.RunRecord, cfg *contract.Config) error {
	return PrintRuns(runs, cfg)
}

// WriteRamp prints an applied ramp drive using the configured output format.
func (ow *OutWriter) WriteRamp(report RampReport, cfg *contract.Config) error {
	return PrintRamp(report, cfg)
}

// GetMaxTableTextWidth calculates the maximum width for free-text columns in table output
// based on terminal width.
func GetMaxTableTextWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Run, Collected, Mode, Window, Segments, Stitched and Channels with borders/padding
	baseWidth := 90

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 60 {
		return 60
	}
	return available
}

// truncate shortens s to width runes, marking the cut with "...".
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
