package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// finesseLabel picks the plain or colored quality label of a segment.
func finesseLabel(seg schema.SegmentFinesse, useColors bool) string {
	value := 0.0
	if seg.OK() {
		value = seg.Result.Finesse
	}
	if useColors {
		return contract.GetColorLabel(value)
	}
	return contract.GetPlainLabel(value)
}

// segmentError returns the failure text of a segment, or "".
func segmentError(seg schema.SegmentFinesse) string {
	if seg.OK() || seg.Err == nil {
		return ""
	}
	return seg.Err.Error()
}

// PrintFinesse outputs a finesse summary, dispatching based on the output format configured.
func PrintFinesse(summary schema.FinesseSummary, runID int64, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteFinesseJSON(w, summary, runID)
		}, "Wrote JSON finesse results"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteFinesseCSV(w, summary, runID, cfg)
		}, "Wrote CSV finesse results"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := WriteFinesseTable(os.Stdout, summary, runID, cfg, duration); err != nil {
			return fmt.Errorf("error writing finesse table output: %w", err)
		}
	}
	return nil
}

// WriteFinesseTable prints one row per segment followed by the average.
func WriteFinesseTable(w io.Writer, summary schema.FinesseSummary, runID int64, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, fmtSci := createFormatters(cfg.Precision)
	table := tablewriter.NewWriter(w)

	table.Header([]string{"Segment", "FSR", "FWHM", "Finesse", "Label", "Error"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, seg := range summary.Segments {
		row := []string{strconv.Itoa(seg.Segment), "-", "-", "-", finesseLabel(seg, cfg.UseColors), segmentError(seg)}
		if seg.OK() {
			row[1] = fmtSci(seg.Result.FSR)
			row[2] = fmtSci(seg.Result.FWHM)
			row[3] = fmtFloat(seg.Result.Finesse)
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Average finesse: %s over %d of %d segments\n", fmtFloat(summary.Average), summary.Valid, len(summary.Segments))
	if runID > 0 {
		_, _ = fmt.Fprintf(w, "Run: %d\n", runID)
	}
	_, _ = fmt.Fprintf(w, "Analysis completed in %v\n", duration)
	return nil
}

// WriteFinesseJSON writes the summary with segment errors as text.
func WriteFinesseJSON(w io.Writer, summary schema.FinesseSummary, runID int64) error {
	type segmentJSON struct {
		schema.SegmentFinesse
		Label string `json:"label"`
		Error string `json:"error,omitempty"`
	}
	type summaryJSON struct {
		RunID    int64         `json:"run_id,omitempty"`
		Average  float64       `json:"average"`
		Valid    int           `json:"valid"`
		Segments []segmentJSON `json:"segments"`
	}

	out := summaryJSON{RunID: runID, Average: summary.Average, Valid: summary.Valid, Segments: make([]segmentJSON, len(summary.Segments))}
	for i, seg := range summary.Segments {
		out.Segments[i] = segmentJSON{SegmentFinesse: seg, Label: finesseLabel(seg, false), Error: segmentError(seg)}
	}
	return writeJSON(w, out)
}

// WriteFinesseCSV writes one row per segment. Failed segments leave the metric columns empty.
func WriteFinesseCSV(w io.Writer, summary schema.FinesseSummary, runID int64, cfg *contract.Config) error {
	fmtFloat, fmtSci := createFormatters(cfg.Precision)
	header := []string{"run_id", "segment", "fsr", "fwhm", "finesse", "label", "error"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, seg := range summary.Segments {
			row := []string{strconv.FormatInt(runID, 10), strconv.Itoa(seg.Segment), "", "", "", finesseLabel(seg, false), segmentError(seg)}
			if seg.OK() {
				row[2] = fmtSci(seg.Result.FSR)
				row[3] = fmtSci(seg.Result.FWHM)
				row[4] = fmtFloat(seg.Result.Finesse)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
