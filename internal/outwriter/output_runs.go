package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintRuns outputs stored runs, dispatching based on the output format configured.
func PrintRuns(runs []schema.RunRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON runs"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteRunsCSV(w, runs)
		}, "Wrote CSV runs"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := WriteRunsTable(os.Stdout, runs, cfg); err != nil {
			return fmt.Errorf("error writing runs table output: %w", err)
		}
	}
	return nil
}

// WriteRunsTable prints one row per stored run.
func WriteRunsTable(w io.Writer, runs []schema.RunRecord, cfg *contract.Config) error {
	_, fmtSci := createFormatters(cfg.Precision)
	textWidth := GetMaxTableTextWidth(cfg)
	table := tablewriter.NewWriter(w)

	table.Header([]string{"Run", "Collected", "Mode", "Window (s)", "Segments", "Stitched", "Channels", "Instrument"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range runs {
		identity := ""
		if r.Identity != nil {
			identity = truncate(*r.Identity, textWidth)
		}
		data = append(data, []string{
			strconv.FormatInt(r.RunID, 10),
			r.CollectedAt.Format(contract.DateTimeFormat),
			string(r.Mode),
			fmtSci(r.TimeWindow),
			strconv.Itoa(r.SegmentCount),
			strconv.FormatBool(r.Stitched),
			r.Channels,
			identity,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Showing %d runs. Store backend: %s\n", len(runs), cfg.StoreBackend)
	return nil
}

// WriteRunsCSV writes one row per stored run.
func WriteRunsCSV(w io.Writer, runs []schema.RunRecord) error {
	header := []string{"run_id", "collected_at", "mode", "time_window", "segment_count", "stitched", "channels", "identity"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range runs {
			identity := ""
			if r.Identity != nil {
				identity = *r.Identity
			}
			if err := cw.Write([]string{
				strconv.FormatInt(r.RunID, 10),
				r.CollectedAt.Format(contract.DateTimeFormat),
				string(r.Mode),
				strconv.FormatFloat(r.TimeWindow, 'g', -1, 64),
				strconv.Itoa(r.SegmentCount),
				strconv.FormatBool(r.Stitched),
				r.Channels,
				identity,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
