package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/hockijo/techconnect/core/algo"
	"github.com/hockijo/techconnect/core/waveform"
	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// ChannelSummary condenses one reconstructed channel for reports.
type ChannelSummary struct {
	Channel    int     `json:"channel"`
	Segments   int     `json:"segments"`
	Points     int     `json:"points"` // Samples per segment, doubled for peak-detect
	XIncrement float64 `json:"x_increment"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Mean       float64 `json:"mean"`
}

// SummarizeChannel computes the report row of a waveform.
func SummarizeChannel(channel int, w schema.ReconstructedWaveform) ChannelSummary {
	s := ChannelSummary{
		Channel:    channel,
		Segments:   w.Segments(),
		XIncrement: w.Info.XIncrement,
		Min:        math.Inf(1),
		Max:        math.Inf(-1),
	}
	s.Points = len(w.X)
	if w.Stitched && s.Segments > 0 {
		s.Points = len(w.X) / s.Segments
	}

	var total float64
	var n int
	for _, row := range w.Y {
		for _, v := range row {
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
		total += algo.Mean(row) * float64(len(row))
		n += len(row)
	}
	if n == 0 {
		s.Min, s.Max = 0, 0
		return s
	}
	s.Mean = total / float64(n)
	return s
}

// PrintAcquisition outputs an acquisition, dispatching based on the output format configured.
func PrintAcquisition(result *schema.AcquisitionResult, runID int64, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteAcquisitionJSON(w, result, runID)
		}, "Wrote JSON acquisition"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteAcquisitionCSV(w, result, cfg)
		}, "Wrote CSV acquisition"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := WriteAcquisitionTable(os.Stdout, result, runID, cfg, duration); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

// WriteAcquisitionTable prints one summary row per channel in request order.
func WriteAcquisitionTable(w io.Writer, result *schema.AcquisitionResult, runID int64, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, fmtSci := createFormatters(cfg.Precision)
	table := tablewriter.NewWriter(w)

	table.Header([]string{"Channel", "Segments", "Points", "dt (s)", "Min (V)", "Max (V)", "Mean (V)"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, ch := range result.Channels {
		s := SummarizeChannel(ch, result.Waveforms[ch])
		data = append(data, []string{
			strconv.Itoa(s.Channel),
			strconv.Itoa(s.Segments),
			strconv.Itoa(s.Points),
			fmtSci(s.XIncrement),
			fmtFloat(s.Min),
			fmtFloat(s.Max),
			fmtFloat(s.Mean),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	p := result.Params
	_, _ = fmt.Fprintf(w, "Acquired %d segments of %ss in %s mode (stitched: %t)\n",
		p.SegmentCount, fmtSci(p.TimeWindow), p.Mode, p.Stitched)
	if result.Identity != "" {
		_, _ = fmt.Fprintf(w, "Instrument: %s\n", result.Identity)
	}
	if runID > 0 {
		_, _ = fmt.Fprintf(w, "Stored as run %d. Store backend: %s\n", runID, cfg.StoreBackend)
	}
	_, _ = fmt.Fprintf(w, "Acquisition completed in %v\n", duration)
	return nil
}

// WriteAcquisitionJSON writes the full result, waveforms included.
func WriteAcquisitionJSON(w io.Writer, result *schema.AcquisitionResult, runID int64) error {
	type channelJSON struct {
		ChannelSummary
		Waveform schema.ReconstructedWaveform `json:"waveform"`
	}
	type acquisitionJSON struct {
		RunID       int64                    `json:"run_id,omitempty"`
		Params      schema.AcquisitionParams `json:"params"`
		CollectedAt time.Time                `json:"collected_at"`
		Identity    string                   `json:"identity,omitempty"`
		Channels    []channelJSON            `json:"channels"`
	}

	out := acquisitionJSON{
		RunID:       runID,
		Params:      result.Params,
		CollectedAt: result.CollectedAt,
		Identity:    result.Identity,
		Channels:    make([]channelJSON, 0, len(result.Channels)),
	}
	for _, ch := range result.Channels {
		wf := result.Waveforms[ch]
		out.Channels = append(out.Channels, channelJSON{ChannelSummary: SummarizeChannel(ch, wf), Waveform: wf})
	}
	return writeJSON(w, out)
}

// WriteAcquisitionCSV writes one row per sample in long form.
// Stitched waveforms are written per segment with their original time tags.
func WriteAcquisitionCSV(w io.Writer, result *schema.AcquisitionResult, cfg *contract.Config) error {
	precision := cfg.Precision + 6
	header := []string{"channel", "segment", "time_tag", "x", "y"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, ch := range result.Channels {
			rows, err := waveform.Unstitch(result.Waveforms[ch])
			if err != nil {
				return fmt.Errorf("channel %d: %w", ch, err)
			}
			for i, y := range rows.Y {
				tag := strconv.FormatFloat(rows.TimeTags[i], 'g', precision, 64)
				for j, v := range y {
					if err := cw.Write([]string{
						strconv.Itoa(ch),
						strconv.Itoa(i + 1),
						tag,
						strconv.FormatFloat(rows.X[j]+rows.TimeTags[i], 'g', precision, 64),
						strconv.FormatFloat(v, 'g', precision, 64),
					}); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}
