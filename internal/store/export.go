package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/internal/parquet"
)

// ExportFiles lists the Parquet files written for an output prefix.
func ExportFiles(outputFile string) []string {
	return []string{
		outputFile + ".runs.parquet",
		outputFile + ".channels.parquet",
		outputFile + ".segments.parquet",
		outputFile + ".finesse.parquet",
	}
}

// ExportRuns writes every stored table to Parquet files named after outputFile.
func ExportRuns(ctx context.Context, s contract.AcquisitionStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if s == nil {
		return errors.New("acquisition store is not initialized")
	}

	status, err := s.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no acquisition data found to export")
	}
	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total acquisition runs: %d\n", status.TotalRuns)

	runs, err := s.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve acquisition runs: %w", err)
	}
	channels, err := s.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve channels: %w", err)
	}
	segments, err := s.ListSegments(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve segments: %w", err)
	}
	finesse, err := s.ListFinesse(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve finesse results: %w", err)
	}

	files := ExportFiles(outputFile)
	steps := []struct {
		label string
		count int
		write func(string) error
	}{
		{"acquisition runs", len(runs), func(p string) error { return parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), p) }},
		{"channel records", len(channels), func(p string) error {
			return parquet.WriteChannelsParquet(parquet.ConvertChannelRecords(channels), p)
		}},
		{"segment records", len(segments), func(p string) error {
			return parquet.WriteSegmentsParquet(parquet.ConvertSegmentRecords(segments), p)
		}},
		{"finesse records", len(finesse), func(p string) error {
			return parquet.WriteFinesseParquet(parquet.ConvertFinesseRecords(finesse), p)
		}},
	}
	for i, step := range steps {
		if err := step.write(files[i]); err != nil {
			return fmt.Errorf("failed to write %s: %w", step.label, err)
		}
		_, _ = fmt.Fprintf(w, "Exported %d %s to: %s\n", step.count, step.label, files[i])
	}

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - DuckDB")
	_, _ = fmt.Fprintln(w, "  - Any other Parquet-compatible tool")
	return nil
}
