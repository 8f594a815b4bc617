// Package parquet provides data structures and functions for exporting stored
// acquisitions to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hockijo/techconnect/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single acquisition run.
// This struct maps to the acquisition_runs database table.
type Run struct {
	RunID        int64     `parquet:"run_id,snappy"`
	CollectedAt  time.Time `parquet:"collected_at,snappy"`
	Mode         string    `parquet:"acquisition_mode,dict,snappy"`
	TimeWindow   float64   `parquet:"time_window,snappy"`
	SegmentCount int32     `parquet:"segment_count,snappy"`
	Stitched     bool      `parquet:"stitched,snappy"`
	Channels     string    `parquet:"channels,snappy"`

	// Identity is the instrument identification string (nullable)
	Identity *string `parquet:"identity,optional,snappy"`

	// Provenance contains the JSON-encoded provenance map (nullable)
	Provenance *string `parquet:"provenance,optional,snappy"`
}

// Channel holds the metadata of one channel in a run.
// This struct maps to the acquisition_channels database table.
type Channel struct {
	RunID        int64   `parquet:"run_id,snappy"`
	Channel      int32   `parquet:"channel,snappy"`
	Position     int32   `parquet:"position,snappy"`
	Format       int32   `parquet:"format,snappy"`
	WaveformType int32   `parquet:"waveform_type,snappy"`
	Points       int32   `parquet:"points,snappy"`
	Count        int32   `parquet:"average_count,snappy"`
	XIncrement   float64 `parquet:"x_increment,snappy"`
	XOrigin      float64 `parquet:"x_origin,snappy"`
	XReference   float64 `parquet:"x_reference,snappy"`
	YIncrement   float64 `parquet:"y_increment,snappy"`
	YOrigin      float64 `parquet:"y_origin,snappy"`
	YReference   float64 `parquet:"y_reference,snappy"`
}

// Segment holds the scaled samples of one segment as a repeated column.
// This struct maps to the acquisition_segments database table.
type Segment struct {
	RunID   int64     `parquet:"run_id,snappy"`
	Channel int32     `parquet:"channel,snappy"`
	Segment int32     `parquet:"segment,snappy"`
	TimeTag float64   `parquet:"time_tag,snappy"`
	Samples []float64 `parquet:"samples,list,snappy"`
}

// Finesse holds one per-segment finesse outcome.
// Exactly one of the metric columns or Error is set.
type Finesse struct {
	RunID      int64     `parquet:"run_id,snappy"`
	Segment    int32     `parquet:"segment,snappy"`
	FSR        *float64  `parquet:"fsr,optional,snappy"`
	FWHM       *float64  `parquet:"fwhm,optional,snappy"`
	Finesse    *float64  `parquet:"finesse,optional,snappy"`
	Error      *string   `parquet:"error,optional,snappy"`
	AnalyzedAt time.Time `parquet:"analyzed_at,snappy"`
}

// writeParquet writes rows of T to outputPath using struct schema inference.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteChannelsParquet writes channel metadata to a Parquet file.
func WriteChannelsParquet(data []Channel, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteSegmentsParquet writes segments to a Parquet file.
func WriteSegmentsParquet(data []Segment, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFinesseParquet writes finesse results to a Parquet file.
func WriteFinesseParquet(data []Finesse, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ReadParquet reads every row of a Parquet file written by this package.
func ReadParquet[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}
	return rows[:n], nil
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, r := range records {
		result[i] = Run{
			RunID:        r.RunID,
			CollectedAt:  r.CollectedAt,
			Mode:         string(r.Mode),
			TimeWindow:   r.TimeWindow,
			SegmentCount: int32(r.SegmentCount),
			Stitched:     r.Stitched,
			Channels:     r.Channels,
			Identity:     r.Identity,
			Provenance:   r.Provenance,
		}
	}
	return result
}

// ConvertChannelRecords converts schema.ChannelRecord to Channel for Parquet export.
func ConvertChannelRecords(records []schema.ChannelRecord) []Channel {
	result := make([]Channel, len(records))
	for i, r := range records {
		result[i] = Channel{
			RunID:        r.RunID,
			Channel:      int32(r.Channel),
			Position:     int32(r.Position),
			Format:       int32(r.Info.Format),
			WaveformType: int32(r.Info.WaveformType),
			Points:       int32(r.Info.Points),
			Count:        int32(r.Info.Count),
			XIncrement:   r.Info.XIncrement,
			XOrigin:      r.Info.XOrigin,
			XReference:   r.Info.XReference,
			YIncrement:   r.Info.YIncrement,
			YOrigin:      r.Info.YOrigin,
			YReference:   r.Info.YReference,
		}
	}
	return result
}

// ConvertSegmentRecords converts schema.SegmentRecord to Segment for Parquet export.
func ConvertSegmentRecords(records []schema.SegmentRecord) []Segment {
	result := make([]Segment, len(records))
	for i, r := range records {
		result[i] = Segment{
			RunID:   r.RunID,
			Channel: int32(r.Channel),
			Segment: int32(r.Segment),
			TimeTag: r.TimeTag,
			Samples: r.Samples,
		}
	}
	return result
}

// ConvertFinesseRecords converts schema.FinesseRecord to Finesse for Parquet export.
func ConvertFinesseRecords(records []schema.FinesseRecord) []Finesse {
	result := make([]Finesse, len(records))
	for i, r := range records {
		result[i] = Finesse{
			RunID:      r.RunID,
			Segment:    int32(r.Segment),
			FSR:        r.FSR,
			FWHM:       r.FWHM,
			Finesse:    r.Finesse,
			Error:      r.Error,
			AnalyzedAt: r.AnalyzedAt,
		}
	}
	return result
}
