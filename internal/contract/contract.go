// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/hockijo/techconnect/schema"
)

// Writer sends a command that produces no response.
type Writer interface {
	Write(ctx context.Context, cmd string) error
}

// Querier sends a command and returns the text response with the terminator removed.
type Querier interface {
	Query(ctx context.Context, cmd string) (string, error)
}

// BinaryQuerier sends a command whose response is an IEEE 488.2 definite-length block
// of little-endian signed 16-bit samples.
type BinaryQuerier interface {
	QueryBinary(ctx context.Context, cmd string) ([]int16, error)
}

// Instrument is a connected device that supports every capability the orchestrator needs.
// Transport failures wrap schema.ErrTransport and deadline overruns wrap schema.ErrTimeout.
type Instrument interface {
	Writer
	Querier
	BinaryQuerier
	Close() error
}

// ScopeDialect formats vendor specific oscilloscope commands.
// Implementations are pure formatters and hold no connection state.
type ScopeDialect interface {
	// Name returns the dialect identifier.
	Name() schema.DialectName

	// --- Configuration ---

	// Autoscale returns the commands that let the scope pick its own scales.
	Autoscale() []string

	// TriggerSetup returns the commands that arm an external positive-edge trigger.
	TriggerSetup() []string

	// SegmentedEnable returns the commands that prepare one channel for segmented capture.
	SegmentedEnable(channel int) []string

	// Timebase returns the commands that set the horizontal scale in seconds per division.
	Timebase(scale float64) []string

	// Segmented returns the commands that select segmented mode with the given count and mode.
	Segmented(count int, mode schema.AcquisitionMode) []string

	// Digitize returns the command that starts a capture on the given channels.
	Digitize(channels []int) string

	// --- Readout ---

	// SourceSelect returns the command that makes a channel the waveform source.
	SourceSelect(channel int) string

	// ExportSetup returns the commands that select word-format, LSB-first export
	// for the current source.
	ExportSetup() []string

	// PreambleQuery returns the query whose response ParsePreamble understands.
	PreambleQuery() string

	// ParsePreamble converts a preamble response into channel metadata.
	ParsePreamble(resp string) (schema.ChannelInfo, error)

	// SelectSegment returns the command that makes a 1-based segment current.
	SelectSegment(index int) string

	// TimeTagQuery returns the query for the current segment's time tag.
	TimeTagQuery() string

	// DataQuery returns the binary query for the current segment of a channel.
	DataQuery(channel int) string

	// SampleRateQuery returns the query for the current sample rate in samples per second.
	SampleRateQuery() string

	// PointsQuery returns the query for the number of points per segment.
	PointsQuery() string

	// --- Diagnostics ---

	// IdentityQuery returns the identification query.
	IdentityQuery() string

	// ErrorQuery returns the query that pops the instrument error queue.
	ErrorQuery() string
}

// RampDialect formats the commands that drive a function generator with a ramp.
type RampDialect interface {
	Reset() []string
	Ramp(channel int, frequency, amplitude, offset float64) []string
	Output(channel int, on bool) string
	ApplyQuery(channel int) string
}

// StoreManager provides the configured acquisition store.
// This allows the store layer to be mocked for testing.
type StoreManager interface {
	GetAcquisitionStore() AcquisitionStore
}

// AcquisitionStore persists acquisition results and their analysis.
type AcquisitionStore interface {
	// StoreRun writes a result with its provenance and returns the new run ID.
	StoreRun(ctx context.Context, result *schema.AcquisitionResult, provenance map[string]string) (int64, error)

	// LoadRun reconstructs a stored result.
	LoadRun(ctx context.Context, runID int64) (*schema.AcquisitionResult, error)

	// RecordFinesse stores the per-segment outcome of a finesse measurement.
	RecordFinesse(ctx context.Context, runID int64, summary schema.FinesseSummary) error

	// ListRuns returns every stored run in ID order.
	ListRuns(ctx context.Context) ([]schema.RunRecord, error)

	// ListChannels returns every stored channel metadata row.
	ListChannels(ctx context.Context) ([]schema.ChannelRecord, error)

	// ListSegments returns every stored segment row.
	ListSegments(ctx context.Context) ([]schema.SegmentRecord, error)

	// ListFinesse returns every stored finesse row.
	ListFinesse(ctx context.Context) ([]schema.FinesseRecord, error)

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// Publisher forwards summaries to an external consumer.
type Publisher interface {
	Publish(topic string, payload any) error
	Close()
}
