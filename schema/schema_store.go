package schema

import "time"

// RunRecord represents a row from the acquisition_runs table.
type RunRecord struct {
	RunID        int64           `json:"run_id"`
	CollectedAt  time.Time       `json:"collected_at"`
	Mode         AcquisitionMode `json:"mode"`
	TimeWindow   float64         `json:"time_window"`
	SegmentCount int             `json:"segment_count"`
	Stitched     bool            `json:"stitched"`
	Channels     string          `json:"channels"`             // Comma-separated channel list in request order
	Identity     *string         `json:"identity,omitempty"`   // *IDN? response, when recorded
	Provenance   *string         `json:"provenance,omitempty"` // JSON-encoded provenance map
}

// ChannelRecord represents a row from the acquisition_channels table.
type ChannelRecord struct {
	RunID    int64
	Channel  int
	Position int // Position of the channel in the caller's request
	Info     ChannelInfo
}

// SegmentRecord represents a row from the acquisition_segments table.
// Samples are the scaled values of one segment; stitched traces are stored per segment too.
type SegmentRecord struct {
	RunID   int64
	Channel int
	Segment int
	TimeTag float64
	Samples []float64
}

// FinesseRecord represents a row from the finesse_results table.
type FinesseRecord struct {
	RunID      int64
	Segment    int
	FSR        *float64
	FWHM       *float64
	Finesse    *float64
	Error      *string
	AnalyzedAt time.Time
}

// StoreStatus represents status information about the acquisition store.
type StoreStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int64            `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id,omitempty"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}
