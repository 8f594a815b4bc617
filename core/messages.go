package core

import (
	"time"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/internal/outwriter"
	"github.com/hockijo/techconnect/internal/publish"
	"github.com/hockijo/techconnect/schema"
)

// AcquisitionMessage is the summary published after a capture.
// Samples stay in the store; subscribers fetch them by run ID.
type AcquisitionMessage struct {
	RunID       int64                      `json:"run_id,omitempty"`
	CollectedAt time.Time                  `json:"collected_at"`
	Identity    string                     `json:"identity,omitempty"`
	Params      schema.AcquisitionParams   `json:"params"`
	Channels    []outwriter.ChannelSummary `json:"channels"`
}

// FinesseMessage is the summary published after a measurement.
type FinesseMessage struct {
	RunID    int64      `json:"run_id,omitempty"`
	Average  float64    `json:"average"`
	Valid    int        `json:"valid"`
	Segments int        `json:"segments"`
	Finesse  []*float64 `json:"finesse"` // Per segment; null where the segment failed
}

func newAcquisitionMessage(result *schema.AcquisitionResult, runID int64) AcquisitionMessage {
	msg := AcquisitionMessage{
		RunID:       runID,
		CollectedAt: result.CollectedAt,
		Identity:    result.Identity,
		Params:      result.Params,
		Channels:    make([]outwriter.ChannelSummary, 0, len(result.Channels)),
	}
	for _, ch := range result.Channels {
		msg.Channels = append(msg.Channels, outwriter.SummarizeChannel(ch, result.Waveforms[ch]))
	}
	return msg
}

func newFinesseMessage(summary schema.FinesseSummary, runID int64) FinesseMessage {
	msg := FinesseMessage{
		RunID:    runID,
		Average:  summary.Average,
		Valid:    summary.Valid,
		Segments: len(summary.Segments),
		Finesse:  make([]*float64, len(summary.Segments)),
	}
	for i, seg := range summary.Segments {
		if seg.OK() {
			v := seg.Result.Finesse
			msg.Finesse[i] = &v
		}
	}
	return msg
}

// publishMessage forwards a summary to the configured broker.
// Publishing is best effort: failures are logged and never abort a command.
func publishMessage(cfg *contract.Config, kind string, payload any) {
	pub, err := newPublisher(cfg)
	if err != nil {
		contract.LogWarn("Failed to connect to MQTT broker", err)
		return
	}
	defer pub.Close()

	if err := pub.Publish(publish.Topic(cfg.MQTTTopic, kind), payload); err != nil {
		contract.LogWarn("Failed to publish "+kind+" summary", err)
	}
}
