package core

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hockijo/techconnect/core/finesse"
	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/internal/store"
	"github.com/hockijo/techconnect/internal/transport"
	"github.com/hockijo/techconnect/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every published payload.
type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads []any
	closed   int
}

func (p *recordingPublisher) Publish(topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
}

// stubHooks replaces the package hooks for the duration of a test.
// The returned simulator is handed out by every instrument connection.
func stubHooks(t *testing.T) (*transport.Simulator, *recordingPublisher) {
	t.Helper()
	sim := transport.NewSimulator(contract.DefaultScanChannel)
	pub := &recordingPublisher{}

	origOpen, origPub, origSleep := openInstrument, newPublisher, sleep
	t.Cleanup(func() {
		openInstrument, newPublisher, sleep = origOpen, origPub, origSleep
	})
	openInstrument = func(context.Context, *contract.Config) (contract.Instrument, error) {
		return sim, nil
	}
	newPublisher = func(*contract.Config) (contract.Publisher, error) { return pub, nil }
	sleep = func(time.Duration) {}
	return sim, pub
}

func simConfig(t *testing.T) *contract.Config {
	t.Helper()
	return &contract.Config{
		Transport: schema.SimulatorTransport,
		Dialect:   schema.KeysightDialect,
		Timeout:   time.Second,
		Channels:  []int{1, 2},
		Params:    schema.AcquisitionParams{TimeWindow: 0.002, SegmentCount: 3, Mode: schema.NormalMode},
		Finesse: contract.FinesseConfig{
			Cutoff:            finesse.DefaultCutoff,
			Threshold:         finesse.Auto,
			ThresholdFraction: finesse.DefaultThresholdFraction,
			Direction:         schema.ForwardDirection,
			PeakHeight:        finesse.Auto,
			TargetLength:      finesse.DefaultTargetLength,
			ScanChannel:       1,
			ResponseChannel:   2,
		},
		Ramp:         contract.RampConfig{Channel: 1, Frequency: 100, V1: 1, V2: 3},
		StoreBackend: schema.SQLiteBackend,
		Output:       schema.JSONOut,
		OutputFile:   filepath.Join(t.TempDir(), "out.json"),
		Precision:    3,
		MQTTTopic:    contract.DefaultMQTTTopic,
	}
}

func memoryStoreManager(t *testing.T) (*store.MockStoreManager, *store.SQLStore) {
	t.Helper()
	s, err := store.NewStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	mgr := &store.MockStoreManager{}
	mgr.On("GetAcquisitionStore").Return(s)
	return mgr, s
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

// TestExecuteAcquire tests the main acquisition entry point against the simulator.
func TestExecuteAcquire(t *testing.T) {
	_, pub := stubHooks(t)
	mgr, s := memoryStoreManager(t)
	cfg := simConfig(t)
	ctx := context.Background()

	require.NoError(t, ExecuteAcquire(ctx, cfg, mgr))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "1,2", runs[0].Channels)
	assert.Equal(t, 3, runs[0].SegmentCount)
	require.NotNil(t, runs[0].Identity)
	assert.Contains(t, *runs[0].Identity, "KEYSIGHT")

	out := readJSON(t, cfg.OutputFile)
	assert.EqualValues(t, 1, out["run_id"])

	require.Len(t, pub.topics, 1)
	assert.Equal(t, "techconnect/results/acquisition", pub.topics[0])
	msg, ok := pub.payloads[0].(AcquisitionMessage)
	require.True(t, ok)
	assert.Equal(t, int64(1), msg.RunID)
	require.Len(t, msg.Channels, 2)
	assert.Equal(t, 3, msg.Channels[0].Segments)
	assert.Equal(t, 1, pub.closed)
	mgr.AssertExpectations(t)
}

// TestExecuteAcquireEstimatesSegments tests that acq-time sizes a stitched capture.
func TestExecuteAcquireEstimatesSegments(t *testing.T) {
	stubHooks(t)
	mgr, s := memoryStoreManager(t)
	cfg := simConfig(t)
	cfg.Channels = []int{1}
	cfg.AcqTime = 0.25
	cfg.EstimateSegments = true
	cfg.Params = schema.AcquisitionParams{Mode: schema.NormalMode, Stitched: true}
	ctx := context.Background()

	require.NoError(t, ExecuteAcquire(ctx, cfg, mgr))

	result, err := s.LoadRun(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Params.SegmentCount, "0.25s at 40 kS/s in 2000 point segments")
	assert.InDelta(t, 0.05, result.Params.TimeWindow, 1e-12)
	assert.True(t, result.Params.Stitched)
	assert.Len(t, result.Waveforms[1].X, 5*transport.SimPoints)
}

// TestExecuteAcquireWithoutStore tests that a missing store only skips persistence.
func TestExecuteAcquireWithoutStore(t *testing.T) {
	stubHooks(t)
	mgr := &store.MockStoreManager{}
	mgr.On("GetAcquisitionStore").Return(nil)
	cfg := simConfig(t)

	require.NoError(t, ExecuteAcquire(context.Background(), cfg, mgr))

	out := readJSON(t, cfg.OutputFile)
	_, hasRunID := out["run_id"]
	assert.False(t, hasRunID, "unstored runs carry no run_id")
	mgr.AssertExpectations(t)
}

// TestExecuteAcquireConnectFailure tests that link failures surface as errors.
func TestExecuteAcquireConnectFailure(t *testing.T) {
	stubHooks(t)
	openInstrument = func(context.Context, *contract.Config) (contract.Instrument, error) {
		return nil, schema.ErrTransport
	}

	err := ExecuteAcquire(context.Background(), simConfig(t), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrTransport)
	assert.Contains(t, err.Error(), "failed to connect to instrument")
}

// TestExecuteAcquireUnknownDialect tests that the dialect is checked before connecting.
func TestExecuteAcquireUnknownDialect(t *testing.T) {
	stubHooks(t)
	connected := false
	openInstrument = func(context.Context, *contract.Config) (contract.Instrument, error) {
		connected = true
		return nil, errors.New("unexpected")
	}
	cfg := simConfig(t)
	cfg.Dialect = "tektronix"

	err := ExecuteAcquire(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "unknown dialect")
	assert.False(t, connected)
}

// TestExecuteAcquireInstrumentError tests that a queued instrument error is reported
// without discarding the capture.
func TestExecuteAcquireInstrumentError(t *testing.T) {
	sim, _ := stubHooks(t)
	sim.PushError(-113, "Undefined header")
	mgr, s := memoryStoreManager(t)

	require.NoError(t, ExecuteAcquire(context.Background(), simConfig(t), mgr))

	cmds := sim.Commands()
	assert.Contains(t, cmds[len(cmds)-1], "ERR", "the error queue is read after the run")
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

// TestExecuteFinesseAcquires tests a finesse measurement on a fresh capture.
func TestExecuteFinesseAcquires(t *testing.T) {
	_, pub := stubHooks(t)
	mgr, s := memoryStoreManager(t)
	cfg := simConfig(t)
	cfg.Channels = []int{1} // response channel is added automatically
	ctx := context.Background()

	require.NoError(t, ExecuteFinesse(ctx, cfg, mgr))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "1,2", runs[0].Channels)

	rows, err := s.ListFinesse(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.NotNil(t, row.Finesse)
		assert.InEpsilon(t, 15.0, *row.Finesse, 0.05)
	}

	out := readJSON(t, cfg.OutputFile)
	assert.EqualValues(t, 3, out["valid"])

	require.Len(t, pub.topics, 1)
	assert.True(t, strings.HasSuffix(pub.topics[0], "/finesse"))
	msg, ok := pub.payloads[0].(FinesseMessage)
	require.True(t, ok)
	assert.Equal(t, 3, msg.Segments)
	assert.Len(t, msg.Finesse, 3)
}

// TestExecuteFinesseStoredRun tests re-analysis of a stored run without instrument traffic.
func TestExecuteFinesseStoredRun(t *testing.T) {
	stubHooks(t)
	mgr, s := memoryStoreManager(t)
	cfg := simConfig(t)
	ctx := context.Background()
	require.NoError(t, ExecuteAcquire(ctx, cfg, mgr))

	openInstrument = func(context.Context, *contract.Config) (contract.Instrument, error) {
		return nil, errors.New("stored runs need no instrument")
	}
	cfg.RunID = 1
	cfg.OutputFile = filepath.Join(t.TempDir(), "finesse.json")
	require.NoError(t, ExecuteFinesse(ctx, cfg, mgr))

	rows, err := s.ListFinesse(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	out := readJSON(t, cfg.OutputFile)
	assert.EqualValues(t, 1, out["run_id"])
}

// TestExecuteFinesseAllSegmentsFail tests that failures are reported and recorded.
func TestExecuteFinesseAllSegmentsFail(t *testing.T) {
	stubHooks(t)
	mgr, s := memoryStoreManager(t)
	cfg := simConfig(t)
	// No normalized resonance reaches this height, so every segment fails.
	cfg.Finesse.PeakHeight = 10
	ctx := context.Background()

	err := ExecuteFinesse(ctx, cfg, mgr)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrNoValidSegments)

	rows, err := s.ListFinesse(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Nil(t, row.Finesse)
		assert.NotNil(t, row.Error)
	}
	out := readJSON(t, cfg.OutputFile)
	assert.EqualValues(t, 0, out["valid"])
}

// TestMeasureStoredRun tests the stored run path used by the MCP server.
func TestMeasureStoredRun(t *testing.T) {
	stubHooks(t)
	mgr, _ := memoryStoreManager(t)
	cfg := simConfig(t)
	ctx := context.Background()
	require.NoError(t, ExecuteAcquire(ctx, cfg, mgr))

	summary, err := MeasureStoredRun(ctx, cfg, mgr, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Valid)

	_, err = MeasureStoredRun(ctx, cfg, mgr, 99)
	assert.ErrorIs(t, err, schema.ErrRunNotFound)

	_, err = MeasureStoredRun(ctx, cfg, nil, 1)
	assert.ErrorContains(t, err, "not initialized")
}

// TestMeasureMissingChannel tests that the analysis names the channel that is missing.
func TestMeasureMissingChannel(t *testing.T) {
	result := &schema.AcquisitionResult{
		Channels:  []int{1},
		Waveforms: map[int]schema.ReconstructedWaveform{1: {}},
	}
	_, err := Measure(result, contract.FinesseConfig{})
	assert.ErrorContains(t, err, "response channel 2 was not acquired")

	_, err = Measure(result, contract.FinesseConfig{ScanChannel: 3})
	assert.ErrorContains(t, err, "scan channel 3 was not acquired")
}

// TestExecuteRamp tests the function generator drive against the simulator.
func TestExecuteRamp(t *testing.T) {
	sim, _ := stubHooks(t)
	cfg := simConfig(t)
	cfg.Ramp = contract.RampConfig{Channel: 2, Frequency: 50, V1: 1, V2: 3}

	require.NoError(t, ExecuteRamp(context.Background(), cfg, nil))

	cmds := sim.Commands()
	assert.Equal(t, "*CLS", cmds[0])
	assert.Contains(t, cmds, "FUNC:CH2 RAMP")
	assert.Contains(t, cmds, "OUTPUT:CH2 ON")
	assert.Equal(t, "APPLY:CH2?", cmds[len(cmds)-1])

	out := readJSON(t, cfg.OutputFile)
	assert.EqualValues(t, 2, out["channel"])
	assert.InDelta(t, 1.4, out["amplitude"], 1e-12)
	assert.InDelta(t, 0.8, out["offset"], 1e-12)
	assert.True(t, strings.HasPrefix(out["applied"].(string), "RAMP,"))
}

func TestFinesseOptions(t *testing.T) {
	opts := FinesseOptions(contract.FinesseConfig{Cutoff: 0.2, Threshold: 0.5, PeakHeight: finesse.Auto, PairIndex: 2})
	assert.Equal(t, 0.2, opts.Cutoff)
	assert.Equal(t, 0.5, opts.Threshold)
	assert.Equal(t, 2, opts.PairIndex)
	assert.Equal(t, finesse.DefaultThresholdFraction, opts.ThresholdFraction)
	assert.Equal(t, schema.ForwardDirection, opts.Direction)
	assert.Equal(t, finesse.DefaultTargetLength, opts.TargetLength)

	opts = FinesseOptions(contract.FinesseConfig{Direction: schema.NoDirection, TargetLength: 100})
	assert.Equal(t, schema.NoDirection, opts.Direction)
	assert.Equal(t, 100, opts.TargetLength)
}

func TestWithFinesseChannels(t *testing.T) {
	fc := contract.FinesseConfig{ScanChannel: 1, ResponseChannel: 2}
	assert.Equal(t, []int{3, 1, 2}, withFinesseChannels([]int{3}, fc))
	assert.Equal(t, []int{2, 1}, withFinesseChannels([]int{2, 1}, fc))
}

func TestNewFinesseMessage(t *testing.T) {
	msg := newFinesseMessage(schema.FinesseSummary{
		Average: 12,
		Valid:   1,
		Segments: []schema.SegmentFinesse{
			{Segment: 1, Err: schema.ErrNoRampFound},
			{Segment: 2, Result: &schema.FinesseResult{Finesse: 12}},
		},
	}, 4)
	assert.Equal(t, int64(4), msg.RunID)
	require.Len(t, msg.Finesse, 2)
	assert.Nil(t, msg.Finesse[0])
	require.NotNil(t, msg.Finesse[1])
	assert.Equal(t, 12.0, *msg.Finesse[1])
}
