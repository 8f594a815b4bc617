package transport

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
)

// Simulated scope geometry.
const (
	SimPoints      = 2000
	SimScanPeriod  = 1000 // Samples per triangle period
	SimResonanceW  = 20.0 // Resonance FWHM in samples
	SimYIncrement  = 1e-4 // Volts per code
	simScanVolts   = 1.0
	simTagSpacing  = 1.5 // Time tags are spaced by this many windows
	simDefaultRate = SimPoints / 0.05
)

// simResonances are the scan phases, in samples, at which the cavity transmits.
// Each appears once on the rising and once on the falling half of the period.
var simResonances = []float64{100, 400, 600, 900}

// Simulator is an in-memory Keysight-like scope and function generator.
// It tracks the few settings that shape its answers and accepts every other command.
// The scan channel carries a triangle ramp, every other channel carries cavity
// resonances locked to the ramp.
type Simulator struct {
	ScanChannel int

	mu       sync.Mutex
	commands []string
	errQueue []string
	closed   bool

	segments int
	window   float64
	segment  int
	source   int
	peak     bool

	generator map[string]string
}

var _ contract.Instrument = &Simulator{} // Compile-time check

// NewSimulator creates a simulator whose scan ramp is on scanChannel.
func NewSimulator(scanChannel int) *Simulator {
	return &Simulator{
		ScanChannel: scanChannel,
		segments:    1,
		window:      SimPoints / simDefaultRate,
		segment:     1,
		source:      1,
		generator:   make(map[string]string),
	}
}

// PushError queues an instrument error for the next error query.
func (s *Simulator) PushError(code int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errQueue = append(s.errQueue, fmt.Sprintf("%+d,%q", code, msg))
}

// Commands returns every command line received so far.
func (s *Simulator) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Write applies each ';' separated command.
func (s *Simulator) Write(ctx context.Context, cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.commands = append(s.commands, cmd)
	for _, part := range strings.Split(cmd, ";") {
		if err := s.apply(part); err != nil {
			return err
		}
	}
	return nil
}

// Query applies the leading commands of cmd and answers its last query.
func (s *Simulator) Query(ctx context.Context, cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return "", err
	}
	s.commands = append(s.commands, cmd)
	query, err := s.prefix(cmd)
	if err != nil {
		return "", err
	}
	return s.answer(query)
}

// QueryBinary answers a data query with the current segment of the current source.
func (s *Simulator) QueryBinary(ctx context.Context, cmd string) ([]int16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.commands = append(s.commands, cmd)
	query, err := s.prefix(cmd)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(strings.ToUpper(query), ":WAVEFORM:DATA?") {
		return nil, fmt.Errorf("%w: simulator has no binary answer for %q", schema.ErrTransport, query)
	}
	return s.samples(), nil
}

// Close marks the simulator closed; later traffic fails.
func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// String names the transport.
func (s *Simulator) String() string { return "simulator" }

func (s *Simulator) check(ctx context.Context) error {
	if s.closed {
		return fmt.Errorf("%w: simulator closed", schema.ErrTransport)
	}
	if err := ctx.Err(); err != nil {
		return classify("simulator", "", err)
	}
	return nil
}

// prefix applies every part of a compound command but the last and returns the last.
func (s *Simulator) prefix(cmd string) (string, error) {
	parts := strings.Split(cmd, ";")
	for _, part := range parts[:len(parts)-1] {
		if err := s.apply(part); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(parts[len(parts)-1]), nil
}

func (s *Simulator) apply(part string) error {
	header, arg, _ := strings.Cut(strings.TrimSpace(part), " ")
	header = strings.ToUpper(header)
	arg = strings.TrimSpace(arg)

	switch header {
	case ":ACQUIRE:SEGMENTED:COUNT":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: bad segment count %q", schema.ErrInstrument, arg)
		}
		s.segments = n
	case ":ACQUIRE:SEGMENTED:INDEX":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > s.segments {
			return fmt.Errorf("%w: segment index %q out of range [1, %d]", schema.ErrInstrument, arg, s.segments)
		}
		s.segment = n
	case ":TIMEBASE:SCALE":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("%w: bad time base %q", schema.ErrInstrument, arg)
		}
		s.window = 10 * v
	case ":WAVEFORM:SOURCE":
		n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(arg), "CHANNEL"))
		if err != nil || n < 1 || n > contract.MaxChannel {
			return fmt.Errorf("%w: bad source %q", schema.ErrInstrument, arg)
		}
		s.source = n
	case ":ACQUIRE:TYPE":
		s.peak = strings.EqualFold(arg, string(schema.PeakDetectMode))
	default:
		// Function generator settings are echoed by APPLY?.
		if key, ok := generatorKey(header); ok {
			s.generator[key] = arg
		}
	}
	return nil
}

// generatorKey strips the channel suffix from a generator header.
func generatorKey(header string) (string, bool) {
	key := strings.Replace(header, ":CH2", "", 1)
	switch key {
	case "FUNC", "FREQ", "VOLT", "VOLT:OFFSET":
		return key, true
	}
	return "", false
}

func (s *Simulator) answer(query string) (string, error) {
	q := strings.ToUpper(query)
	switch {
	case q == "*IDN?":
		return "KEYSIGHT TECHNOLOGIES,DSOX3034T,SIM00000,07.50", nil
	case strings.Contains(q, "ERR"):
		if len(s.errQueue) == 0 {
			return `+0,"No error"`, nil
		}
		head := s.errQueue[0]
		s.errQueue = s.errQueue[1:]
		return head, nil
	case q == ":WAVEFORM:PREAMBLE?":
		return s.preamble(), nil
	case q == ":WAVEFORM:SEGMENTED:TTAG?":
		return strconv.FormatFloat(float64(s.segment-1)*simTagSpacing*s.window, 'E', 8, 64), nil
	case q == ":ACQUIRE:SRATE?":
		return strconv.FormatFloat(SimPoints/s.window, 'E', 8, 64), nil
	case q == ":ACQUIRE:POINTS?":
		return strconv.Itoa(SimPoints), nil
	case strings.HasPrefix(q, "APPLY"):
		return fmt.Sprintf("%s,%s,%s,%s",
			orDefault(s.generator["FUNC"], "SIN"), orDefault(s.generator["FREQ"], "1000"),
			orDefault(s.generator["VOLT"], "5"), orDefault(s.generator["VOLT:OFFSET"], "0")), nil
	default:
		return "", fmt.Errorf("%w: simulator cannot answer %q", schema.ErrTransport, query)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (s *Simulator) preamble() string {
	waveformType := 0
	if s.peak {
		waveformType = 1
	}
	xinc := s.window / SimPoints
	return fmt.Sprintf("+1,+%d,+%d,+1,%E,%E,+0,%E,%E,+0",
		waveformType, SimPoints, xinc, 0.0, SimYIncrement, 0.0)
}

// samples renders the current segment. Peak-detect captures repeat every sample
// as a min/max pair.
func (s *Simulator) samples() []int16 {
	var y []float64
	if s.source == s.ScanChannel {
		y = SimScan(SimPoints)
	} else {
		y = SimResponse(SimPoints)
	}

	repeat := 1
	if s.peak {
		repeat = 2
	}
	out := make([]int16, 0, len(y)*repeat)
	for _, v := range y {
		code := int16(math.Round(v / SimYIncrement))
		for range repeat {
			out = append(out, code)
		}
	}
	return out
}

// SimScan returns the simulated triangle ramp in volts: rising for half a period, then falling.
func SimScan(n int) []float64 {
	half := SimScanPeriod / 2
	out := make([]float64, n)
	for i := range out {
		phase := i % SimScanPeriod
		if phase > half {
			phase = SimScanPeriod - phase
		}
		out[i] = float64(phase) / float64(half) * simScanVolts
	}
	return out
}

// SimResponse returns unit-height Gaussian resonances locked to the scan ramp.
func SimResponse(n int) []float64 {
	sigma := SimResonanceW / (2 * math.Sqrt(2*math.Ln2))
	out := make([]float64, n)
	for start := 0; start < n; start += SimScanPeriod {
		for _, c := range simResonances {
			center := float64(start) + c
			lo := max(int(center-6*sigma), 0)
			hi := min(int(center+6*sigma), n-1)
			for i := lo; i <= hi; i++ {
				d := float64(i) - center
				out[i] += math.Exp(-d * d / (2 * sigma * sigma))
			}
		}
	}
	return out
}
