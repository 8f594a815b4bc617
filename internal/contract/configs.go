package contract

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hockijo/techconnect/schema"
)

// Default values for configuration.
const (
	DefaultTimeWindow   = 0.05
	DefaultSegments     = 200
	DefaultTimeout      = 10 * time.Second
	DefaultLineDelay    = 100 * time.Millisecond
	DefaultBaudRate     = 115200
	DefaultGPIBAddress  = 7
	DefaultPrecision    = 3
	DefaultScanChannel  = 1
	DefaultRespChannel  = 2
	DefaultMQTTTopic    = "techconnect/results"
	DefaultMQTTClientID = "techconnect"

	MaxSegments  = 1000 // Keysight 3000T segmented memory limit
	MaxChannel   = 4
	MaxPrecision = 6
	MaxGPIB      = 30
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// FinesseConfig holds the analysis knobs.
type FinesseConfig struct {
	Cutoff            float64
	Threshold         float64 // negative selects the automatic threshold
	ThresholdFraction float64
	Direction         schema.Direction
	PairIndex         int
	PeakHeight        float64 // negative selects the automatic height
	TargetLength      int
	ScanChannel       int
	ResponseChannel   int
}

// TimingConfig holds the open-loop wait knobs applied after a digitize.
type TimingConfig struct {
	Margin     time.Duration
	Multiplier float64
	PerSegment time.Duration
}

// RampConfig holds the function generator drive settings.
type RampConfig struct {
	Channel   int
	Frequency float64
	V1        float64
	V2        float64
}

// Config holds the runtime configuration for acquisition and analysis.
// This struct remains the "final, validated" config.
type Config struct {
	Transport   schema.TransportKind
	Address     string
	GPIBAddress int
	BaudRate    uint
	Timeout     time.Duration
	LineDelay   time.Duration
	Dialect     schema.DialectName

	Channels  []int
	Params    schema.AcquisitionParams
	AcqTime   float64 // Total stitched acquisition time; zero when TimeWindow is given directly
	Autoscale bool

	// EstimateSegments asks the scope for a segment count that covers AcqTime.
	EstimateSegments bool

	Timing  TimingConfig
	Finesse FinesseConfig
	Ramp    RampConfig
	RunID   int64

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Instrument link ---
	Transport   string `mapstructure:"transport"`
	Address     string `mapstructure:"address"`
	GPIBAddress int    `mapstructure:"gpib-address"`
	BaudRate    int    `mapstructure:"baud-rate"`
	Timeout     string `mapstructure:"timeout"`
	LineDelay   string `mapstructure:"line-delay"`
	Dialect     string `mapstructure:"dialect"`

	// --- Acquisition ---
	Channels   string  `mapstructure:"channels"`
	TimeWindow float64 `mapstructure:"time-window"`
	AcqTime    float64 `mapstructure:"acq-time"`
	Segments   int     `mapstructure:"segments"`
	Stitched   bool    `mapstructure:"stitched"`
	AcqMode    string  `mapstructure:"acq-mode"`
	Autoscale  string  `mapstructure:"autoscale"`

	// --- Timing ---
	TimingMargin     string  `mapstructure:"timing-margin"`
	TimingMultiplier float64 `mapstructure:"timing-multiplier"`
	TimingPerSegment string  `mapstructure:"timing-per-segment"`

	// --- Finesse ---
	Cutoff            float64 `mapstructure:"cutoff"`
	Threshold         float64 `mapstructure:"threshold"`
	ThresholdFraction float64 `mapstructure:"threshold-fraction"`
	Direction         string  `mapstructure:"direction"`
	PairIndex         int     `mapstructure:"pair-index"`
	PeakHeight        float64 `mapstructure:"peak-height"`
	TargetLength      int     `mapstructure:"target-length"`
	ScanChannel       int     `mapstructure:"scan-channel"`
	ResponseChannel   int     `mapstructure:"response-channel"`
	RunID             int64   `mapstructure:"run-id"`

	// --- Ramp drive ---
	RampChannel   int     `mapstructure:"ramp-channel"`
	RampFrequency float64 `mapstructure:"ramp-frequency"`
	RampV1        float64 `mapstructure:"ramp-v1"`
	RampV2        float64 `mapstructure:"ramp-v2"`

	// --- Storage and output ---
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Precision      int    `mapstructure:"precision"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`

	// --- Publishing ---
	MQTTBroker   string `mapstructure:"mqtt-broker"`
	MQTTTopic    string `mapstructure:"mqtt-topic"`
	MQTTClientID string `mapstructure:"mqtt-client-id"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Channels != nil {
		clone.Channels = slices.Clone(c.Channels)
	}
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateLinkInputs(cfg, input); err != nil {
		return err
	}
	if err := processAcquisition(cfg, input); err != nil {
		return err
	}
	if err := processTiming(cfg, input); err != nil {
		return err
	}
	if err := processFinesse(cfg, input); err != nil {
		return err
	}
	if err := processRamp(cfg, input); err != nil {
		return err
	}
	if err := validateOutputInputs(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ProcessAnalysisConfig validates only the analysis, output and store fields.
// It serves commands that work on stored runs and never contact an instrument.
func ProcessAnalysisConfig(cfg *Config, input *ConfigRawInput) error {
	if err := processFinesse(cfg, input); err != nil {
		return err
	}
	if err := validateOutputInputs(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseChannels parses a comma separated channel list such as "1,2,4".
// Order is preserved and duplicates are rejected.
func ParseChannels(s string) ([]int, error) {
	var channels []int
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ch, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid channel %q: %w", part, err)
		}
		if ch < 1 || ch > MaxChannel {
			return nil, fmt.Errorf("channel must be between 1 and %d (received %d)", MaxChannel, ch)
		}
		if slices.Contains(channels, ch) {
			return nil, fmt.Errorf("channel %d listed more than once", ch)
		}
		channels = append(channels, ch)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("at least one channel is required")
	}
	return channels, nil
}

// parseDuration parses a Go duration string, falling back to def when s is empty.
func parseDuration(name, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s value %q: %w", name, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("--%s cannot be negative (received %s)", name, s)
	}
	return d, nil
}

// validateLinkInputs processes the transport and dialect fields.
func validateLinkInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Transport = schema.TransportKind(strings.ToLower(input.Transport))
	if _, ok := schema.ValidTransports[cfg.Transport]; !ok {
		return fmt.Errorf("invalid transport '%s'. must be socket, prologix, sim", input.Transport)
	}
	cfg.Address = strings.TrimSpace(input.Address)
	if cfg.Address == "" && cfg.Transport != schema.SimulatorTransport {
		return fmt.Errorf("address is required when using %s transport", cfg.Transport)
	}

	if cfg.Transport == schema.PrologixTransport {
		if input.GPIBAddress < 0 || input.GPIBAddress > MaxGPIB {
			return fmt.Errorf("gpib-address must be between 0 and %d (received %d)", MaxGPIB, input.GPIBAddress)
		}
		if input.BaudRate <= 0 {
			return fmt.Errorf("baud-rate must be greater than 0 (received %d)", input.BaudRate)
		}
	}
	cfg.GPIBAddress = input.GPIBAddress
	if input.BaudRate > 0 {
		cfg.BaudRate = uint(input.BaudRate)
	}

	timeout, err := parseDuration("timeout", input.Timeout, DefaultTimeout)
	if err != nil {
		return err
	}
	if timeout == 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	cfg.Timeout = timeout

	if cfg.LineDelay, err = parseDuration("line-delay", input.LineDelay, DefaultLineDelay); err != nil {
		return err
	}

	cfg.Dialect = schema.DialectName(strings.ToLower(input.Dialect))
	if _, ok := schema.ValidDialects[cfg.Dialect]; !ok {
		return fmt.Errorf("invalid dialect '%s'. must be keysight, rigol", input.Dialect)
	}
	return nil
}

// processAcquisition resolves channels, mode and the time window.
// A positive acq-time implies a stitched capture whose window is acq-time / segments;
// with zero segments the count is estimated from the scope at run time.
func processAcquisition(cfg *Config, input *ConfigRawInput) error {
	channels, err := ParseChannels(input.Channels)
	if err != nil {
		return err
	}
	cfg.Channels = channels

	autoscale, err := ParseBoolString(input.Autoscale)
	if err != nil {
		return fmt.Errorf("invalid --autoscale value: %w", err)
	}
	cfg.Autoscale = autoscale

	cfg.Params = schema.AcquisitionParams{
		TimeWindow:   input.TimeWindow,
		SegmentCount: input.Segments,
		Mode:         schema.AcquisitionMode(strings.ToUpper(input.AcqMode)),
		Stitched:     input.Stitched,
	}
	if _, ok := schema.ValidAcquisitionModes[cfg.Params.Mode]; !ok {
		return fmt.Errorf("invalid acquisition mode '%s'. must be NORMAL, HRESOLUTION, PEAK, AVERAGE", input.AcqMode)
	}
	if input.Segments < 0 || input.Segments > MaxSegments {
		return fmt.Errorf("segments must be between 1 and %d (received %d)", MaxSegments, input.Segments)
	}

	if input.AcqTime < 0 {
		return fmt.Errorf("acq-time cannot be negative (received %g)", input.AcqTime)
	}
	if input.AcqTime > 0 {
		cfg.AcqTime = input.AcqTime
		cfg.Params.Stitched = true
		if input.Segments == 0 {
			cfg.EstimateSegments = true
			cfg.Params.TimeWindow = 0
			return nil
		}
		cfg.Params.TimeWindow = input.AcqTime / float64(input.Segments)
	}
	return cfg.Params.Validate()
}

// processTiming resolves the open-loop wait knobs.
func processTiming(cfg *Config, input *ConfigRawInput) error {
	margin, err := parseDuration("timing-margin", input.TimingMargin, 0)
	if err != nil {
		return err
	}
	perSegment, err := parseDuration("timing-per-segment", input.TimingPerSegment, 0)
	if err != nil {
		return err
	}
	if input.TimingMultiplier < 0 {
		return fmt.Errorf("timing-multiplier cannot be negative (received %g)", input.TimingMultiplier)
	}
	cfg.Timing = TimingConfig{Margin: margin, Multiplier: input.TimingMultiplier, PerSegment: perSegment}
	return nil
}

// processFinesse validates the analysis knobs.
func processFinesse(cfg *Config, input *ConfigRawInput) error {
	if input.Cutoff < 0 || input.Cutoff >= 1 {
		return fmt.Errorf("cutoff must be in [0, 1) as a fraction of Nyquist (received %g)", input.Cutoff)
	}
	if input.ThresholdFraction <= 0 || input.ThresholdFraction > 1 {
		return fmt.Errorf("threshold-fraction must be in (0, 1] (received %g)", input.ThresholdFraction)
	}
	direction := schema.Direction(strings.ToLower(input.Direction))
	if _, ok := schema.ValidDirections[direction]; !ok {
		return fmt.Errorf("invalid direction '%s'. must be forward, reverse, none", input.Direction)
	}
	if input.PairIndex < 0 {
		return fmt.Errorf("pair-index cannot be negative (received %d)", input.PairIndex)
	}
	if input.TargetLength <= 0 {
		return fmt.Errorf("target-length must be greater than 0 (received %d)", input.TargetLength)
	}
	for name, ch := range map[string]int{"scan-channel": input.ScanChannel, "response-channel": input.ResponseChannel} {
		if ch < 1 || ch > MaxChannel {
			return fmt.Errorf("%s must be between 1 and %d (received %d)", name, MaxChannel, ch)
		}
	}
	if input.ScanChannel == input.ResponseChannel {
		return fmt.Errorf("scan-channel and response-channel must differ (both %d)", input.ScanChannel)
	}
	if input.RunID < 0 {
		return fmt.Errorf("run-id cannot be negative (received %d)", input.RunID)
	}

	cfg.Finesse = FinesseConfig{
		Cutoff:            input.Cutoff,
		Threshold:         input.Threshold,
		ThresholdFraction: input.ThresholdFraction,
		Direction:         direction,
		PairIndex:         input.PairIndex,
		PeakHeight:        input.PeakHeight,
		TargetLength:      input.TargetLength,
		ScanChannel:       input.ScanChannel,
		ResponseChannel:   input.ResponseChannel,
	}
	cfg.RunID = input.RunID
	return nil
}

// processRamp validates the function generator drive settings.
func processRamp(cfg *Config, input *ConfigRawInput) error {
	if input.RampChannel < 1 || input.RampChannel > 2 {
		return fmt.Errorf("ramp-channel must be 1 or 2 (received %d)", input.RampChannel)
	}
	if input.RampFrequency <= 0 {
		return fmt.Errorf("ramp-frequency must be greater than 0 (received %g)", input.RampFrequency)
	}
	cfg.Ramp = RampConfig{
		Channel:   input.RampChannel,
		Frequency: input.RampFrequency,
		V1:        input.RampV1,
		V2:        input.RampV2,
	}
	return nil
}

// validateOutputInputs processes the report and publishing fields.
func validateOutputInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", cfg.Output)
	}

	cfg.MQTTBroker = strings.TrimSpace(input.MQTTBroker)
	cfg.MQTTTopic = input.MQTTTopic
	cfg.MQTTClientID = input.MQTTClientID
	if cfg.MQTTBroker != "" && cfg.MQTTTopic == "" {
		return fmt.Errorf("mqtt-topic is required when mqtt-broker is set")
	}
	if cfg.MQTTClientID == "" {
		cfg.MQTTClientID = DefaultMQTTClientID
	}
	return nil
}

// validateBackendConfigs validates the store backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}
