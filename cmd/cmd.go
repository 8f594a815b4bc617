// Package cmd defines the command-line interface for techconnect.
package cmd

import (
	"github.com/hockijo/techconnect/core/finesse"
	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(acquireCmd)
	rootCmd.AddCommand(finesseCmd)
	rootCmd.AddCommand(rampCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runsCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("transport", string(schema.SocketTransport), "Instrument link: socket or prologix or sim")
	rootCmd.PersistentFlags().StringP("address", "a", "", "Instrument address (host[:port] for socket, serial device for prologix)")
	rootCmd.PersistentFlags().Int("gpib-address", contract.DefaultGPIBAddress, "GPIB address of the instrument behind a Prologix adapter")
	rootCmd.PersistentFlags().Int("baud-rate", contract.DefaultBaudRate, "Serial baud rate for the Prologix adapter")
	rootCmd.PersistentFlags().String("timeout", contract.DefaultTimeout.String(), "I/O timeout for a single instrument read")
	rootCmd.PersistentFlags().String("line-delay", contract.DefaultLineDelay.String(), "Pause after each command line sent to an instrument")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("mqtt-broker", "", "MQTT broker URL for publishing results (e.g., tcp://localhost:1883)")
	rootCmd.PersistentFlags().String("mqtt-topic", contract.DefaultMQTTTopic, "Base MQTT topic for published results")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Acquisition flags are shared by acquire and finesse
	for _, c := range []*cobra.Command{acquireCmd, finesseCmd} {
		c.Flags().String("dialect", string(schema.KeysightDialect), "Scope command dialect: keysight or rigol")
		c.Flags().StringP("channels", "c", "1,2", "Comma-separated list of scope channels to capture")
		c.Flags().Float64P("time-window", "w", contract.DefaultTimeWindow, "Duration of one segment in seconds")
		c.Flags().IntP("segments", "n", contract.DefaultSegments, "Number of segments to capture")
		c.Flags().Float64("acq-time", 0, "Total stitched acquisition time in seconds (0 = disabled)")
		c.Flags().Bool("stitched", false, "Join the segments into one continuous trace")
		c.Flags().String("acq-mode", string(schema.NormalMode), "Acquisition mode: NORMAL or HRESOLUTION or PEAK or AVERAGE")
		c.Flags().String("autoscale", "no", "Autoscale the scope before capturing (yes/no)")
		c.Flags().String("timing-margin", "", "Extra wait added after a digitize (e.g., 2s)")
		c.Flags().Float64("timing-multiplier", 0, "Multiplier applied to the total capture time when waiting")
		c.Flags().String("timing-per-segment", "", "Extra wait per captured segment (e.g., 100ms)")
	}

	// Flags of acquireCmd and finesseCmd share keys, so they are bound in commandSetup
	finesseCmd.Flags().Int64("run-id", 0, "Measure a stored run instead of acquiring a new one")
	finesseCmd.Flags().Float64("cutoff", finesse.DefaultCutoff, "Low-pass cutoff as a fraction of Nyquist (0 disables filtering)")
	finesseCmd.Flags().Float64("threshold", finesse.Auto, "Turning point curvature threshold (negative = automatic)")
	finesseCmd.Flags().Float64("threshold-fraction", finesse.DefaultThresholdFraction, "Share of the largest curvature used by the automatic threshold")
	finesseCmd.Flags().String("direction", string(schema.ForwardDirection), "Ramp direction to analyze: forward or reverse or none")
	finesseCmd.Flags().Int("pair-index", 0, "Index of the turning point pair bounding the ramp window")
	finesseCmd.Flags().Float64("peak-height", finesse.Auto, "Minimum resonance height (negative = automatic)")
	finesseCmd.Flags().Int("target-length", finesse.DefaultTargetLength, "Samples kept when reducing the scan for turning point detection")
	finesseCmd.Flags().Int("scan-channel", contract.DefaultScanChannel, "Scope channel carrying the ramp")
	finesseCmd.Flags().Int("response-channel", contract.DefaultRespChannel, "Scope channel carrying the cavity transmission")

	// Bind all flags of rampCmd to Viper
	rampCmd.Flags().Int("ramp-channel", 1, "Function generator output channel: 1 or 2")
	rampCmd.Flags().Float64("ramp-frequency", 100, "Ramp frequency in Hz")
	rampCmd.Flags().Float64("ramp-v1", 0, "Ramp start voltage")
	rampCmd.Flags().Float64("ramp-v2", 1, "Ramp end voltage")
	if err := viper.BindPFlags(rampCmd.Flags()); err != nil {
		contract.LogFatal("Error binding ramp flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
