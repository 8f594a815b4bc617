package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/hockijo/techconnect/core/finesse"
	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/internal/store"
	"github.com/hockijo/techconnect/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// storeManager is the global acquisition store manager instance.
var storeManager contract.StoreManager

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "techconnect",
	Short:              "Acquire segmented scope captures and measure cavity finesse.",
	Long:               `Techconnect drives a segmented oscilloscope capture, rebuilds the waveforms and measures optical cavity finesse from the ramp and transmission channels.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setConfigSource points viper at the config file given by --config, or at .techconnect.yaml.
func setConfigSource() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".techconnect") // Name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigSource()

	// Set environment variable prefix
	viper.SetEnvPrefix("TECHCONNECT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Instrument link
	viper.SetDefault("transport", schema.SocketTransport)
	viper.SetDefault("address", "")
	viper.SetDefault("gpib-address", contract.DefaultGPIBAddress)
	viper.SetDefault("baud-rate", contract.DefaultBaudRate)
	viper.SetDefault("timeout", contract.DefaultTimeout.String())
	viper.SetDefault("line-delay", contract.DefaultLineDelay.String())
	viper.SetDefault("dialect", schema.KeysightDialect)

	// Acquisition
	viper.SetDefault("channels", "1,2")
	viper.SetDefault("time-window", contract.DefaultTimeWindow)
	viper.SetDefault("segments", contract.DefaultSegments)
	viper.SetDefault("acq-time", 0.0)
	viper.SetDefault("stitched", false)
	viper.SetDefault("acq-mode", schema.NormalMode)
	viper.SetDefault("autoscale", "no")
	viper.SetDefault("timing-margin", "")
	viper.SetDefault("timing-multiplier", 0.0)
	viper.SetDefault("timing-per-segment", "")

	// Finesse
	viper.SetDefault("cutoff", finesse.DefaultCutoff)
	viper.SetDefault("threshold", finesse.Auto)
	viper.SetDefault("threshold-fraction", finesse.DefaultThresholdFraction)
	viper.SetDefault("direction", schema.ForwardDirection)
	viper.SetDefault("pair-index", 0)
	viper.SetDefault("peak-height", finesse.Auto)
	viper.SetDefault("target-length", finesse.DefaultTargetLength)
	viper.SetDefault("scan-channel", contract.DefaultScanChannel)
	viper.SetDefault("response-channel", contract.DefaultRespChannel)
	viper.SetDefault("run-id", 0)

	// Ramp drive
	viper.SetDefault("ramp-channel", 1)
	viper.SetDefault("ramp-frequency", 100.0)
	viper.SetDefault("ramp-v1", 0.0)
	viper.SetDefault("ramp-v2", 1.0)

	// Storage, output and publishing
	viper.SetDefault("store-backend", schema.SQLiteBackend)
	viper.SetDefault("store-db-connect", "")
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("color", "yes")
	viper.SetDefault("mqtt-topic", contract.DefaultMQTTTopic)
	viper.SetDefault("mqtt-client-id", contract.DefaultMQTTClientID)
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	color.NoColor = !cfg.UseColors

	// 4. Initialize the store with validated config
	if err := store.InitStore(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// commandSetup binds the flags of the running command before the shared setup.
// acquire and finesse declare the same acquisition keys, and viper keeps only the last binding per key.
func commandSetup(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding %s flags: %w", cmd.Name(), err)
	}
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	setConfigSource()

	// Load config file if present
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetStoreManager sets the global store manager.
func SetStoreManager(mgr contract.StoreManager) {
	storeManager = mgr
}
