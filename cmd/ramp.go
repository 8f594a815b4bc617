package cmd

import (
	"github.com/hockijo/techconnect/core"
	"github.com/hockijo/techconnect/internal/contract"
	"github.com/spf13/cobra"
)

// rampCmd programs the function generator.
var rampCmd = &cobra.Command{
	Use:   "ramp",
	Short: "Drive a ramp from the DG1000 function generator.",
	Long: `Reset the function generator, program a ramp between --ramp-v1 and --ramp-v2
at --ramp-frequency on the chosen output and switch that output on.

The generator's APPLY? answer is printed so the applied settings can be checked.

Examples:
  # 100 Hz ramp from 0 V to 2 V on output 1
  techconnect ramp --address 192.168.1.30 --ramp-v1 0 --ramp-v2 2

  # Slow ramp on output 2
  techconnect ramp --address 192.168.1.30 --ramp-channel 2 --ramp-frequency 10`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRamp(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot drive ramp", err)
		}
	},
}
