package cmd

import (
	"github.com/hockijo/techconnect/core"
	"github.com/hockijo/techconnect/internal/contract"
	"github.com/spf13/cobra"
)

// finesseCmd measures finesse per segment.
var finesseCmd = &cobra.Command{
	Use:   "finesse",
	Short: "Measure cavity finesse from the scan and transmission channels.",
	Long: `Measure the finesse of every captured segment.

For each segment the ramp channel is filtered and reduced to find its turning
points, the ramp window between a pair of turning points is selected and the
finesse is computed from the first two resonances of the transmission channel
inside that window. Segments that cannot be measured are reported with their
reason and excluded from the average.

Without --run-id a new capture is taken first, always including the scan and
response channels. With --run-id a stored run is measured instead and the
instrument is not contacted.

Examples:
  # Acquire and measure in one step
  techconnect finesse --address 192.168.1.20 --segments 50

  # Measure a stored run on the reverse ramp
  techconnect finesse --run-id 12 --direction reverse

  # Fixed thresholds instead of the automatic ones
  techconnect finesse --run-id 12 --threshold 0.02 --peak-height 0.5`,
	PreRunE: commandSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFinesse(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run finesse analysis", err)
		}
	},
}
