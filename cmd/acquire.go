package cmd

import (
	"github.com/hockijo/techconnect/core"
	"github.com/hockijo/techconnect/internal/contract"
	"github.com/spf13/cobra"
)

// acquireCmd performs a segmented capture.
var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Capture segmented waveforms from the oscilloscope.",
	Long: `Arm the oscilloscope in segmented memory mode, capture every segment of the
requested channels and rebuild the waveforms from the binary transfers.

Each run is stored with its time tags and preamble so it can be measured later
with 'techconnect finesse --run-id'.

Stitched captures join the segments into one continuous trace. Use --acq-time
to cover a longer span: the segment count is then estimated from the scope's
sample rate unless --segments is given explicitly.

Examples:
  # Capture 200 segments of 50 ms on channels 1 and 2
  techconnect acquire --address 192.168.1.20 --segments 200 --time-window 0.05

  # Stitch one second of data in high resolution mode
  techconnect acquire --address 192.168.1.20 --acq-time 1 --acq-mode HRESOLUTION

  # Drive a Rigol scope through a Prologix GPIB adapter
  techconnect acquire --transport prologix --address /dev/ttyUSB0 --dialect rigol

  # Write every sample to CSV
  techconnect acquire --output csv --output-file capture.csv`,
	PreRunE: commandSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAcquire(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run acquisition", err)
		}
	},
}
