package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/schema"
)

// RampReport describes a ramp drive that was applied to a function generator.
type RampReport struct {
	Channel   int     `json:"channel"`
	Frequency float64 `json:"frequency"`
	Amplitude float64 `json:"amplitude"`
	Offset    float64 `json:"offset"`
	Applied   string  `json:"applied"` // APPLY? echo from the generator
}

// PrintRamp outputs a ramp report, dispatching based on the output format configured.
func PrintRamp(report RampReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON ramp report"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteRampCSV(w, report, cfg)
		}, "Wrote CSV ramp report"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		WriteRampText(os.Stdout, report, cfg)
	}
	return nil
}

// WriteRampText prints the drive settings and the generator echo.
func WriteRampText(w io.Writer, report RampReport, cfg *contract.Config) {
	fmtFloat, fmtSci := createFormatters(cfg.Precision)
	_, _ = fmt.Fprintf(w, "Ramp on generator channel %d: %sHz, %sVpp, offset %sV\n",
		report.Channel, fmtSci(report.Frequency), fmtFloat(report.Amplitude), fmtFloat(report.Offset))
	_, _ = fmt.Fprintf(w, "Applied: %s\n", report.Applied)
}

// WriteRampCSV writes the report as a single row.
func WriteRampCSV(w io.Writer, report RampReport, cfg *contract.Config) error {
	precision := cfg.Precision + 3
	header := []string{"channel", "frequency", "amplitude", "offset", "applied"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		return cw.Write([]string{
			strconv.Itoa(report.Channel),
			strconv.FormatFloat(report.Frequency, 'g', precision, 64),
			strconv.FormatFloat(report.Amplitude, 'g', precision, 64),
			strconv.FormatFloat(report.Offset, 'g', precision, 64),
			report.Applied,
		})
	})
}
