package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Finesse quality label constants.
const (
	HighValue     = "High"     // High value
	ModerateValue = "Moderate" // Moderate value
	LowValue      = "Low"      // Low value
	FailedValue   = "Failed"   // Segment produced no value
)

// Finesse thresholds separating the quality labels.
const (
	HighFinesse     = 1000.0
	ModerateFinesse = 100.0
)

// Color variables for console output.
var (
	HighColor     = color.New(color.FgGreen, color.Bold) // highColor represents a sharp cavity.
	ModerateColor = color.New(color.FgYellow)            // moderateColor represents a usable cavity.
	LowColor      = color.New(color.FgCyan)              // lowColor represents a lossy cavity.
	FailedColor   = color.New(color.FgRed, color.Bold)   // failedColor marks a segment without a value.
)

// GetPlainLabel returns a plain text label for a finesse value.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(finesse float64) string {
	switch {
	case finesse >= HighFinesse:
		return HighValue
	case finesse >= ModerateFinesse:
		return ModerateValue
	case finesse > 0:
		return LowValue
	default:
		return FailedValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(finesse float64) string {
	text := GetPlainLabel(finesse)

	switch text {
	case HighValue:
		return HighColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	case LowValue:
		return LowColor.Sprint(text)
	default:
		return FailedColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogInfo logs a progress message to stderr so stdout stays parseable.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// GetStoreDBFilePath returns the path to the SQLite DB file for acquisition storage.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".techconnect.db"
	}
	return filepath.Join(homeDir, ".techconnect.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
