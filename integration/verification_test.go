//go:build integration

// Package integration contains integration tests for techconnect.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
package integration

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolatedEnv keeps the SQLite store and any config file out of the user's home directory.
func isolatedEnv(t *testing.T) []string {
	t.Helper()
	return []string{"HOME=" + t.TempDir()}
}

// TestAcquireVerification captures from the simulator and checks the written samples.
func TestAcquireVerification(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "capture.csv")
	args := append([]string{"acquire", "--store-backend", "none", "--output", "csv", "--output-file", outFile}, simArgs...)
	_, err := runCommand(t, isolatedEnv(t), args...)
	require.NoError(t, err)

	f, err := os.Open(outFile)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	assert.Equal(t, []string{"channel", "segment", "time_tag", "x", "y"}, rows[0])
	segments := map[string]map[string]bool{}
	for _, row := range rows[1:] {
		if segments[row[0]] == nil {
			segments[row[0]] = map[string]bool{}
		}
		segments[row[0]][row[1]] = true
	}
	assert.Len(t, segments, 2, "both channels are written")
	for ch, segs := range segments {
		assert.Len(t, segs, 3, "channel %s segments", ch)
	}
}

// TestFinesseVerification acquires, stores and measures a simulated cavity.
func TestFinesseVerification(t *testing.T) {
	env := isolatedEnv(t)
	args := append([]string{"finesse", "--output", "json"}, simArgs...)
	out, err := runCommand(t, env, args...)
	require.NoError(t, err)

	var summary struct {
		RunID    int64   `json:"run_id"`
		Average  float64 `json:"average"`
		Valid    int     `json:"valid"`
		Segments []struct {
			Label string `json:"label"`
		} `json:"segments"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, int64(1), summary.RunID)
	assert.Equal(t, 3, summary.Valid)
	assert.InEpsilon(t, 15.0, summary.Average, 0.05)
	assert.Len(t, summary.Segments, 3)

	// The stored run can be measured again without the instrument
	out, err = runCommand(t, env, "finesse", "--run-id", "1", "--output", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 4, "header plus one row per segment")

	out, err = runCommand(t, env, "runs", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 1")
}

// TestRampVerification drives the simulated generator and checks the readback.
func TestRampVerification(t *testing.T) {
	out, err := runCommand(t, isolatedEnv(t), "ramp", "--transport", "sim", "--line-delay", "0s",
		"--store-backend", "none", "--ramp-channel", "2", "--ramp-v1", "1", "--ramp-v2", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Ramp on generator channel 2")
	assert.Contains(t, out, "Applied: RAMP")
}
