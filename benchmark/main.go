// Package main provides a performance benchmarking tool for the techconnect CLI.
// It measures acquisition and finesse times across segment counts and capture modes,
// running each scenario multiple times, treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - techconnect binary installed and available in PATH
// - A reachable scope address, or "sim" to use the built-in simulator
//
// Usage: go run benchmark/main.go [scope-address|sim]
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark scenario (no-store average, cold run and average of warm runs).
type BenchmarkResult struct {
	Scenario    string
	Command     string
	NoStoreTime string
	ColdTime    string
	WarmTime    string
}

// Scenario describes one capture shape to benchmark.
type Scenario struct {
	Name       string
	Segments   int
	TimeWindow float64
	Stitched   bool
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Address     string
	Timeout     time.Duration
	NoStoreRuns int
	StoreRuns   int
	Scenarios   []Scenario
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [scope-address|sim]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		Address:     os.Args[1],
		Timeout:     5 * time.Minute,
		NoStoreRuns: 3,
		StoreRuns:   4,
		Scenarios: []Scenario{
			{Name: "small", Segments: 10, TimeWindow: 0.002},
			{Name: "medium", Segments: 50, TimeWindow: 0.002},
			{Name: "large", Segments: 200, TimeWindow: 0.002},
			{Name: "stitched", Segments: 50, TimeWindow: 0.002, Stitched: true},
		},
	}

	if _, err := exec.LookPath("techconnect"); err != nil {
		fmt.Printf("Prerequisites check failed: techconnect binary not found in PATH\n")
		os.Exit(1)
	}

	// Clear the store using techconnect runs clear
	fmt.Printf("Clearing store...\n")
	clearCmd := exec.Command("techconnect", "runs", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear store: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Store cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// linkArgs returns the transport flags for the configured address.
func linkArgs(address string) []string {
	if address == "sim" {
		return []string{"--transport", "sim", "--line-delay", "0s"}
	}
	return []string{"--transport", "socket", "--address", address}
}

// scenarioArgs returns the capture flags of a scenario.
func scenarioArgs(s Scenario) []string {
	args := []string{
		"--segments", strconv.Itoa(s.Segments),
		"--time-window", strconv.FormatFloat(s.TimeWindow, 'g', -1, 64),
	}
	if s.Stitched {
		args = append(args, "--stitched")
	}
	return args
}

// runBenchmarks executes all scenarios for both commands
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d scenarios, %v timeout, no-store: %d runs, store: %d runs\n",
		len(config.Scenarios), config.Timeout, config.NoStoreRuns, config.StoreRuns)

	for _, s := range config.Scenarios {
		fmt.Printf("Benchmarking %s (%d segments)\n", s.Name, s.Segments)
		for _, command := range []string{"acquire", "finesse"} {
			results = append(results, runBenchmarkSuite(config, s, command))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-store and store benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, s Scenario, command string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, s.Name)

	// Helper to run a benchmark phase
	runPhase := func(backend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, s, command, backend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-store runs
	_, noStoreAvg := runPhase("none", config.NoStoreRuns, "No-store")

	// Phase 2: SQLite store runs
	coldTime, warmAvg := runPhase("sqlite", config.StoreRuns, "Store")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-store average: %s, Cold time: %s, Warm average: %s\n", noStoreAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Scenario:    s.Name,
		Command:     command,
		NoStoreTime: noStoreAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a techconnect command multiple times with the specified store backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, s Scenario, command, backend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{command, "--store-backend", backend, "--color", "no"}
	args = append(args, linkArgs(config.Address)...)
	args = append(args, scenarioArgs(s)...)

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("techconnect", args...)

		done := make(chan bool, 1)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, command) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	completionPhrase := "Acquisition completed in"
	if command == "finesse" {
		completionPhrase = "Analysis completed in"
	}
	return strings.Contains(string(output), completionPhrase)
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/techconnect_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"scenario", "cmd", "no_store_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Scenario, result.Command, result.NoStoreTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "acquire", "Acquisition:")
	printCommandSummary(results, "finesse", "Finesse Analysis:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-10s: No-store: %s, Cold: %s, Warm: %s\n", result.Scenario, result.NoStoreTime, result.ColdTime, result.WarmTime)
		}
	}
}
