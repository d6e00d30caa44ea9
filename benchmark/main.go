// Package main provides a performance benchmarking tool for the prpulse CLI.
// It measures execution times across different export sizes and command types,
// running each test multiple times, treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
//   - prpulse binary installed and available in PATH
//   - PR exports in the base directory, one '<repo>-prs.json' file per repository
//     (e.g. 'gh pr list --state all --limit 5000 --json number,author,createdAt,mergedAt,state')
//
// Usage: go run benchmark/main.go [export-base-dir]
//
//	export-base-dir: Directory containing PR export files
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Repository  string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	ExportBase  string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Now         string
	Exports     map[string]string
	Commands    map[string]string
}

// benchmarkCommands are run against every export in this order.
var benchmarkCommands = []string{"health", "cohort", "lifecycle", "report"}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [export-base-dir]\n", os.Args[0])
		os.Exit(1)
	}
	exportBase := os.Args[1]

	config := BenchmarkConfig{
		ExportBase:  exportBase,
		Timeout:     2 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Now:         "2025-11-01",
		Commands: map[string]string{
			"health":    "",
			"cohort":    "--active-only no --min-prs 3",
			"lifecycle": "",
			"report":    "--output json --output-file /dev/null",
		},
	}

	exports, err := discoverExports(exportBase)
	if err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}
	config.Exports = exports

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	// Clear the cache using prpulse cache clear
	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("prpulse", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// discoverExports maps repository names to the '*-prs.json' files under base.
func discoverExports(base string) (map[string]string, error) {
	matches, err := filepath.Glob(filepath.Join(base, "*-prs.json"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no '*-prs.json' exports found in %s", base)
	}
	exports := make(map[string]string, len(matches))
	for _, path := range matches {
		repo := strings.TrimSuffix(filepath.Base(path), "-prs.json")
		exports[repo] = path
	}
	return exports, nil
}

// checkPrerequisites verifies that prpulse binary and exports exist
func checkPrerequisites(config BenchmarkConfig) error {
	// Check if prpulse is available
	if _, err := exec.LookPath("prpulse"); err != nil {
		return fmt.Errorf("prpulse binary not found in PATH")
	}

	// Check if exports are readable
	for repo, path := range config.Exports {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("export for %s not readable at %s: %w", repo, path, err)
		}
	}

	return nil
}

// sortedRepos returns the export names in a stable order.
func sortedRepos(exports map[string]string) []string {
	repos := lo.Keys(exports)
	slices.Sort(repos)
	return repos
}

// runBenchmarks executes all benchmark tests across discovered exports
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d exports, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Exports), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	repos := sortedRepos(config.Exports)
	for _, repo := range repos {
		fmt.Printf("Benchmarking %s\n", repo)
		input := repo + "=" + config.Exports[repo]
		for _, command := range benchmarkCommands {
			desc := fmt.Sprintf("%s analysis", command)
			results = append(results, runBenchmarkSuite(config, repo, input, command, desc, config.Commands[command]))
		}
	}

	// All exports together exercise the multi-repository paths
	if len(repos) > 1 {
		inputs := make([]string, 0, len(repos))
		for _, repo := range repos {
			inputs = append(inputs, repo+"="+config.Exports[repo])
		}
		results = append(results, runBenchmarkSuite(config, "all", strings.Join(inputs, ","), "report", "combined report", config.Commands["report"]))
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, repo, input, command, description, extraArgs string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", description, repo)

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, input, command, extraArgs, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			avg := lo.Sum(times) / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Repository:  repo,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a prpulse command multiple times with specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, input, command, extraArgs, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	// Prepare command arguments
	args := []string{command, "--cache-backend", cacheBackend, "--now", config.Now, "--workers", fmt.Sprint(config.Workers)}
	if extraArgs != "" {
		args = append(args, parseArgs(extraArgs)...)
	}
	args = append(args, input)

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("prpulse", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, extraArgs) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

func parseArgs(argsStr string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	for _, r := range argsStr {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ' ':
			if !inQuotes && current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			} else if inQuotes {
				current.WriteRune(r)
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

// isSuccess checks if command output indicates successful completion.
// Structured outputs carry no footer, so a clean exit is enough for them.
func isSuccess(output []byte, extraArgs string) bool {
	if strings.Contains(extraArgs, "--output ") {
		return true
	}
	outputStr := string(output)
	return strings.Contains(outputStr, "Analysis completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/prpulse_benchmark_%s.csv", timestamp)

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
	if err := writer.Write([]string{"repo", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Repository, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	for _, command := range benchmarkCommands {
		printCommandSummary(results, command, strings.ToUpper(command[:1])+command[1:]+" Analysis:")
	}

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-12s: No-cache: %s, Cold: %s, Warm: %s\n", result.Repository, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}
