//go:build integration || database

package integration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a shared prpulse binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// fixtureNow is the reference time passed to every command.
const fixtureNow = "2025-11-03T10:00:00Z"

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getBinary returns the path to the prpulse binary, building it once if needed.
func getBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "prpulse-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "prpulse")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if output, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build prpulse: %v\n%s", err, output))
		}

		sharedBinaryPath = binaryPath
	})

	return sharedBinaryPath
}

// cliResult captures one CLI invocation.
type cliResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// runCLI runs prpulse in dir with HOME pointed at dir so no user config or cache leaks in.
func runCLI(t *testing.T, dir string, env []string, args ...string) cliResult {
	t.Helper()
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "HOME="+dir)
	cmd.Env = append(cmd.Env, env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	res := cliResult{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		require.NoError(t, err)
	}
	if res.ExitCode != 0 {
		t.Logf("Command exited %d: %s\nStderr: %s", res.ExitCode, cmd.String(), res.Stderr)
	}
	return res
}

// fixtureRecord mirrors the 'gh pr list --json' shape.
type fixtureRecord struct {
	Number    int               `json:"number"`
	Title     string            `json:"title"`
	Author    map[string]string `json:"author"`
	CreatedAt time.Time         `json:"createdAt"`
	MergedAt  *time.Time        `json:"mergedAt"`
	State     string            `json:"state"`
}

// buildFixture generates a repository history:
// alice merges one PR a month from June 2024 through October 2025,
// bob merges four a month from January to June 2024 and then stops,
// renovate[bot] merges five and carol has two open PRs.
func buildFixture() []fixtureRecord {
	var records []fixtureRecord
	add := func(login string, merged time.Time, isMerged bool) {
		rec := fixtureRecord{
			Number:    len(records) + 1,
			Title:     fmt.Sprintf("change %d", len(records)+1),
			Author:    map[string]string{"login": login},
			CreatedAt: merged.Add(-26 * time.Hour),
			State:     "OPEN",
		}
		if isMerged {
			m := merged
			rec.MergedAt = &m
			rec.State = "MERGED"
		}
		records = append(records, rec)
	}

	for m := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC); m.Before(time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)); m = m.AddDate(0, 1, 0) {
		add("alice", m, true)
	}
	for m := time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC); m.Before(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)); m = m.AddDate(0, 1, 0) {
		for d := range 4 {
			add("bob", m.AddDate(0, 0, d*5), true)
		}
	}
	for i := range 5 {
		add("renovate[bot]", time.Date(2025, time.September, 1+i, 8, 0, 0, 0, time.UTC), true)
	}
	add("carol", time.Date(2025, time.October, 20, 8, 0, 0, 0, time.UTC), false)
	add("carol", time.Date(2025, time.October, 27, 8, 0, 0, 0, time.UTC), false)
	return records
}

// writeFixture writes the generated history to dir/name and returns its path.
func writeFixture(t *testing.T, dir, name string) (string, []fixtureRecord) {
	t.Helper()
	records := buildFixture()
	data, err := json.MarshalIndent(records, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, records
}
