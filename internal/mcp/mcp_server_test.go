package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/iocache"
	mcp_internal "github.com/huangsam/prpulse/internal/mcp"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInput = `[
  {"number": 1, "author": {"login": "alice"}, "createdAt": "2025-09-01T10:00:00Z", "mergedAt": "2025-09-02T10:00:00Z", "state": "MERGED"},
  {"number": 2, "author": {"login": "alice"}, "createdAt": "2025-10-01T10:00:00Z", "mergedAt": "2025-10-01T12:00:00Z", "state": "MERGED"},
  {"number": 3, "author": {"login": "bob"}, "createdAt": "2024-01-10T10:00:00Z", "mergedAt": "2024-01-12T10:00:00Z", "state": "MERGED"},
  {"number": 4, "author": {"login": "dependabot[bot]"}, "createdAt": "2025-10-05T10:00:00Z", "mergedAt": "2025-10-05T11:00:00Z", "state": "MERGED"}
]`

func baseConfig() *contract.Config {
	return &contract.Config{
		WindowMonths:  6,
		MinPRs:        1,
		ActiveOnly:    true,
		ResultLimit:   15,
		InactiveLimit: 10,
		InactiveFloor: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:           time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC),
		NowPinned:     true,
		Workers:       2,
		Precision:     1,
	}
}

func newServer(t *testing.T) *server.MCPServer {
	t.Helper()
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetActivityStore").Return(nil)
	mgr.On("GetAnalysisStore").Return(nil)
	return mcp_internal.NewMCPServer(baseConfig(), mgr)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestMCPServerRegistersTools(t *testing.T) {
	s := newServer(t)
	for _, name := range []string{
		"get_contributor_health",
		"get_cohort_summary",
		"get_lifecycle_metrics",
		"get_repo_velocity",
		"get_report",
	} {
		tool := s.GetTool(name)
		require.NotNil(t, tool, name)
		assert.Contains(t, tool.Tool.InputSchema.Required, "inputs")
	}
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s := newServer(t)
	input := writeFile(t, "api-prs.json", sampleInput)

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		contains string
	}{
		{"missing inputs", "get_contributor_health", map[string]any{}, "inputs is required"},
		{"unknown file", "get_cohort_summary", map[string]any{"inputs": filepath.Join(t.TempDir(), "nope.json")}, "not readable"},
		{"window too large", "get_report", map[string]any{"inputs": input, "window": 500.0}, "window must be"},
		{"negative min prs", "get_cohort_summary", map[string]any{"inputs": input, "min_prs": -2.0}, "min_prs cannot be negative"},
		{"bad active only", "get_repo_velocity", map[string]any{"inputs": input, "active_only": "perhaps"}, "invalid active_only"},
		{"bad now", "get_lifecycle_metrics", map[string]any{"inputs": input, "now": "whenever"}, "invalid now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, s, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(t, res), tt.contains)
		})
	}
}

func TestMCPServerHandlers_AnalysisFailure(t *testing.T) {
	s := newServer(t)
	broken := writeFile(t, "broken-prs.json", "{not json")

	res := callTool(t, s, "get_report", map[string]any{"inputs": broken})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "analysis failed")
}

func TestMCPServerHandlers_Results(t *testing.T) {
	s := newServer(t)
	input := writeFile(t, "api-prs.json", sampleInput)

	t.Run("contributor health honors limit", func(t *testing.T) {
		res := callTool(t, s, "get_contributor_health", map[string]any{"inputs": input, "limit": 1.0})
		require.False(t, res.IsError, resultText(t, res))

		var rows []struct {
			Rank    int `json:"rank"`
			Profile struct {
				Name string `json:"name"`
			} `json:"profile"`
		}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, 1, rows[0].Rank)
	})

	t.Run("cohort summary", func(t *testing.T) {
		res := callTool(t, s, "get_cohort_summary", map[string]any{"inputs": input})
		require.False(t, res.IsError, resultText(t, res))

		var cohort struct {
			BusFactor int `json:"busFactor"`
			Ranked    []struct {
				Name string `json:"name"`
			} `json:"ranked"`
		}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &cohort))
		assert.Equal(t, 1, cohort.BusFactor)
		require.Len(t, cohort.Ranked, 1)
		assert.Equal(t, "alice", cohort.Ranked[0].Name)
	})

	t.Run("cohort summary with inactive included", func(t *testing.T) {
		res := callTool(t, s, "get_cohort_summary", map[string]any{"inputs": input, "active_only": "no", "min_prs": 0.0})
		require.False(t, res.IsError, resultText(t, res))

		var cohort struct {
			Ranked []struct {
				Name string `json:"name"`
			} `json:"ranked"`
		}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &cohort))
		assert.Len(t, cohort.Ranked, 2)
	})

	t.Run("lifecycle metrics", func(t *testing.T) {
		res := callTool(t, s, "get_lifecycle_metrics", map[string]any{"inputs": input})
		require.False(t, res.IsError, resultText(t, res))

		var lifecycle map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &lifecycle))
		assert.Contains(t, lifecycle, "monthly")
		assert.Contains(t, lifecycle, "distribution")
	})

	t.Run("repo velocity", func(t *testing.T) {
		res := callTool(t, s, "get_repo_velocity", map[string]any{"inputs": "core=" + input})
		require.False(t, res.IsError, resultText(t, res))

		var repos struct {
			Velocity []struct {
				Repository string `json:"repository"`
			} `json:"velocity"`
			Repositories []struct {
				Repository string `json:"repository"`
				HumanPRs   int    `json:"humanPRs"`
			} `json:"repositories"`
		}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &repos))
		require.Len(t, repos.Velocity, 1)
		assert.Equal(t, "core", repos.Velocity[0].Repository)
		require.Len(t, repos.Repositories, 1)
		assert.Equal(t, 3, repos.Repositories[0].HumanPRs)
	})

	t.Run("full report", func(t *testing.T) {
		res := callTool(t, s, "get_report", map[string]any{"inputs": input, "window": 3.0})
		require.False(t, res.IsError, resultText(t, res))

		var report struct {
			Params struct {
				RecencyWindowMonths int `json:"recencyWindowMonths"`
			} `json:"params"`
			Contributors []any `json:"contributors"`
		}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &report))
		assert.Equal(t, 3, report.Params.RecencyWindowMonths)
		assert.Len(t, report.Contributors, 2)
	})
}
