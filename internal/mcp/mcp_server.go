// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/prpulse/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// analysisOptions are shared by every tool since each one runs the full analysis.
func analysisOptions(description string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("inputs", mcp.Description("Comma-separated PR export files, optionally prefixed with 'repo=' (e.g. 'api=api-prs.json,web-prs.json')."), mcp.Required()),
		mcp.WithNumber("window", mcp.Description("Recency window in months. Defaults to the server configuration.")),
		mcp.WithNumber("min_prs", mcp.Description("Minimum authored PRs for the cohort ranking.")),
		mcp.WithString("active_only", mcp.Description("Keep only contributors with recent activity in the ranking (yes/no).")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of ranked rows returned.")),
		mcp.WithString("now", mcp.Description("Reference time as RFC3339, YYYY-MM-DD or 'N units ago'.")),
	}
}

// NewMCPServer initializes and configures the prpulse MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"PR Pulse Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_contributor_health ---
	s.AddTool(mcp.NewTool("get_contributor_health",
		analysisOptions("Score every contributor's activity, consistency, workload, diversity and sustainability, ranked by risk.")...,
	), h.handleGetContributorHealth)

	// --- 2. Tool: get_cohort_summary ---
	s.AddTool(mcp.NewTool("get_cohort_summary",
		analysisOptions("Rank active contributors and compute the bus factor, significant contributors and recently inactive members.")...,
	), h.handleGetCohortSummary)

	// --- 3. Tool: get_lifecycle_metrics ---
	s.AddTool(mcp.NewTool("get_lifecycle_metrics",
		analysisOptions("Compute monthly time-to-merge and first-interaction metrics with a latency distribution.")...,
	), h.handleGetLifecycleMetrics)

	// --- 4. Tool: get_repo_velocity ---
	s.AddTool(mcp.NewTool("get_repo_velocity",
		analysisOptions("Summarize merged PR velocity, contributors and monthly timeline per repository.")...,
	), h.handleGetRepoVelocity)

	// --- 5. Tool: get_report ---
	s.AddTool(mcp.NewTool("get_report",
		analysisOptions("Return the complete contributor activity report.")...,
	), h.handleGetReport)

	return s
}

// StartMCPServer starts the prpulse MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
