package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/prpulse/core"
	"github.com/huangsam/prpulse/core/algo"
	"github.com/huangsam/prpulse/internal/contract"
	"github.com/huangsam/prpulse/internal/outwriter"
	"github.com/huangsam/prpulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// toolArgs reads the shared analysis arguments from a request.
func toolArgs(request mcp.CallToolRequest) contract.ToolArgs {
	args := contract.ToolArgs{
		Inputs:     request.GetString("inputs", ""),
		Window:     request.GetInt("window", 0),
		ActiveOnly: request.GetString("active_only", ""),
		Limit:      request.GetInt("limit", 0),
		Now:        request.GetString("now", ""),
	}
	if _, ok := request.GetArguments()["min_prs"]; ok {
		minPRs := request.GetInt("min_prs", 0)
		args.MinPRs = &minPRs
	}
	return args
}

// runReport validates the request against a clone of the base config and builds the report.
// A non-nil result is a tool error to hand back to the client.
func (h *toolHandler) runReport(ctx context.Context, request mcp.CallToolRequest) (*contract.Config, schema.Report, *mcp.CallToolResult) {
	cfg := h.baseCfg.Clone()
	if err := contract.ApplyToolArgs(cfg, toolArgs(request)); err != nil {
		return nil, schema.Report{}, mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err))
	}

	report, err := core.BuildReport(ctx, cfg, h.mgr)
	if err != nil {
		return nil, schema.Report{}, mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err))
	}
	return cfg, report, nil
}

func jsonResult(data any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleGetContributorHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, report, toolErr := h.runReport(ctx, request)
	if toolErr != nil {
		return toolErr, nil
	}
	ranked := algo.RankHealth(report.Contributors, cfg.ResultLimit)
	return jsonResult(schema.EnrichContributors(ranked)), nil
}

func (h *toolHandler) handleGetCohortSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, report, toolErr := h.runReport(ctx, request)
	if toolErr != nil {
		return toolErr, nil
	}
	return jsonResult(report.Cohort), nil
}

func (h *toolHandler) handleGetLifecycleMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, report, toolErr := h.runReport(ctx, request)
	if toolErr != nil {
		return toolErr, nil
	}
	return jsonResult(report.Lifecycle), nil
}

func (h *toolHandler) handleGetRepoVelocity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, report, toolErr := h.runReport(ctx, request)
	if toolErr != nil {
		return toolErr, nil
	}
	return jsonResult(outwriter.RepoOutput{
		Velocity:     report.Velocity,
		Repositories: report.Repositories,
		Timeline:     report.Timeline,
	}), nil
}

func (h *toolHandler) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, report, toolErr := h.runReport(ctx, request)
	if toolErr != nil {
		return toolErr, nil
	}
	return jsonResult(report), nil
}
