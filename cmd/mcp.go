package cmd

import (
	"github.com/huangsam/prpulse/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the PR Pulse MCP server",
	Long:  `Launch an MCP server that allows AI agents to analyze contributor activity via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Inputs arrive per tool call, so positional args are ignored
		return sharedSetup(rootCtx, cmd, nil)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
