package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mrz1836/foundry/internal/mcpserver"
)

// AddMCPCommand adds the mcp command.
func AddMCPCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(&cobra.Command{
		Use:   "mcp",
		Short: "Serve the engine over MCP on stdio",
		Long: `Run an MCP server on stdin/stdout exposing start_build, get_state, and
plan_build. Logs go to stderr and the log file only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd.Context(), flags, cmd.Root().Version)
		},
	})
}

func runMCP(ctx context.Context, flags *GlobalFlags, version string) error {
	svc, err := setupServices(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	logger := GetLogger().With().Str("component", "mcp").Logger()
	logger.Info().Msg("serving MCP on stdio")
	return mcpserver.Serve(mcpserver.New(svc.Engine, version, logger))
}
