// ABOUTME: MCP server subcommand
// ABOUTME: Serves the directory and grant tools over stdio for desktop agents
package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			app.Logger.Info("starting MCP server", zap.String("version", version))

			server := app.Handlers().Build(version)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
