// ABOUTME: Interactive front ends: full-screen terminal UI and local web UI
// ABOUTME: Both share the cached directory and the grants manager
package cli

import (
	"os/signal"
	"syscall"

	"github.com/harperreed/ucadmin/tui"
	"github.com/harperreed/ucadmin/web"
	"github.com/spf13/cobra"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse the workspace and manage permissions in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), app.Cached, app.Manager)
		},
	}
}

func newWebCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = app.Config.Web.Addr
			}

			server, err := web.NewServer(app.Cached, app.Manager, app.Tools, app.Logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Start(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	return cmd
}
