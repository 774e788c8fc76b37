// ABOUTME: Root cobra command, persistent flags and process exit handling
// ABOUTME: Loads config and the logger before any subcommand runs
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/harperreed/ucadmin/config"
	"github.com/harperreed/ucadmin/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	version = "dev"
	commit  = "none"
)

type rootOptions struct {
	configPath string
	output     string
	verbose    bool

	loadConfig func(path string) (*config.Config, error)
	newBackend BackendFactory

	cfg    *config.Config
	logger *zap.Logger
	app    *App
}

func defaultOptions() *rootOptions {
	return &rootOptions{
		loadConfig: config.Load,
		newBackend: workspaceBackend,
	}
}

// App builds the application on first use so that commands like version
// never need workspace credentials.
func (o *rootOptions) App() (*App, error) {
	if o.app != nil {
		return o.app, nil
	}
	backend, err := o.newBackend(o.cfg)
	if err != nil {
		return nil, err
	}
	app, err := NewApp(o.cfg, backend, o.logger)
	if err != nil {
		return nil, err
	}
	o.app = app
	return app, nil
}

// Execute runs the CLI.
func Execute() int {
	opts := defaultOptions()
	rootCmd := newRootCmd(opts)
	if err := rootCmd.Execute(); err != nil {
		if opts.output == outputJSON {
			_ = printJSON(os.Stdout, map[string]string{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ucadmin",
		Short:         "Unity Catalog access administration",
		Long:          "Browse catalogs, schemas, tables, users and groups in a Databricks workspace and manage their privileges.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("output") && opts.output == "" {
				opts.output = defaultOutput()
			}
			if !validOutput(opts.output) {
				return fmt.Errorf("unsupported output format %q: use 'table', 'json' or 'yaml'", opts.output)
			}

			if opts.cfg == nil {
				cfg, err := opts.loadConfig(opts.configPath)
				if err != nil {
					return err
				}
				opts.cfg = cfg
			}

			if opts.logger == nil {
				logOpts := logging.Options{Level: opts.cfg.LogLevel, Verbose: opts.verbose}
				if cmd.Name() == "tui" {
					logOpts.Path = filepath.Join(xdg.StateHome, "ucadmin", "tui.log")
				}
				logger, err := logging.New(logOpts)
				if err != nil {
					return err
				}
				opts.logger = logger
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if opts.app != nil {
				_ = opts.app.Close()
			}
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "Output format (table, json, yaml); default is table on a terminal, json otherwise")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newUsersCmd(opts))
	rootCmd.AddCommand(newCatalogsCmd(opts))
	rootCmd.AddCommand(newSchemasCmd(opts))
	rootCmd.AddCommand(newTablesCmd(opts))
	rootCmd.AddCommand(newGrantCmd(opts, "grant"))
	rootCmd.AddCommand(newGrantCmd(opts, "revoke"))
	rootCmd.AddCommand(newWorkflowCmd(opts))
	rootCmd.AddCommand(newDashboardCmd(opts))
	rootCmd.AddCommand(newGraphCmd(opts))
	rootCmd.AddCommand(newMCPCmd(opts))
	rootCmd.AddCommand(newTUICmd(opts))
	rootCmd.AddCommand(newWebCmd(opts))

	return rootCmd
}

func defaultOutput() string {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return outputTable
	}
	return outputJSON
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config and logger setup.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		PersistentPostRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ucadmin %s (commit: %s)\n", version, commit)
		},
	}
}
