// ABOUTME: workflow, graph and dashboard subcommands
// ABOUTME: Runs the list-then-grant workflow, records it, and renders graphs and summaries
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harperreed/ucadmin/agent"
	"github.com/harperreed/ucadmin/db"
	"github.com/harperreed/ucadmin/viz"
	"github.com/harperreed/ucadmin/workflow"
	"github.com/spf13/cobra"
)

func newWorkflowCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Run and inspect the List Catalogs, List Users, Grant Access workflow",
	}
	cmd.AddCommand(newWorkflowRunCmd(opts))
	cmd.AddCommand(newWorkflowHistoryCmd(opts))
	cmd.AddCommand(newWorkflowGraphCmd(opts))
	return cmd
}

func newWorkflowRunCmd(opts *rootOptions) *cobra.Command {
	var (
		flags    grantFlags
		useAgent bool
		policy   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the workflow once; omit the grant flags to only list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			if policy != "" {
				p, err := workflow.ParseErrorPolicy(policy)
				if err != nil {
					return err
				}
				app.Config.Workflow.HaltOnError = p == workflow.HaltOnError
			}

			var grant *agent.GrantArgs
			if !flags.empty() {
				grant = &agent.GrantArgs{
					Principal:  flags.principal,
					ObjectType: flags.objectType,
					ObjectName: flags.objectName,
					Privilege:  flags.privilege,
				}
			}

			exec, err := app.NewExecutor(grant, useAgent)
			if err != nil {
				return err
			}
			run, runErr := exec.Run(cmd.Context())
			if err := db.SaveRun(app.History, run); err != nil {
				return fmt.Errorf("failed to record run: %w", err)
			}

			if err := render(cmd.OutOrStdout(), opts.output, run, func(w io.Writer) error {
				return writeRun(w, run)
			}); err != nil {
				return err
			}
			return runErr
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&useAgent, "agent", false, "Drive each step through the LLM agents")
	cmd.Flags().StringVar(&policy, "on-error", "", "Error policy: continue or halt (default from config)")
	return cmd
}

func writeRun(w io.Writer, run *workflow.Run) error {
	fmt.Fprintf(w, "Run %s (%s)\n\n", run.ID, run.Policy)
	t := newTable("STEP", "STATUS", "DURATION", "ERROR")
	for _, s := range run.Steps {
		t.add(s.Name, string(s.Status), s.Duration.Round(time.Millisecond).String(), orDash(s.Error))
	}
	if err := t.write(w); err != nil {
		return err
	}

	if len(run.State.CatalogList) > 0 {
		fmt.Fprintf(w, "\nCatalogs: %d\n", len(run.State.CatalogList))
	}
	if run.State.UserList != nil {
		fmt.Fprintf(w, "Users: %d, Groups: %d\n", len(run.State.UserList.Users), len(run.State.UserList.Groups))
	}
	for _, status := range run.State.GrantStatus {
		fmt.Fprintf(w, "Grant: %s\n", status)
	}
	if run.Halted {
		fmt.Fprintln(w, "\nHalted after the first failure.")
	}
	return nil
}

func newWorkflowHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent workflow runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			runs, err := db.ListRuns(app.History, limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			return render(cmd.OutOrStdout(), opts.output, runs, func(w io.Writer) error {
				if len(runs) == 0 {
					fmt.Fprintln(w, "No workflow runs recorded.")
					return nil
				}
				t := newTable("ID", "STARTED", "POLICY", "RESULT")
				for _, r := range runs {
					t.add(r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), string(r.Policy), runResult(r))
				}
				if err := t.write(w); err != nil {
					return err
				}
				fmt.Fprintf(w, "\nTotal: %d run(s)\n", len(runs))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to show")
	return cmd
}

func runResult(r *workflow.Run) string {
	switch {
	case r.Halted:
		return "halted"
	case r.Failed():
		return "failed"
	default:
		return "ok"
	}
}

func newWorkflowGraphCmd(opts *rootOptions) *cobra.Command {
	var runID, outFile string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the workflow as Graphviz DOT, optionally colored by a past run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}

			var run *workflow.Run
			if runID != "" {
				run, err = db.GetRun(app.History, runID)
				if err != nil {
					return fmt.Errorf("failed to fetch run: %w", err)
				}
				if run == nil {
					return fmt.Errorf("run not found: %s", runID)
				}
			}

			exec, err := app.NewExecutor(nil, false)
			if err != nil {
				return err
			}
			dot, err := viz.WorkflowGraph(cmd.Context(), exec.StepNames(), run)
			if err != nil {
				return fmt.Errorf("failed to generate graph: %w", err)
			}
			return writeDOT(cmd.OutOrStdout(), outFile, dot)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Color steps by the outcome of this run")
	cmd.Flags().StringVar(&outFile, "output-file", "", "Output file (default: stdout)")
	return cmd
}

func newGraphCmd(opts *rootOptions) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render catalogs and their schemas as Graphviz DOT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			catalogs, err := app.Tools.ListCatalogsAndSchemas(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list catalogs: %w", err)
			}
			dot, err := viz.CatalogGraph(cmd.Context(), catalogs)
			if err != nil {
				return fmt.Errorf("failed to generate graph: %w", err)
			}
			return writeDOT(cmd.OutOrStdout(), outFile, dot)
		},
	}
	cmd.Flags().StringVar(&outFile, "output-file", "", "Output file (default: stdout)")
	return cmd
}

func writeDOT(w io.Writer, outFile, dot string) error {
	if outFile != "" {
		return os.WriteFile(outFile, []byte(dot), 0644)
	}
	_, err := fmt.Fprintln(w, dot)
	return err
}

func newDashboardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show catalog, schema and principal counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.App()
			if err != nil {
				return err
			}
			stats, err := viz.GenerateDashboardStats(cmd.Context(), app.Tools)
			if err != nil {
				return fmt.Errorf("failed to generate dashboard stats: %w", err)
			}
			stats.Cache = app.Cached.Stats()

			runs, err := db.ListRuns(app.History, 1)
			if err != nil {
				return fmt.Errorf("failed to read run history: %w", err)
			}
			if len(runs) > 0 {
				stats.LastRunSummary = fmt.Sprintf("%s  %s  %s",
					runs[0].ID, runs[0].StartedAt.Format("2006-01-02 15:04"), runResult(runs[0]))
			}

			return render(cmd.OutOrStdout(), opts.output, stats, func(w io.Writer) error {
				_, err := fmt.Fprint(w, viz.RenderDashboard(stats))
				return err
			})
		},
	}
}
