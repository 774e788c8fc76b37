// ABOUTME: Wires configuration into the directory, cache, grants, agent and history layers
// ABOUTME: Every subcommand works against one App built lazily from the loaded config
package cli

import (
	"database/sql"
	"fmt"

	"github.com/harperreed/ucadmin/agent"
	"github.com/harperreed/ucadmin/cache"
	"github.com/harperreed/ucadmin/config"
	"github.com/harperreed/ucadmin/db"
	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/grants"
	"github.com/harperreed/ucadmin/handlers"
	"github.com/harperreed/ucadmin/workflow"
	"go.uber.org/zap"
)

// BackendFactory builds the raw workspace backend from configuration.
type BackendFactory func(cfg *config.Config) (directory.Backend, error)

func workspaceBackend(cfg *config.Config) (directory.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := directory.NewWorkspaceBackend(cfg.Databricks.Host, cfg.Databricks.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to workspace: %w", err)
	}
	return backend, nil
}

type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Cached  *directory.Cached
	Manager *grants.Manager
	Tools   *agent.Toolbox
	// Crew is nil when no LLM key is configured.
	Crew    *agent.Crew
	History *sql.DB
}

func NewApp(cfg *config.Config, backend directory.Backend, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := cache.New(
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithDeduplication(cfg.Cache.Deduplicate),
		cache.WithLogger(logger),
	)
	cached := directory.NewCached(directory.NewClient(backend, logger), store)
	manager := grants.NewManager(cached, logger)
	tools := agent.NewToolbox(cached, manager)

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Cached:  cached,
		Manager: manager,
		Tools:   tools,
	}

	if cfg.LLM.IsAvailable() {
		client := agent.NewChatClient(agent.ClientConfig{Endpoint: cfg.LLM.Endpoint, APIKey: cfg.LLM.APIKey})
		app.Crew = agent.NewCrew(client, tools,
			agent.WithModel(cfg.LLM.Model),
			agent.WithMaxIterations(cfg.LLM.MaxIterations),
			agent.WithLogger(logger),
		)
	}

	history, err := db.OpenDatabase(cfg.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	app.History = history

	return app, nil
}

// NewExecutor builds a workflow executor. With useAgent the steps go through
// the LLM crew, which must be configured.
func (a *App) NewExecutor(grant *agent.GrantArgs, useAgent bool) (*workflow.Executor, error) {
	steps := workflow.DirectSteps(a.Tools, grant)
	if useAgent {
		if a.Crew == nil {
			return nil, fmt.Errorf("agent mode needs OPENAI_API_KEY")
		}
		steps = workflow.AgentSteps(a.Crew, grant)
	}
	return workflow.NewExecutor(steps,
		workflow.WithPolicy(a.Config.Workflow.Policy()),
		workflow.WithLogger(a.Logger),
	), nil
}

// Handlers assembles the MCP server. Workflow runs use the crew when one is configured.
func (a *App) Handlers() *handlers.Server {
	factory := func(grant *agent.GrantArgs) *workflow.Executor {
		exec, err := a.NewExecutor(grant, a.Crew != nil)
		if err != nil {
			exec, _ = a.NewExecutor(grant, false)
		}
		return exec
	}

	return &handlers.Server{
		Directory: handlers.NewDirectoryHandlers(a.Cached, a.Tools, a.Manager),
		Workflow:  handlers.NewWorkflowHandlers(factory, a.History),
		Resources: handlers.NewResourceHandlers(a.Tools, a.History),
		Prompts:   handlers.NewPromptHandlers(a.Tools),
	}
}

func (a *App) Close() error {
	if a.History != nil {
		return a.History.Close()
	}
	return nil
}
