// ABOUTME: The three directory agents used by the access workflow
// ABOUTME: Catalog lister, user and group lister, and access manager
package agent

import (
	"go.uber.org/zap"
)

// Crew builds agents that share one chat client and toolbox.
type Crew struct {
	client        ChatClient
	model         string
	maxIterations int
	toolbox       *Toolbox
	logger        *zap.Logger
}

type CrewOption func(*Crew)

func WithModel(model string) CrewOption {
	return func(c *Crew) {
		if model != "" {
			c.model = model
		}
	}
}

func WithMaxIterations(n int) CrewOption {
	return func(c *Crew) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

func WithLogger(logger *zap.Logger) CrewOption {
	return func(c *Crew) {
		c.logger = logger
	}
}

func NewCrew(client ChatClient, toolbox *Toolbox, opts ...CrewOption) *Crew {
	c := &Crew{
		client:        client,
		model:         DefaultModel,
		maxIterations: DefaultMaxIterations,
		toolbox:       toolbox,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("agent")
	return c
}

func (c *Crew) agent(role, goal, backstory string, tools ...Tool) *Agent {
	return &Agent{
		Role:          role,
		Goal:          goal,
		Backstory:     backstory,
		Tools:         tools,
		client:        c.client,
		model:         c.model,
		maxIterations: c.maxIterations,
		logger:        c.logger.With(zap.String("role", role)),
	}
}

func (c *Crew) CatalogLister() *Agent {
	return c.agent("CatalogLister",
		"List all catalogs and schemas in Unity Catalog",
		"Expert at Databricks Unity Catalog data organization",
		c.toolbox.ListCatalogsTool())
}

func (c *Crew) UserGroupLister() *Agent {
	return c.agent("UserGroupLister",
		"List all workspace users and groups",
		"Knows how to read users and groups from the Databricks workspace",
		c.toolbox.ListUsersGroupsTool())
}

func (c *Crew) AccessManager() *Agent {
	return c.agent("AccessManager",
		"Grant catalog, schema or table access to users and groups",
		"Expert at managing Unity Catalog permissions",
		c.toolbox.GrantAccessTool())
}
