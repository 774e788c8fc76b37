// ABOUTME: MCP server assembly
// ABOUTME: Registers every tool, resource and prompt on one server
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type Server struct {
	Directory *DirectoryHandlers
	Workflow  *WorkflowHandlers
	Resources *ResourceHandlers
	Prompts   *PromptHandlers
}

func (s *Server) Build(version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ucadmin",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_catalogs",
		Description: "List all catalogs in Unity Catalog with the schemas each contains",
	}, s.Directory.ListCatalogs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_users_groups",
		Description: "List all workspace users and groups",
	}, s.Directory.ListUsersGroups)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_schemas",
		Description: "List the schemas of one catalog",
	}, s.Directory.ListSchemas)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tables",
		Description: "List the tables of one schema",
	}, s.Directory.ListTables)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "grant_access",
		Description: "Grant a privilege to a user or group on a Unity Catalog object",
	}, s.Directory.GrantAccess)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "revoke_access",
		Description: "Revoke a privilege from a user or group on a Unity Catalog object",
	}, s.Directory.RevokeAccess)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refresh_cache",
		Description: "Drop every cached listing so the next read goes to the workspace",
	}, s.Directory.RefreshCache)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_workflow",
		Description: "Run List Catalogs, List Users and Grant Access in order; omit the grant fields to only list",
	}, s.Workflow.RunWorkflow)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_workflow_runs",
		Description: "List recent workflow runs, newest first",
	}, s.Workflow.ListRuns)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "workflow_graph",
		Description: "Render the workflow as Graphviz DOT, optionally colored by a past run",
	}, s.Workflow.WorkflowGraph)

	for _, r := range s.Resources.Resources() {
		server.AddResource(r, s.Resources.ReadResource)
	}
	for _, p := range s.Prompts.Prompts() {
		server.AddPrompt(p, s.Prompts.GetPrompt)
	}

	return server
}
