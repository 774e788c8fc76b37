// ABOUTME: Tests for MCP tool, resource and prompt handlers
// ABOUTME: Runs handlers against the fake backend and an in-memory history database
package handlers

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/harperreed/ucadmin/agent"
	"github.com/harperreed/ucadmin/cache"
	"github.com/harperreed/ucadmin/db"
	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/grants"
	"github.com/harperreed/ucadmin/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	backend  *directory.FakeBackend
	database *sql.DB
	server   *Server
}

func setup(t *testing.T) *fixture {
	t.Helper()
	backend := directory.SampleBackend()
	client := directory.NewClient(backend, nil)
	cached := directory.NewCached(client, cache.New())
	manager := grants.NewManager(cached, nil)
	tools := agent.NewToolbox(cached, manager)

	database, err := db.OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	factory := func(grant *agent.GrantArgs) *workflow.Executor {
		return workflow.NewExecutor(workflow.DirectSteps(tools, grant))
	}

	return &fixture{
		backend:  backend,
		database: database,
		server: &Server{
			Directory: NewDirectoryHandlers(cached, tools, manager),
			Workflow:  NewWorkflowHandlers(factory, database),
			Resources: NewResourceHandlers(tools, database),
			Prompts:   NewPromptHandlers(tools),
		},
	}
}

func TestListCatalogsHandler(t *testing.T) {
	f := setup(t)

	_, out, err := f.server.Directory.ListCatalogs(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)
	require.Len(t, out.Catalogs, 2)
	assert.Equal(t, "main", out.Catalogs[0].Catalog)
	assert.Equal(t, []string{"sales", "hr"}, out.Catalogs[0].Schemas)
}

func TestListTablesHandler(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, _, err := f.server.Directory.ListTables(ctx, nil, ListTablesInput{Catalog: "main"})
	assert.Error(t, err)

	_, out, err := f.server.Directory.ListTables(ctx, nil, ListTablesInput{Catalog: "main", Schema: "hr"})
	require.NoError(t, err)
	require.Len(t, out.Tables, 1)
	assert.Equal(t, "main.hr.employees", out.Tables[0].FullName)
	assert.Equal(t, "MANAGED", out.Tables[0].Type)
}

func TestGrantAccessHandlerFoldsErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, out, err := f.server.Directory.GrantAccess(ctx, nil, PermissionInput{
		Principal: "alice", ObjectType: "CATALOG", ObjectName: "main", Privilege: "DROP_TABLE",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.Status, agent.GrantFailurePrefix))
	assert.Equal(t, 0, f.backend.CallCount("UpdateGrants"))

	_, out, err = f.server.Directory.GrantAccess(ctx, nil, PermissionInput{
		Principal: "alice", ObjectType: "CATALOG", ObjectName: "main", Privilege: "SELECT",
	})
	require.NoError(t, err)
	assert.Equal(t, "Granted SELECT on CATALOG main to alice", out.Status)
}

func TestRevokeAccessHandler(t *testing.T) {
	f := setup(t)
	f.backend.Errs["UpdateGrants"] = errors.New("Permission denied")

	_, _, err := f.server.Directory.RevokeAccess(context.Background(), nil, PermissionInput{
		Principal: "bob", ObjectType: "SCHEMA", ObjectName: "main.sales", Privilege: "USE_SCHEMA",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Permission denied")
}

func TestRefreshCacheHandler(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, _, err := f.server.Directory.ListCatalogs(ctx, nil, EmptyInput{})
	require.NoError(t, err)

	_, out, err := f.server.Directory.RefreshCache(ctx, nil, EmptyInput{})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Cache.Entries)

	_, _, err = f.server.Directory.ListCatalogs(ctx, nil, EmptyInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.backend.CallCount("ListCatalogs"))
}

func TestRunWorkflowRecordsHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, out, err := f.server.Workflow.RunWorkflow(ctx, nil, RunWorkflowInput{
		Principal: "alice", ObjectType: "CATALOG", ObjectName: "main", Privilege: "SELECT",
	})
	require.NoError(t, err)
	assert.False(t, out.Failed)
	assert.Equal(t, []string{"Granted SELECT on CATALOG main to alice"}, out.GrantStatus)
	assert.Len(t, out.Steps, 3)

	_, runs, err := f.server.Workflow.ListRuns(ctx, nil, ListRunsInput{})
	require.NoError(t, err)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, out.ID, runs.Runs[0].ID)

	_, graph, err := f.server.Workflow.WorkflowGraph(ctx, nil, WorkflowGraphInput{RunID: out.ID})
	require.NoError(t, err)
	assert.Contains(t, graph.DOTSource, "Grant Access")

	_, _, err = f.server.Workflow.WorkflowGraph(ctx, nil, WorkflowGraphInput{RunID: "01HZZZZZZZZZZZZZZZZZZZZZZZ"})
	assert.Error(t, err)
}

func TestRunWorkflowWithoutGrant(t *testing.T) {
	f := setup(t)

	_, out, err := f.server.Workflow.RunWorkflow(context.Background(), nil, RunWorkflowInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{workflow.NoGrantStatus}, out.GrantStatus)
	assert.Equal(t, 0, f.backend.CallCount("UpdateGrants"))
}

func TestReadResource(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.server.Resources.ReadResource(ctx, &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: PrincipalsURI},
	})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, "data-eng")

	_, err = f.server.Resources.ReadResource(ctx, &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "s3://bucket/key"},
	})
	assert.Error(t, err)
}

func TestAccessRequestPrompt(t *testing.T) {
	f := setup(t)

	res, err := f.server.Prompts.GetPrompt(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{
			Name:      "access-request",
			Arguments: map[string]string{"principal": "carol", "object_name": "main.hr.employees"},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "carol is not a known user or group")
	assert.Contains(t, text, "USE_SCHEMA")

	_, err = f.server.Prompts.GetPrompt(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Name: "access-request", Arguments: map[string]string{}},
	})
	assert.Error(t, err)
}

func TestServerRegistersTools(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	server := f.server.Build("test")
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	for _, want := range []string{"list_catalogs", "list_users_groups", "grant_access", "revoke_access", "run_workflow"} {
		assert.Contains(t, names, want)
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "grant_access",
		Arguments: map[string]any{"principal": "alice", "object_type": "CATALOG", "object_name": "main", "privilege": "SELECT"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Len(t, f.backend.GrantCalls, 1)
}
