// ABOUTME: Tests for workflow and catalog graphs and the terminal dashboard
// ABOUTME: Checks DOT output contains the expected nodes
package viz

import (
	"context"
	"strings"
	"testing"

	"github.com/harperreed/ucadmin/agent"
	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/grants"
	"github.com/harperreed/ucadmin/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowGraph(t *testing.T) {
	steps := []string{workflow.StepListCatalogs, workflow.StepListUsers, workflow.StepGrantAccess}
	run := &workflow.Run{Steps: []workflow.StepResult{
		{Name: workflow.StepListCatalogs, Status: workflow.StepOK},
		{Name: workflow.StepListUsers, Status: workflow.StepFailed},
		{Name: workflow.StepGrantAccess, Status: workflow.StepSkipped},
	}}

	dot, err := WorkflowGraph(context.Background(), steps, run)
	require.NoError(t, err)

	for _, want := range []string{"START", "END", "List Catalogs", "List Users", "Grant Access", "lightcoral"} {
		assert.Contains(t, dot, want)
	}
	assert.True(t, strings.HasPrefix(strings.TrimSpace(dot), "digraph"))
}

func TestCatalogGraph(t *testing.T) {
	dot, err := CatalogGraph(context.Background(), []agent.CatalogSchemas{
		{Catalog: "main", Schemas: []string{"sales", "hr"}},
		{Catalog: "dev", Schemas: []string{"sales"}},
	})
	require.NoError(t, err)
	assert.Contains(t, dot, "main.sales")
	assert.Contains(t, dot, "dev.sales")
}

func TestDashboard(t *testing.T) {
	client := directory.NewClient(directory.SampleBackend(), nil)
	tools := agent.NewToolbox(client, grants.NewManager(client, nil))

	stats, err := GenerateDashboardStats(context.Background(), tools)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCatalogs)
	assert.Equal(t, 2, stats.TotalSchemas)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalGroups)

	out := RenderDashboard(stats)
	assert.Contains(t, out, "UNITY CATALOG ADMIN")
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "██████████")
}
