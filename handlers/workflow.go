// ABOUTME: Workflow MCP handlers
// ABOUTME: Runs the access workflow, lists past runs and renders the workflow graph
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/ucadmin/agent"
	"github.com/harperreed/ucadmin/db"
	"github.com/harperreed/ucadmin/viz"
	"github.com/harperreed/ucadmin/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ExecutorFactory builds an executor for one run. grant is nil when the run
// should only list.
type ExecutorFactory func(grant *agent.GrantArgs) *workflow.Executor

type WorkflowHandlers struct {
	newExecutor ExecutorFactory
	db          *sql.DB
}

// NewWorkflowHandlers takes an optional history database; nil disables recording.
func NewWorkflowHandlers(newExecutor ExecutorFactory, database *sql.DB) *WorkflowHandlers {
	return &WorkflowHandlers{newExecutor: newExecutor, db: database}
}

type RunWorkflowInput struct {
	Principal  string `json:"principal,omitempty" jsonschema:"Principal to grant to; omit to only list"`
	ObjectType string `json:"object_type,omitempty" jsonschema:"Object type for the grant"`
	ObjectName string `json:"object_name,omitempty" jsonschema:"Fully qualified object name for the grant"`
	Privilege  string `json:"privilege,omitempty" jsonschema:"Privilege to grant"`
}

type StepOutput struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type RunOutput struct {
	ID          string                 `json:"id"`
	Policy      string                 `json:"policy"`
	Halted      bool                   `json:"halted"`
	Failed      bool                   `json:"failed"`
	StartedAt   string                 `json:"started_at"`
	Steps       []StepOutput           `json:"steps"`
	CatalogList []agent.CatalogSchemas `json:"catalog_list,omitempty"`
	Users       []string               `json:"users,omitempty"`
	Groups      []string               `json:"groups,omitempty"`
	GrantStatus []string               `json:"grant_status,omitempty"`
}

func runToOutput(run *workflow.Run) RunOutput {
	out := RunOutput{
		ID:          run.ID,
		Policy:      string(run.Policy),
		Halted:      run.Halted,
		Failed:      run.Failed(),
		StartedAt:   run.StartedAt.Format(time.RFC3339),
		CatalogList: run.State.CatalogList,
		GrantStatus: run.State.GrantStatus,
	}
	if run.State.UserList != nil {
		out.Users = run.State.UserList.Users
		out.Groups = run.State.UserList.Groups
	}
	for _, s := range run.Steps {
		out.Steps = append(out.Steps, StepOutput{Name: s.Name, Status: string(s.Status), Error: s.Error})
	}
	return out
}

// RunWorkflow returns the run even when a halted step failed; the failure is in the steps.
func (h *WorkflowHandlers) RunWorkflow(ctx context.Context, request *mcp.CallToolRequest, input RunWorkflowInput) (*mcp.CallToolResult, RunOutput, error) {
	var grant *agent.GrantArgs
	if input.Principal != "" || input.ObjectName != "" || input.Privilege != "" {
		grant = &agent.GrantArgs{
			Principal:  input.Principal,
			ObjectType: input.ObjectType,
			ObjectName: input.ObjectName,
			Privilege:  input.Privilege,
		}
	}

	run, _ := h.newExecutor(grant).Run(ctx)
	if h.db != nil {
		if err := db.SaveRun(h.db, run); err != nil {
			return nil, RunOutput{}, fmt.Errorf("failed to record run: %w", err)
		}
	}
	return nil, runToOutput(run), nil
}

type ListRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs (default 20)"`
}

type ListRunsOutput struct {
	Runs []RunOutput `json:"runs"`
}

func (h *WorkflowHandlers) ListRuns(_ context.Context, request *mcp.CallToolRequest, input ListRunsInput) (*mcp.CallToolResult, ListRunsOutput, error) {
	if h.db == nil {
		return nil, ListRunsOutput{}, fmt.Errorf("run history is not enabled")
	}

	runs, err := db.ListRuns(h.db, input.Limit)
	if err != nil {
		return nil, ListRunsOutput{}, fmt.Errorf("failed to list runs: %w", err)
	}

	out := ListRunsOutput{Runs: make([]RunOutput, 0, len(runs))}
	for _, r := range runs {
		out.Runs = append(out.Runs, runToOutput(r))
	}
	return nil, out, nil
}

type WorkflowGraphInput struct {
	RunID string `json:"run_id,omitempty" jsonschema:"Color steps by the outcome of this run"`
}

type WorkflowGraphOutput struct {
	DOTSource string `json:"dot_source"`
}

func (h *WorkflowHandlers) WorkflowGraph(ctx context.Context, request *mcp.CallToolRequest, input WorkflowGraphInput) (*mcp.CallToolResult, WorkflowGraphOutput, error) {
	var run *workflow.Run
	if input.RunID != "" {
		if h.db == nil {
			return nil, WorkflowGraphOutput{}, fmt.Errorf("run history is not enabled")
		}
		var err error
		run, err = db.GetRun(h.db, input.RunID)
		if err != nil {
			return nil, WorkflowGraphOutput{}, fmt.Errorf("failed to fetch run: %w", err)
		}
		if run == nil {
			return nil, WorkflowGraphOutput{}, fmt.Errorf("run not found: %s", input.RunID)
		}
	}

	dot, err := viz.WorkflowGraph(ctx, h.newExecutor(nil).StepNames(), run)
	if err != nil {
		return nil, WorkflowGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}
	return nil, WorkflowGraphOutput{DOTSource: dot}, nil
}
