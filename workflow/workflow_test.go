// ABOUTME: Tests for the linear workflow executor and its steps
// ABOUTME: Covers ordering, state merging and both error policies
package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/ucadmin/agent"
	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/grants"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToolbox(backend *directory.FakeBackend) *agent.Toolbox {
	client := directory.NewClient(backend, nil)
	return agent.NewToolbox(client, grants.NewManager(client, nil))
}

type recordingStep struct {
	name   string
	update Update
	err    error
	order  *[]string
}

func (s *recordingStep) Name() string { return s.name }

func (s *recordingStep) Run(context.Context, State) (Update, error) {
	*s.order = append(*s.order, s.name)
	return s.update, s.err
}

func TestDirectRunFillsEveryField(t *testing.T) {
	backend := directory.SampleBackend()
	grant := &agent.GrantArgs{Principal: "alice", ObjectType: "CATALOG", ObjectName: "main", Privilege: "SELECT"}
	exec := NewExecutor(DirectSteps(newToolbox(backend), grant))

	run, err := exec.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.Failed())
	assert.Equal(t, []Field{FieldCatalogList, FieldUserList, FieldGrantStatus}, run.State.Written)
	assert.Equal(t, "main", run.State.CatalogList[0].Catalog)
	require.NotNil(t, run.State.UserList)
	assert.Equal(t, []string{"data-eng"}, run.State.UserList.Groups)
	assert.Equal(t, []string{"Granted SELECT on CATALOG main to alice"}, run.State.GrantStatus)
	assert.Equal(t, []string{StepListCatalogs, StepListUsers, StepGrantAccess}, exec.StepNames())
}

func TestContinuePolicyRunsAllStepsAfterFailure(t *testing.T) {
	backend := directory.SampleBackend()
	backend.Errs["ListCatalogs"] = errors.New("metastore unavailable")
	exec := NewExecutor(DirectSteps(newToolbox(backend), nil))

	run, err := exec.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, run.Failed())
	assert.False(t, run.Halted)
	require.Len(t, run.Steps, 3)
	assert.Equal(t, StepFailed, run.Steps[0].Status)
	assert.Equal(t, StepOK, run.Steps[1].Status)
	assert.Equal(t, []string{NoGrantStatus}, run.State.GrantStatus)
	assert.True(t, run.State.Has(FieldUserList))
}

func TestGrantFailureIsRecordedAsStatus(t *testing.T) {
	backend := directory.SampleBackend()
	backend.Errs["UpdateGrants"] = errors.New("User does not have MANAGE on Catalog 'main'.")
	grant := &agent.GrantArgs{Principal: "alice", ObjectType: "CATALOG", ObjectName: "main", Privilege: "SELECT"}

	run, err := NewExecutor(DirectSteps(newToolbox(backend), grant)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Failed to grant access: User does not have MANAGE on Catalog 'main'."}, run.State.GrantStatus)
	assert.Equal(t, StepFailed, run.Steps[2].Status)
}

func TestHaltPolicyStopsAtFirstFailure(t *testing.T) {
	backend := directory.SampleBackend()
	backend.Errs["ListUsers"] = errors.New("SCIM disabled")
	exec := NewExecutor(DirectSteps(newToolbox(backend), nil), WithPolicy(HaltOnError))

	run, err := exec.Run(context.Background())
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepListUsers, stepErr.Step)
	assert.True(t, run.Halted)
	assert.Equal(t, StepSkipped, run.Steps[2].Status)
	assert.False(t, run.State.Has(FieldGrantStatus))
	assert.True(t, run.State.Has(FieldCatalogList), "earlier fields are retained")
	assert.Equal(t, 0, backend.CallCount("UpdateGrants"))
}

func TestStepsRunInOrder(t *testing.T) {
	var order []string
	steps := []Step{
		&recordingStep{name: "a", update: CatalogListUpdate(nil), order: &order},
		&recordingStep{name: "b", err: errors.New("boom"), order: &order},
		&recordingStep{name: "c", update: GrantStatusUpdate("x"), order: &order},
	}

	_, err := NewExecutor(steps).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSecondWriteOfFieldFails(t *testing.T) {
	var order []string
	steps := []Step{
		&recordingStep{name: "first", update: GrantStatusUpdate("one"), order: &order},
		&recordingStep{name: "second", update: GrantStatusUpdate("two"), order: &order},
	}

	run, err := NewExecutor(steps, WithPolicy(HaltOnError)).Run(context.Background())
	require.ErrorIs(t, err, ErrFieldWritten)
	assert.Equal(t, []string{"one"}, run.State.GrantStatus)
}

func TestParseErrorPolicy(t *testing.T) {
	p, err := ParseErrorPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ContinueOnError, p)

	p, err = ParseErrorPolicy("HALT")
	require.NoError(t, err)
	assert.Equal(t, HaltOnError, p)

	_, err = ParseErrorPolicy("retry")
	assert.Error(t, err)
}

type scriptedClient struct {
	responses []openai.ChatCompletionMessage
}

func (s *scriptedClient) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if len(s.responses) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("script exhausted")
	}
	msg := s.responses[0]
	s.responses = s.responses[1:]
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: msg}}}, nil
}

func call(name, args string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{{
			ID:       name + "_call",
			Type:     openai.ToolTypeFunction,
			Function: openai.FunctionCall{Name: name, Arguments: args},
		}},
	}
}

func done() openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "done"}
}

func TestAgentStepsUseToolResults(t *testing.T) {
	backend := directory.SampleBackend()
	client := &scriptedClient{responses: []openai.ChatCompletionMessage{
		call(agent.ToolListCatalogs, "{}"), done(),
		call(agent.ToolListUsersGroup, "{}"), done(),
		call(agent.ToolGrantAccess, `{"principal":"bob","object_type":"SCHEMA","object_name":"main.hr","privilege":"USE_SCHEMA"}`), done(),
	}}
	crew := agent.NewCrew(client, newToolbox(backend))
	grant := &agent.GrantArgs{Principal: "bob", ObjectType: "SCHEMA", ObjectName: "main.hr", Privilege: "USE_SCHEMA"}

	run, err := NewExecutor(AgentSteps(crew, grant)).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, run.Failed())
	assert.Len(t, run.State.CatalogList, 2)
	assert.Equal(t, []string{"alice", "bob"}, run.State.UserList.Users)
	assert.Equal(t, []string{"Granted USE_SCHEMA on SCHEMA main.hr to bob"}, run.State.GrantStatus)
}

func TestAgentStepWithoutToolCallFails(t *testing.T) {
	backend := directory.SampleBackend()
	client := &scriptedClient{responses: []openai.ChatCompletionMessage{done()}}
	crew := agent.NewCrew(client, newToolbox(backend))

	run, err := NewExecutor(AgentSteps(crew, nil), WithPolicy(HaltOnError)).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StepFailed, run.Steps[0].Status)
	assert.Contains(t, run.Steps[0].Error, "did not call list_catalogs")
}
