// ABOUTME: Tests for the agent tools and the tool-calling loop
// ABOUTME: Drives agents with a scripted chat client instead of a live model
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/grants"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient replays one response per call and records the requests.
type scriptedClient struct {
	responses []openai.ChatCompletionMessage
	requests  []openai.ChatCompletionRequest
	err       error
}

func (s *scriptedClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	if len(s.responses) == 0 {
		return openai.ChatCompletionResponse{}, nil
	}
	msg := s.responses[0]
	s.responses = s.responses[1:]
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: msg}},
	}, nil
}

func toolCall(id, name, args string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{{
			ID:   id,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      name,
				Arguments: args,
			},
		}},
	}
}

func answer(text string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text}
}

func newToolbox(backend *directory.FakeBackend) *Toolbox {
	client := directory.NewClient(backend, nil)
	return NewToolbox(client, grants.NewManager(client, nil))
}

func TestListCatalogsAndSchemas(t *testing.T) {
	backend := directory.SampleBackend()
	tb := newToolbox(backend)

	got, err := tb.ListCatalogsAndSchemas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []CatalogSchemas{
		{Catalog: "main", Schemas: []string{"sales", "hr"}},
		{Catalog: "dev", Schemas: []string{}},
	}, got)
	assert.Equal(t, 2, backend.CallCount("ListSchemas"))
}

func TestListUsersGroups(t *testing.T) {
	tb := newToolbox(directory.SampleBackend())

	got, err := tb.ListUsersGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UserList{Users: []string{"alice", "bob"}, Groups: []string{"data-eng"}}, got)
}

func TestGrantAccessReportsFailureAsText(t *testing.T) {
	backend := directory.SampleBackend()
	backend.Errs["UpdateGrants"] = errors.New("Catalog 'nope' does not exist.")
	tb := newToolbox(backend)

	status := tb.GrantAccess(context.Background(), GrantArgs{
		Principal: "alice", ObjectType: "CATALOG", ObjectName: "nope", Privilege: "SELECT",
	})
	assert.Equal(t, "Failed to grant access: Catalog 'nope' does not exist.", status)
}

func TestGrantAccessSuccess(t *testing.T) {
	backend := directory.SampleBackend()
	tb := newToolbox(backend)

	out, err := tb.Execute(context.Background(), ToolGrantAccess,
		json.RawMessage(`{"principal":"alice","object_type":"CATALOG","object_name":"main","privilege":"SELECT"}`))
	require.NoError(t, err)
	assert.Equal(t, "Granted SELECT on CATALOG main to alice", out)
	assert.Len(t, backend.GrantCalls, 1)
}

func TestExecuteUnknownTool(t *testing.T) {
	tb := newToolbox(directory.SampleBackend())
	_, err := tb.Execute(context.Background(), "drop_catalog", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestAgentRunsToolThenAnswers(t *testing.T) {
	tb := newToolbox(directory.SampleBackend())
	client := &scriptedClient{responses: []openai.ChatCompletionMessage{
		toolCall("call_1", ToolListUsersGroup, "{}"),
		answer("There are 2 users and 1 group."),
	}}
	crew := NewCrew(client, tb, WithModel("test-model"))

	outcome, err := crew.UserGroupLister().Run(context.Background(), "List everyone")
	require.NoError(t, err)
	assert.Equal(t, "There are 2 users and 1 group.", outcome.Answer)

	inv, ok := outcome.Last(ToolListUsersGroup)
	require.True(t, ok)
	var users UserList
	require.NoError(t, json.Unmarshal([]byte(inv.Output), &users))
	assert.Equal(t, []string{"alice", "bob"}, users.Users)

	require.Len(t, client.requests, 2)
	assert.Equal(t, "test-model", client.requests[0].Model)
	require.Len(t, client.requests[0].Tools, 1)
	assert.Equal(t, ToolListUsersGroup, client.requests[0].Tools[0].Function.Name)

	second := client.requests[1].Messages
	last := second[len(second)-1]
	assert.Equal(t, openai.ChatMessageRoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
}

func TestAgentOnlySeesItsOwnTools(t *testing.T) {
	backend := directory.SampleBackend()
	tb := newToolbox(backend)
	client := &scriptedClient{responses: []openai.ChatCompletionMessage{
		toolCall("call_1", ToolGrantAccess, `{"principal":"alice","object_type":"CATALOG","object_name":"main","privilege":"SELECT"}`),
		answer("done"),
	}}

	outcome, err := NewCrew(client, tb).CatalogLister().Run(context.Background(), "list")
	require.NoError(t, err)
	require.Len(t, outcome.Invocations, 1)
	assert.NotEmpty(t, outcome.Invocations[0].Error)
	assert.Empty(t, backend.GrantCalls)
}

func TestAgentStopsAtIterationLimit(t *testing.T) {
	tb := newToolbox(directory.SampleBackend())
	client := &scriptedClient{responses: []openai.ChatCompletionMessage{
		toolCall("a", ToolListCatalogs, "{}"),
		toolCall("b", ToolListCatalogs, "{}"),
		toolCall("c", ToolListCatalogs, "{}"),
	}}

	outcome, err := NewCrew(client, tb, WithMaxIterations(2)).CatalogLister().Run(context.Background(), "list")
	assert.ErrorIs(t, err, ErrMaxIterations)
	assert.Len(t, outcome.Invocations, 2)
}

func TestAgentModelFailure(t *testing.T) {
	tb := newToolbox(directory.SampleBackend())
	client := &scriptedClient{err: errors.New("401 unauthorized")}

	_, err := NewCrew(client, tb).AccessManager().Run(context.Background(), "grant")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401 unauthorized")
}

func TestAgentEmptyResponse(t *testing.T) {
	tb := newToolbox(directory.SampleBackend())
	_, err := NewCrew(&scriptedClient{}, tb).AccessManager().Run(context.Background(), "grant")
	assert.Error(t, err)
}
