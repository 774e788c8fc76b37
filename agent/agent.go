// ABOUTME: Tool-calling agent loop on an OpenAI-compatible chat endpoint
// ABOUTME: Each agent has a role, a goal and a fixed set of tools
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4.1-nano"

// DefaultMaxIterations bounds the number of model round trips per run.
const DefaultMaxIterations = 5

var ErrMaxIterations = errors.New("agent did not finish within the iteration limit")

// ChatClient is the part of *openai.Client the agent needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ClientConfig locates the chat endpoint.
type ClientConfig struct {
	Endpoint string
	APIKey   string
}

// NewChatClient builds an OpenAI-compatible client. An empty endpoint uses the OpenAI default.
func NewChatClient(cfg ClientConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}
	return openai.NewClientWithConfig(clientConfig)
}

// Invocation records one tool call made during a run.
type Invocation struct {
	Tool      string `json:"tool"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Outcome struct {
	Answer      string       `json:"answer"`
	Invocations []Invocation `json:"invocations"`
}

// Last returns the most recent successful invocation of tool.
func (o Outcome) Last(tool string) (Invocation, bool) {
	for i := len(o.Invocations) - 1; i >= 0; i-- {
		inv := o.Invocations[i]
		if inv.Tool == tool && inv.Error == "" {
			return inv, true
		}
	}
	return Invocation{}, false
}

type Agent struct {
	Role      string
	Goal      string
	Backstory string
	Tools     []Tool

	client        ChatClient
	model         string
	maxIterations int
	logger        *zap.Logger
}

func (a *Agent) systemPrompt() string {
	return fmt.Sprintf("You are %s. %s\n\nGoal: %s\n\nUse the provided tools to reach the goal, then reply with a short summary.",
		a.Role, a.Backstory, a.Goal)
}

func (a *Agent) toolDefinitions() []openai.Tool {
	defs := make([]openai.Tool, 0, len(a.Tools))
	for _, t := range a.Tools {
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return defs
}

func (a *Agent) tool(name string) (Tool, bool) {
	for _, t := range a.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Run asks the model to complete task, executing tool calls until it answers
// without one.
func (a *Agent) Run(ctx context.Context, task string) (Outcome, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: a.systemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: task},
	}
	tools := a.toolDefinitions()
	var outcome Outcome

	for i := 0; i < a.maxIterations; i++ {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return outcome, fmt.Errorf("failed to call model: %w", err)
		}
		if len(resp.Choices) == 0 {
			return outcome, fmt.Errorf("no choices in response")
		}

		msg := resp.Choices[0].Message
		messages = append(messages, msg)

		if len(msg.ToolCalls) == 0 {
			outcome.Answer = msg.Content
			a.logger.Debug("agent finished",
				zap.String("role", a.Role),
				zap.Int("iterations", i+1),
				zap.Int("tool_calls", len(outcome.Invocations)))
			return outcome, nil
		}

		for _, tc := range msg.ToolCalls {
			inv := a.invoke(ctx, tc)
			outcome.Invocations = append(outcome.Invocations, inv)

			content := inv.Output
			if inv.Error != "" {
				content = "error: " + inv.Error
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    content,
				Name:       tc.Function.Name,
				ToolCallID: tc.ID,
			})
		}
	}

	return outcome, ErrMaxIterations
}

func (a *Agent) invoke(ctx context.Context, tc openai.ToolCall) Invocation {
	inv := Invocation{Tool: tc.Function.Name, Arguments: tc.Function.Arguments}

	t, ok := a.tool(tc.Function.Name)
	if !ok {
		inv.Error = fmt.Sprintf("%s: %s", ErrUnknownTool, tc.Function.Name)
		a.logger.Warn("model requested unknown tool", zap.String("tool", tc.Function.Name))
		return inv
	}

	out, err := t.Run(ctx, json.RawMessage(tc.Function.Arguments))
	if err != nil {
		inv.Error = err.Error()
		a.logger.Warn("tool failed", zap.String("tool", t.Name), zap.Error(err))
		return inv
	}
	inv.Output = out
	a.logger.Debug("tool called", zap.String("tool", t.Name))
	return inv
}
