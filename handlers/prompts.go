// ABOUTME: MCP prompt handlers for access-management templates
// ABOUTME: Builds prompts from the live catalog and principal listings
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/ucadmin/agent"
	"github.com/harperreed/ucadmin/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	tools *agent.Toolbox
}

func NewPromptHandlers(tools *agent.Toolbox) *PromptHandlers {
	return &PromptHandlers{tools: tools}
}

func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "catalog-overview",
			Description: "Summarize the catalogs, schemas and principals in the workspace",
		},
		{
			Name:        "access-request",
			Description: "Plan the grants needed to give a principal access to an object",
			Arguments: []*mcp.PromptArgument{
				{Name: "principal", Description: "User or group that needs access", Required: true},
				{Name: "object_name", Description: "Fully qualified object name", Required: true},
			},
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "catalog-overview":
		return h.getCatalogOverviewPrompt(ctx)
	case "access-request":
		return h.getAccessRequestPrompt(ctx, request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getCatalogOverviewPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	catalogs, err := h.tools.ListCatalogsAndSchemas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalogs: %w", err)
	}
	users, err := h.tools.ListUsersGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch principals: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("The workspace has %d catalogs:\n", len(catalogs)))
	for _, c := range catalogs {
		promptText.WriteString(fmt.Sprintf("  - %s (%d schemas)", c.Catalog, len(c.Schemas)))
		if len(c.Schemas) > 0 {
			promptText.WriteString(": " + strings.Join(c.Schemas, ", "))
		}
		promptText.WriteString("\n")
	}
	promptText.WriteString(fmt.Sprintf("\nUsers: %d\nGroups: %d", len(users.Users), len(users.Groups)))
	if len(users.Groups) > 0 {
		promptText.WriteString(" (" + strings.Join(users.Groups, ", ") + ")")
	}
	promptText.WriteString("\n\nPlease provide:")
	promptText.WriteString("\n1. A summary of how data is organized")
	promptText.WriteString("\n2. Catalogs that look empty or unused")

	return &mcp.GetPromptResult{
		Description: "Workspace catalog overview",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

func (h *PromptHandlers) getAccessRequestPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	principal, ok := args["principal"]
	if !ok || principal == "" {
		return nil, fmt.Errorf("principal is required")
	}
	objectName, ok := args["object_name"]
	if !ok || objectName == "" {
		return nil, fmt.Errorf("object_name is required")
	}

	users, err := h.tools.ListUsersGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch principals: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("%s needs access to %s.\n\n", principal, objectName))
	if !contains(users.Users, principal) && !contains(users.Groups, principal) {
		promptText.WriteString(fmt.Sprintf("Note: %s is not a known user or group in this workspace.\n\n", principal))
	}

	privs := make([]string, 0, len(models.Privileges()))
	for _, p := range models.Privileges() {
		privs = append(privs, string(p))
	}
	promptText.WriteString("Allowed privileges: " + strings.Join(privs, ", ") + "\n")
	promptText.WriteString("\nPlease list the grant_access calls needed, from the catalog down to the object,")
	promptText.WriteString(" using USE_CATALOG and USE_SCHEMA on the parents.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Access plan for %s", principal),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
