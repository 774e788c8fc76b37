// ABOUTME: MCP resource handlers exposing directory listings
// ABOUTME: Read-only access to catalogs, principals and workflow runs via uc:// URIs
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/ucadmin/agent"
	"github.com/harperreed/ucadmin/db"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	CatalogsURI   = "uc://catalogs"
	PrincipalsURI = "uc://principals"
	RunsURI       = "uc://runs"
)

type ResourceHandlers struct {
	tools *agent.Toolbox
	db    *sql.DB
}

func NewResourceHandlers(tools *agent.Toolbox, database *sql.DB) *ResourceHandlers {
	return &ResourceHandlers{tools: tools, db: database}
}

// Resources lists the resources this handler serves.
func (h *ResourceHandlers) Resources() []*mcp.Resource {
	resources := []*mcp.Resource{
		{URI: CatalogsURI, Name: "catalogs", Description: "Catalogs and their schemas", MIMEType: "application/json"},
		{URI: PrincipalsURI, Name: "principals", Description: "Workspace users and groups", MIMEType: "application/json"},
	}
	if h.db != nil {
		resources = append(resources, &mcp.Resource{
			URI: RunsURI, Name: "runs", Description: "Recent workflow runs", MIMEType: "application/json",
		})
	}
	return resources
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "uc://") {
		return nil, fmt.Errorf("invalid URI scheme: expected uc://")
	}

	switch uri {
	case CatalogsURI:
		catalogs, err := h.tools.ListCatalogsAndSchemas(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, catalogs)

	case PrincipalsURI:
		users, err := h.tools.ListUsersGroups(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, users)

	case RunsURI:
		if h.db == nil {
			return nil, fmt.Errorf("run history is not enabled")
		}
		runs, err := db.ListRuns(h.db, 20)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch runs: %w", err)
		}
		out := make([]RunOutput, 0, len(runs))
		for _, r := range runs {
			out = append(out, runToOutput(r))
		}
		return jsonResource(uri, out)

	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
