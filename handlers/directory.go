// ABOUTME: Directory MCP tool handlers
// ABOUTME: Implements listing, grant, revoke and cache refresh tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/ucadmin/agent"
	"github.com/harperreed/ucadmin/cache"
	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/grants"
	"github.com/harperreed/ucadmin/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type DirectoryHandlers struct {
	dir     *directory.Cached
	tools   *agent.Toolbox
	manager *grants.Manager
}

func NewDirectoryHandlers(dir *directory.Cached, tools *agent.Toolbox, manager *grants.Manager) *DirectoryHandlers {
	return &DirectoryHandlers{dir: dir, tools: tools, manager: manager}
}

type EmptyInput struct{}

type ListCatalogsOutput struct {
	Catalogs []agent.CatalogSchemas `json:"catalogs"`
}

func (h *DirectoryHandlers) ListCatalogs(ctx context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, ListCatalogsOutput, error) {
	catalogs, err := h.tools.ListCatalogsAndSchemas(ctx)
	if err != nil {
		return nil, ListCatalogsOutput{}, err
	}
	return nil, ListCatalogsOutput{Catalogs: catalogs}, nil
}

func (h *DirectoryHandlers) ListUsersGroups(ctx context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, agent.UserList, error) {
	users, err := h.tools.ListUsersGroups(ctx)
	if err != nil {
		return nil, agent.UserList{}, err
	}
	return nil, users, nil
}

type ListSchemasInput struct {
	Catalog string `json:"catalog" jsonschema:"Catalog name (required)"`
}

type SchemaOutput struct {
	Name      string `json:"name"`
	FullName  string `json:"full_name"`
	Owner     string `json:"owner,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type ListSchemasOutput struct {
	Schemas []SchemaOutput `json:"schemas"`
}

func (h *DirectoryHandlers) ListSchemas(ctx context.Context, request *mcp.CallToolRequest, input ListSchemasInput) (*mcp.CallToolResult, ListSchemasOutput, error) {
	if input.Catalog == "" {
		return nil, ListSchemasOutput{}, fmt.Errorf("catalog is required")
	}

	schemas, err := h.dir.ListSchemas(ctx, input.Catalog)
	if err != nil {
		return nil, ListSchemasOutput{}, err
	}

	out := ListSchemasOutput{Schemas: make([]SchemaOutput, 0, len(schemas))}
	for _, s := range schemas {
		out.Schemas = append(out.Schemas, SchemaOutput{
			Name:      s.Name,
			FullName:  s.FullName(),
			Owner:     s.Owner,
			CreatedAt: formatTime(s.CreatedAt),
		})
	}
	return nil, out, nil
}

type ListTablesInput struct {
	Catalog string `json:"catalog" jsonschema:"Catalog name (required)"`
	Schema  string `json:"schema" jsonschema:"Schema name (required)"`
}

type TableOutput struct {
	Name      string `json:"name"`
	FullName  string `json:"full_name"`
	Type      string `json:"type"`
	Owner     string `json:"owner,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type ListTablesOutput struct {
	Tables []TableOutput `json:"tables"`
}

func (h *DirectoryHandlers) ListTables(ctx context.Context, request *mcp.CallToolRequest, input ListTablesInput) (*mcp.CallToolResult, ListTablesOutput, error) {
	if input.Catalog == "" || input.Schema == "" {
		return nil, ListTablesOutput{}, fmt.Errorf("catalog and schema are required")
	}

	tables, err := h.dir.ListTables(ctx, input.Catalog, input.Schema)
	if err != nil {
		return nil, ListTablesOutput{}, err
	}

	out := ListTablesOutput{Tables: make([]TableOutput, 0, len(tables))}
	for _, t := range tables {
		out.Tables = append(out.Tables, TableOutput{
			Name:      t.Name,
			FullName:  t.FullName(),
			Type:      t.Type,
			Owner:     t.Owner,
			CreatedAt: formatTime(t.CreatedAt),
		})
	}
	return nil, out, nil
}

type PermissionInput struct {
	Principal  string `json:"principal" jsonschema:"User name or group display name (required)"`
	ObjectType string `json:"object_type" jsonschema:"CATALOG, SCHEMA, TABLE, VIEW, FUNCTION or STORAGE_CREDENTIAL"`
	ObjectName string `json:"object_name" jsonschema:"Fully qualified object name, e.g. main.sales.orders"`
	Privilege  string `json:"privilege" jsonschema:"SELECT, MODIFY, USE_CATALOG, USE_SCHEMA, CREATE_CATALOG, CREATE_SCHEMA or ALL_PRIVILEGES"`
}

type PermissionOutput struct {
	Status string `json:"status"`
}

// GrantAccess never fails the call; failures come back in the status text.
func (h *DirectoryHandlers) GrantAccess(ctx context.Context, request *mcp.CallToolRequest, input PermissionInput) (*mcp.CallToolResult, PermissionOutput, error) {
	status := h.tools.GrantAccess(ctx, agent.GrantArgs{
		Principal:  input.Principal,
		ObjectType: input.ObjectType,
		ObjectName: input.ObjectName,
		Privilege:  input.Privilege,
	})
	return nil, PermissionOutput{Status: status}, nil
}

func (h *DirectoryHandlers) RevokeAccess(ctx context.Context, request *mcp.CallToolRequest, input PermissionInput) (*mcp.CallToolResult, PermissionOutput, error) {
	res, err := h.manager.Apply(ctx, grants.Request{
		Principal:  input.Principal,
		ObjectType: input.ObjectType,
		ObjectName: input.ObjectName,
		Privilege:  input.Privilege,
		Action:     string(models.ActionRevoke),
	})
	if err != nil {
		return nil, PermissionOutput{}, fmt.Errorf("failed to revoke access: %w", err)
	}
	return nil, PermissionOutput{Status: res.Message}, nil
}

type RefreshCacheOutput struct {
	Cache cache.Stats `json:"cache"`
}

func (h *DirectoryHandlers) RefreshCache(_ context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, RefreshCacheOutput, error) {
	h.dir.Refresh()
	return nil, RefreshCacheOutput{Cache: h.dir.Stats()}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
