// ABOUTME: Agent-callable tools over the directory
// ABOUTME: Lists catalogs with schemas, lists users and groups, and grants access
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/grants"
	"github.com/harperreed/ucadmin/models"
)

const (
	ToolListCatalogs   = "list_catalogs"
	ToolListUsersGroup = "list_users_groups"
	ToolGrantAccess    = "grant_access"
)

// GrantFailurePrefix starts every failed grant_access result.
const GrantFailurePrefix = "Failed to grant access: "

// ErrUnknownTool is returned when a model asks for a tool that is not offered.
var ErrUnknownTool = errors.New("unknown tool")

// CatalogSchemas is one catalog with the names of its schemas.
type CatalogSchemas struct {
	Catalog string   `json:"catalog" yaml:"catalog"`
	Schemas []string `json:"schemas" yaml:"schemas"`
}

// UserList holds principal names only.
type UserList struct {
	Users  []string `json:"users" yaml:"users"`
	Groups []string `json:"groups" yaml:"groups"`
}

type GrantArgs struct {
	Principal  string `json:"principal"`
	ObjectType string `json:"object_type"`
	ObjectName string `json:"object_name"`
	Privilege  string `json:"privilege"`
}

// Toolbox binds the tools to a directory.
type Toolbox struct {
	dir     directory.Reader
	manager *grants.Manager
}

func NewToolbox(dir directory.Directory, manager *grants.Manager) *Toolbox {
	return &Toolbox{dir: dir, manager: manager}
}

// ListCatalogsAndSchemas walks every catalog and lists its schemas, one call per catalog.
func (t *Toolbox) ListCatalogsAndSchemas(ctx context.Context) ([]CatalogSchemas, error) {
	catalogs, err := t.dir.ListCatalogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalogs: %w", err)
	}

	out := make([]CatalogSchemas, 0, len(catalogs))
	for _, c := range catalogs {
		schemas, err := t.dir.ListSchemas(ctx, c.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to list schemas of %s: %w", c.Name, err)
		}
		names := make([]string, 0, len(schemas))
		for _, s := range schemas {
			names = append(names, s.Name)
		}
		out = append(out, CatalogSchemas{Catalog: c.Name, Schemas: names})
	}
	return out, nil
}

func (t *Toolbox) ListUsersGroups(ctx context.Context) (UserList, error) {
	p, err := t.dir.ListPrincipals(ctx)
	if err != nil {
		return UserList{}, fmt.Errorf("failed to list principals: %w", err)
	}
	return UserList{Users: p.UserNames(), Groups: p.GroupNames()}, nil
}

// Grant applies a GRANT built from args.
func (t *Toolbox) Grant(ctx context.Context, args GrantArgs) (grants.Result, error) {
	return t.manager.Apply(ctx, grants.Request{
		Principal:  args.Principal,
		ObjectType: args.ObjectType,
		ObjectName: args.ObjectName,
		Privilege:  args.Privilege,
		Action:     string(models.ActionGrant),
	})
}

// GrantAccess always returns a status line; failures are folded into the text.
func (t *Toolbox) GrantAccess(ctx context.Context, args GrantArgs) string {
	res, err := t.Grant(ctx, args)
	if err != nil {
		return GrantFailurePrefix + err.Error()
	}
	return res.Message
}

// Tool is a function the model may call.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Run         func(ctx context.Context, args json.RawMessage) (string, error)
}

var noParams = json.RawMessage(`{"type":"object","properties":{}}`)

var grantParams = json.RawMessage(`{
  "type": "object",
  "properties": {
    "principal": {"type": "string", "description": "User name or group display name"},
    "object_type": {"type": "string", "enum": ["CATALOG","SCHEMA","TABLE","VIEW","FUNCTION","STORAGE_CREDENTIAL"]},
    "object_name": {"type": "string", "description": "Fully qualified object name, e.g. main.sales.orders"},
    "privilege": {"type": "string", "enum": ["SELECT","MODIFY","USE_CATALOG","USE_SCHEMA","CREATE_CATALOG","CREATE_SCHEMA","ALL_PRIVILEGES"]}
  },
  "required": ["principal","object_type","object_name","privilege"]
}`)

func (t *Toolbox) ListCatalogsTool() Tool {
	return Tool{
		Name:        ToolListCatalogs,
		Description: "List all catalogs in Unity Catalog with the schemas each contains",
		Parameters:  noParams,
		Run: func(ctx context.Context, _ json.RawMessage) (string, error) {
			result, err := t.ListCatalogsAndSchemas(ctx)
			if err != nil {
				return "", err
			}
			return encode(result)
		},
	}
}

func (t *Toolbox) ListUsersGroupsTool() Tool {
	return Tool{
		Name:        ToolListUsersGroup,
		Description: "List all workspace users and groups",
		Parameters:  noParams,
		Run: func(ctx context.Context, _ json.RawMessage) (string, error) {
			result, err := t.ListUsersGroups(ctx)
			if err != nil {
				return "", err
			}
			return encode(result)
		},
	}
}

func (t *Toolbox) GrantAccessTool() Tool {
	return Tool{
		Name:        ToolGrantAccess,
		Description: "Grant a privilege to a user or group on a Unity Catalog object",
		Parameters:  grantParams,
		Run: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args GrantArgs
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &args); err != nil {
					return GrantFailurePrefix + err.Error(), nil
				}
			}
			return t.GrantAccess(ctx, args), nil
		},
	}
}

// Tools returns every tool in the box.
func (t *Toolbox) Tools() []Tool {
	return []Tool{t.ListCatalogsTool(), t.ListUsersGroupsTool(), t.GrantAccessTool()}
}

// Execute runs the named tool with JSON-encoded arguments.
func (t *Toolbox) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	for _, tool := range t.Tools() {
		if tool.Name == name {
			return tool.Run(ctx, args)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(b), nil
}
