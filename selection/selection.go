// ABOUTME: Cascading catalog, schema and table pickers for the permission form
// ABOUTME: Tracks what is selected and decides when a permission change may be submitted
package selection

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/grants"
	"github.com/harperreed/ucadmin/models"
)

const (
	NoCatalogsPlaceholder = "... No Catalogs Available ..."
	NoSchemasPlaceholder  = "... No Schemas Available ..."
	NoTablesPlaceholder   = "... No Tables Available ..."

	PrincipalPrompt = "--- Select User or Group ---"
	UsersHeader     = "--- USERS ---"
	GroupsHeader    = "--- GROUPS ---"
)

// Level is one tier of the catalog hierarchy.
type Level string

const (
	LevelCatalog Level = "catalog"
	LevelSchema  Level = "schema"
	LevelTable   Level = "table"
)

func (l Level) placeholder() string {
	switch l {
	case LevelSchema:
		return NoSchemasPlaceholder
	case LevelTable:
		return NoTablesPlaceholder
	default:
		return NoCatalogsPlaceholder
	}
}

// State is where the user is in the cascade.
type State int

const (
	NoCatalog State = iota
	CatalogChosen
	SchemaChosen
	SchemaUnavailable
	TableChosen
	TableUnavailable
)

func (s State) String() string {
	switch s {
	case CatalogChosen:
		return "catalog chosen"
	case SchemaChosen:
		return "schema chosen"
	case SchemaUnavailable:
		return "schema unavailable"
	case TableChosen:
		return "table chosen"
	case TableUnavailable:
		return "table unavailable"
	default:
		return "no catalog"
	}
}

// EmptyScopeError means a level had nothing to offer under the current selection.
// The choice queries show a placeholder instead of returning it.
type EmptyScopeError struct {
	Level Level
	Scope string
}

func (e *EmptyScopeError) Error() string {
	if e.Scope == "" {
		return fmt.Sprintf("no %ss available", e.Level)
	}
	return fmt.Sprintf("no %ss available in %s", e.Level, e.Scope)
}

// IsPlaceholder reports whether option is a placeholder or separator entry.
func IsPlaceholder(option string) bool {
	switch option {
	case NoCatalogsPlaceholder, NoSchemasPlaceholder, NoTablesPlaceholder,
		PrincipalPrompt, UsersHeader, GroupsHeader:
		return true
	}
	return false
}

// Controller holds one permission form. It is not safe for concurrent use.
type Controller struct {
	dir directory.Reader

	objectType models.SecurableType
	action     models.Action
	principal  string
	privilege  models.Privilege

	catalog  string
	schema   string
	table    string
	freeName string

	empty map[Level]bool
}

func NewController(dir directory.Reader) *Controller {
	return &Controller{
		dir:        dir,
		objectType: models.SecurableCatalog,
		action:     models.ActionGrant,
		empty:      make(map[Level]bool),
	}
}

// UsesHierarchy reports whether the object type is picked through the catalog
// cascade rather than typed in.
func UsesHierarchy(t models.SecurableType) bool {
	switch t {
	case models.SecurableCatalog, models.SecurableSchema, models.SecurableTable:
		return true
	}
	return false
}

// Depth is how many cascade levels the object type needs.
func Depth(t models.SecurableType) int {
	switch t {
	case models.SecurableCatalog:
		return 1
	case models.SecurableSchema:
		return 2
	case models.SecurableTable:
		return 3
	}
	return 0
}

func (c *Controller) ObjectType() models.SecurableType { return c.objectType }
func (c *Controller) Action() models.Action             { return c.action }
func (c *Controller) Principal() string                 { return c.principal }
func (c *Controller) Privilege() models.Privilege       { return c.privilege }
func (c *Controller) Catalog() string                   { return c.catalog }
func (c *Controller) Schema() string                    { return c.schema }
func (c *Controller) Table() string                     { return c.table }

// SetObjectType changes the object type and clears the object selection.
func (c *Controller) SetObjectType(t models.SecurableType) {
	if t == c.objectType {
		return
	}
	c.objectType = t
	c.catalog, c.schema, c.table, c.freeName = "", "", "", ""
	c.empty = make(map[Level]bool)
}

func (c *Controller) SetAction(a models.Action) {
	c.action = a
}

// SetPrivilege accepts only allow-listed privileges. On error the previous choice is kept.
func (c *Controller) SetPrivilege(s string) error {
	p, err := grants.ParsePrivilege(s)
	if err != nil {
		return err
	}
	c.privilege = p
	return nil
}

// CatalogChoices lists the catalogs, or the placeholder when there are none.
func (c *Controller) CatalogChoices(ctx context.Context) ([]string, error) {
	catalogs, err := c.dir.ListCatalogs(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(catalogs))
	for _, cat := range catalogs {
		names = append(names, cat.Name)
	}
	return c.choices(LevelCatalog, names), nil
}

// SchemaChoices lists schemas of the selected catalog. With no catalog selected
// the workspace is not asked.
func (c *Controller) SchemaChoices(ctx context.Context) ([]string, error) {
	schemas, err := c.dir.ListSchemas(ctx, c.catalog)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(schemas))
	for _, s := range schemas {
		names = append(names, s.Name)
	}
	return c.choices(LevelSchema, names), nil
}

// TableChoices lists tables of the selected catalog and schema.
func (c *Controller) TableChoices(ctx context.Context) ([]string, error) {
	tables, err := c.dir.ListTables(ctx, c.catalog, c.schema)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	return c.choices(LevelTable, names), nil
}

func (c *Controller) choices(level Level, names []string) []string {
	c.empty[level] = len(names) == 0
	if len(names) == 0 {
		return []string{level.placeholder()}
	}
	return names
}

// SelectCatalog picks a catalog. A placeholder or blank clears the selection.
// Lower levels are always cleared.
func (c *Controller) SelectCatalog(name string) {
	c.catalog = clean(name)
	c.schema, c.table = "", ""
	delete(c.empty, LevelSchema)
	delete(c.empty, LevelTable)
}

func (c *Controller) SelectSchema(name string) {
	if c.catalog == "" {
		return
	}
	c.schema = clean(name)
	c.table = ""
	delete(c.empty, LevelTable)
}

func (c *Controller) SelectTable(name string) {
	if c.schema == "" {
		return
	}
	c.table = clean(name)
}

// SetObjectName sets the full name for object types outside the cascade.
func (c *Controller) SetObjectName(name string) {
	c.freeName = clean(name)
}

// PrincipalOptions returns the prompt, then users and groups under their headers.
// A header is left out when its list is empty.
func (c *Controller) PrincipalOptions(ctx context.Context) ([]string, error) {
	p, err := c.dir.ListPrincipals(ctx)
	if err != nil {
		return nil, err
	}
	return PrincipalOptions(p), nil
}

// PrincipalOptions lays out a principal listing as picker entries.
func PrincipalOptions(p models.Principals) []string {
	opts := make([]string, 0, len(p.Users)+len(p.Groups)+3)
	opts = append(opts, PrincipalPrompt)
	if users := p.UserNames(); len(users) > 0 {
		opts = append(opts, UsersHeader)
		opts = append(opts, users...)
	}
	if groups := p.GroupNames(); len(groups) > 0 {
		opts = append(opts, GroupsHeader)
		opts = append(opts, groups...)
	}
	return opts
}

// SelectPrincipal picks a user or group. Separator entries select nothing.
func (c *Controller) SelectPrincipal(option string) {
	c.principal = clean(option)
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	if IsPlaceholder(s) {
		return ""
	}
	return s
}

// State reports the cascade position.
func (c *Controller) State() State {
	switch {
	case c.catalog == "":
		return NoCatalog
	case c.schema == "":
		if c.empty[LevelSchema] {
			return SchemaUnavailable
		}
		return CatalogChosen
	case c.table == "":
		if c.empty[LevelTable] {
			return TableUnavailable
		}
		return SchemaChosen
	default:
		return TableChosen
	}
}

// ObjectName resolves the fully-qualified name for the object type, or "" when
// the selection is incomplete.
func (c *Controller) ObjectName() string {
	switch c.objectType {
	case models.SecurableCatalog:
		return c.catalog
	case models.SecurableSchema:
		if c.catalog == "" || c.schema == "" {
			return ""
		}
		return grants.FullName(c.catalog, c.schema)
	case models.SecurableTable:
		if c.catalog == "" || c.schema == "" || c.table == "" {
			return ""
		}
		return grants.FullName(c.catalog, c.schema, c.table)
	default:
		return c.freeName
	}
}

// CanSubmit is true only when a principal, a real object name and a privilege are chosen.
func (c *Controller) CanSubmit() bool {
	name := c.ObjectName()
	return c.principal != "" &&
		name != "" &&
		!IsPlaceholder(name) &&
		c.privilege != ""
}

// Request hands the current selection to the request builder.
func (c *Controller) Request() grants.Request {
	return grants.Request{
		Principal:  c.principal,
		ObjectType: string(c.objectType),
		ObjectName: c.ObjectName(),
		Privilege:  string(c.privilege),
		Action:     string(c.action),
	}
}

// ScopeError returns *EmptyScopeError when the last query for level came back empty.
func (c *Controller) ScopeError(level Level) error {
	if !c.empty[level] {
		return nil
	}
	scope := ""
	switch level {
	case LevelSchema:
		scope = c.catalog
	case LevelTable:
		scope = grants.FullName(c.catalog, c.schema)
	}
	return &EmptyScopeError{Level: level, Scope: scope}
}
