// ABOUTME: Directory facade over the workspace backend
// ABOUTME: Scopes lookups, drops malformed records and wraps backend failures
package directory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/ucadmin/models"
	"go.uber.org/zap"
)

// Client is the uncached directory facade. It holds no state of its own.
type Client struct {
	backend Backend
	logger  *zap.Logger
}

func NewClient(backend Backend, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{backend: backend, logger: logger.Named("directory")}
}

func (c *Client) ListCatalogs(ctx context.Context) ([]models.Catalog, error) {
	records, err := c.backend.ListCatalogs(ctx)
	if err != nil {
		return nil, remoteError("list_catalogs", err)
	}

	catalogs := make([]models.Catalog, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Name) == "" {
			c.dropped("catalog", r)
			continue
		}
		catalogs = append(catalogs, r)
	}
	return catalogs, nil
}

// ListSchemas returns the schemas of one catalog. An empty catalog name yields
// no schemas without asking the workspace.
func (c *Client) ListSchemas(ctx context.Context, catalog string) ([]models.Schema, error) {
	if catalog == "" {
		return []models.Schema{}, nil
	}

	records, err := c.backend.ListSchemas(ctx, catalog)
	if err != nil {
		return nil, remoteError("list_schemas", err)
	}

	schemas := make([]models.Schema, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Name) == "" {
			c.dropped("schema", r)
			continue
		}
		if r.CatalogName == "" {
			r.CatalogName = catalog
		}
		schemas = append(schemas, r)
	}
	return schemas, nil
}

// ListTables returns the tables of catalog.schema. Either key empty yields no tables.
func (c *Client) ListTables(ctx context.Context, catalog, schema string) ([]models.Table, error) {
	if catalog == "" || schema == "" {
		return []models.Table{}, nil
	}

	records, err := c.backend.ListTables(ctx, catalog, schema)
	if err != nil {
		return nil, remoteError("list_tables", err)
	}

	tables := make([]models.Table, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Name) == "" {
			c.dropped("table", r)
			continue
		}
		if r.CatalogName == "" {
			r.CatalogName = catalog
		}
		if r.SchemaName == "" {
			r.SchemaName = schema
		}
		if r.Type == "" {
			r.Type = models.DefaultTableType
		}
		tables = append(tables, r)
	}
	return tables, nil
}

// ListPrincipals lists users, then groups.
func (c *Client) ListPrincipals(ctx context.Context) (models.Principals, error) {
	users, err := c.backend.ListUsers(ctx)
	if err != nil {
		return models.Principals{}, remoteError("list_users", err)
	}
	groups, err := c.backend.ListGroups(ctx)
	if err != nil {
		return models.Principals{}, remoteError("list_groups", err)
	}

	p := models.Principals{
		Users:  make([]models.User, 0, len(users)),
		Groups: make([]models.Group, 0, len(groups)),
	}
	for _, u := range users {
		if strings.TrimSpace(u.UserName) == "" {
			c.dropped("user", u)
			continue
		}
		p.Users = append(p.Users, u)
	}
	for _, g := range groups {
		if strings.TrimSpace(g.DisplayName) == "" {
			c.dropped("group", g)
			continue
		}
		p.Groups = append(p.Groups, g)
	}
	return p, nil
}

// UpdateGrants submits changes in a single call. Nothing is rolled back locally
// when the workspace rejects part of it.
func (c *Client) UpdateGrants(ctx context.Context, securable models.SecurableType, fullName string, changes []models.PermissionsChange) error {
	opID := uuid.New().String()
	c.logger.Info("updating grants",
		zap.String("op_id", opID),
		zap.String("securable_type", string(securable)),
		zap.String("full_name", fullName),
		zap.Int("changes", len(changes)),
	)

	if err := c.backend.UpdateGrants(ctx, securable, fullName, changes); err != nil {
		c.logger.Warn("grant update rejected", zap.String("op_id", opID), zap.Error(err))
		return remoteError("update_grants", err)
	}
	return nil
}

func (c *Client) dropped(kind string, record any) {
	c.logger.Warn("dropping record without a name", zap.String("kind", kind), zap.Any("record", record))
}
