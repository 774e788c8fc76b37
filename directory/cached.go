// ABOUTME: Cache-backed directory reads
// ABOUTME: Memoizes catalog, schema, table and principal listings for the cache TTL
package directory

import (
	"context"

	"github.com/harperreed/ucadmin/cache"
	"github.com/harperreed/ucadmin/models"
)

const (
	opListCatalogs   = "list_catalogs"
	opListSchemas    = "list_schemas"
	opListTables     = "list_tables"
	opListPrincipals = "list_principals"
)

// Cached serves reads from a cache.Store and passes writes straight through.
// Writes do not invalidate the cache; callers use Refresh for that.
type Cached struct {
	client *Client
	store  *cache.Store
}

func NewCached(client *Client, store *cache.Store) *Cached {
	return &Cached{client: client, store: store}
}

func (c *Cached) ListCatalogs(ctx context.Context) ([]models.Catalog, error) {
	return cache.Fetch(ctx, c.store, cache.Key(opListCatalogs), c.client.ListCatalogs)
}

func (c *Cached) ListSchemas(ctx context.Context, catalog string) ([]models.Schema, error) {
	if catalog == "" {
		return []models.Schema{}, nil
	}
	return cache.Fetch(ctx, c.store, cache.Key(opListSchemas, catalog), func(ctx context.Context) ([]models.Schema, error) {
		return c.client.ListSchemas(ctx, catalog)
	})
}

func (c *Cached) ListTables(ctx context.Context, catalog, schema string) ([]models.Table, error) {
	if catalog == "" || schema == "" {
		return []models.Table{}, nil
	}
	return cache.Fetch(ctx, c.store, cache.Key(opListTables, catalog, schema), func(ctx context.Context) ([]models.Table, error) {
		return c.client.ListTables(ctx, catalog, schema)
	})
}

func (c *Cached) ListPrincipals(ctx context.Context) (models.Principals, error) {
	return cache.Fetch(ctx, c.store, cache.Key(opListPrincipals), c.client.ListPrincipals)
}

func (c *Cached) UpdateGrants(ctx context.Context, securable models.SecurableType, fullName string, changes []models.PermissionsChange) error {
	return c.client.UpdateGrants(ctx, securable, fullName, changes)
}

// Refresh drops every cached listing.
func (c *Cached) Refresh() {
	c.store.Invalidate()
}

func (c *Cached) Stats() cache.Stats {
	return c.store.Stats()
}
