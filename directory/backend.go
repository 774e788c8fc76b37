// ABOUTME: Contracts between the directory facade, its callers and the workspace
// ABOUTME: Backend is the raw workspace surface, Directory is what the rest of the app consumes
package directory

import (
	"context"

	"github.com/harperreed/ucadmin/models"
)

// Backend is the workspace service the facade talks to.
type Backend interface {
	ListCatalogs(ctx context.Context) ([]models.Catalog, error)
	ListSchemas(ctx context.Context, catalog string) ([]models.Schema, error)
	ListTables(ctx context.Context, catalog, schema string) ([]models.Table, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	UpdateGrants(ctx context.Context, securable models.SecurableType, fullName string, changes []models.PermissionsChange) error
}

// Reader is the read side of the directory.
type Reader interface {
	ListCatalogs(ctx context.Context) ([]models.Catalog, error)
	ListSchemas(ctx context.Context, catalog string) ([]models.Schema, error)
	ListTables(ctx context.Context, catalog, schema string) ([]models.Table, error)
	ListPrincipals(ctx context.Context) (models.Principals, error)
}

// Writer applies permission changes.
type Writer interface {
	UpdateGrants(ctx context.Context, securable models.SecurableType, fullName string, changes []models.PermissionsChange) error
}

// Directory is satisfied by both Client and Cached.
type Directory interface {
	Reader
	Writer
}
