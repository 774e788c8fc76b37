// ABOUTME: Backend implementation on the Databricks workspace SDK
// ABOUTME: Converts SDK records into fixed-field models
package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/databricks/databricks-sdk-go"
	"github.com/databricks/databricks-sdk-go/service/catalog"
	"github.com/databricks/databricks-sdk-go/service/iam"
	"github.com/harperreed/ucadmin/models"
)

type WorkspaceBackend struct {
	w *databricks.WorkspaceClient
}

// NewWorkspaceBackend connects to the workspace at host with a personal access token.
func NewWorkspaceBackend(host, token string) (*WorkspaceBackend, error) {
	w, err := databricks.NewWorkspaceClient(&databricks.Config{
		Host:  host,
		Token: token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace client: %w", err)
	}
	return &WorkspaceBackend{w: w}, nil
}

func (b *WorkspaceBackend) ListCatalogs(ctx context.Context) ([]models.Catalog, error) {
	infos, err := b.w.Catalogs.ListAll(ctx, catalog.ListCatalogsRequest{})
	if err != nil {
		return nil, err
	}
	out := make([]models.Catalog, 0, len(infos))
	for _, info := range infos {
		out = append(out, models.Catalog{
			Name:      info.Name,
			Owner:     info.Owner,
			CreatedAt: fromMillis(info.CreatedAt),
		})
	}
	return out, nil
}

func (b *WorkspaceBackend) ListSchemas(ctx context.Context, catalogName string) ([]models.Schema, error) {
	infos, err := b.w.Schemas.ListAll(ctx, catalog.ListSchemasRequest{CatalogName: catalogName})
	if err != nil {
		return nil, err
	}
	out := make([]models.Schema, 0, len(infos))
	for _, info := range infos {
		out = append(out, models.Schema{
			CatalogName: info.CatalogName,
			Name:        info.Name,
			Owner:       info.Owner,
			CreatedAt:   fromMillis(info.CreatedAt),
		})
	}
	return out, nil
}

func (b *WorkspaceBackend) ListTables(ctx context.Context, catalogName, schemaName string) ([]models.Table, error) {
	infos, err := b.w.Tables.ListAll(ctx, catalog.ListTablesRequest{
		CatalogName: catalogName,
		SchemaName:  schemaName,
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Table, 0, len(infos))
	for _, info := range infos {
		out = append(out, models.Table{
			CatalogName: info.CatalogName,
			SchemaName:  info.SchemaName,
			Name:        info.Name,
			Type:        string(info.TableType),
			Owner:       info.Owner,
			CreatedAt:   fromMillis(info.CreatedAt),
		})
	}
	return out, nil
}

func (b *WorkspaceBackend) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := b.w.Users.ListAll(ctx, iam.ListUsersRequest{})
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, models.User{
			UserName:    u.UserName,
			DisplayName: u.DisplayName,
			Active:      u.Active,
		})
	}
	return out, nil
}

func (b *WorkspaceBackend) ListGroups(ctx context.Context) ([]models.Group, error) {
	groups, err := b.w.Groups.ListAll(ctx, iam.ListGroupsRequest{})
	if err != nil {
		return nil, err
	}
	out := make([]models.Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.Group{
			DisplayName: g.DisplayName,
			ID:          g.Id,
		})
	}
	return out, nil
}

func (b *WorkspaceBackend) UpdateGrants(ctx context.Context, securable models.SecurableType, fullName string, changes []models.PermissionsChange) error {
	_, err := b.w.Grants.Update(ctx, catalog.UpdatePermissions{
		FullName:      fullName,
		SecurableType: catalog.SecurableType(securable),
		Changes:       toSDKChanges(changes),
	})
	return err
}

func toSDKChanges(changes []models.PermissionsChange) []catalog.PermissionsChange {
	out := make([]catalog.PermissionsChange, 0, len(changes))
	for _, c := range changes {
		out = append(out, catalog.PermissionsChange{
			Principal: c.Principal,
			Add:       toSDKPrivileges(c.Add),
			Remove:    toSDKPrivileges(c.Remove),
		})
	}
	return out
}

func toSDKPrivileges(privs []models.Privilege) []catalog.Privilege {
	if len(privs) == 0 {
		return nil
	}
	out := make([]catalog.Privilege, len(privs))
	for i, p := range privs {
		out[i] = catalog.Privilege(p)
	}
	return out
}

// Workspace timestamps are epoch milliseconds; zero means unknown.
func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
