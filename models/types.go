// ABOUTME: Data models for Unity Catalog directory entities
// ABOUTME: Defines catalogs, schemas, tables, principals, privileges and permission changes
package models

import (
	"fmt"
	"time"
)

type Catalog struct {
	Name      string    `json:"name" yaml:"name"`
	Owner     string    `json:"owner,omitempty" yaml:"owner,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

type Schema struct {
	CatalogName string    `json:"catalog_name" yaml:"catalog_name"`
	Name        string    `json:"name" yaml:"name"`
	Owner       string    `json:"owner,omitempty" yaml:"owner,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// FullName returns catalog.schema.
func (s Schema) FullName() string {
	return s.CatalogName + "." + s.Name
}

// DefaultTableType is used when the workspace does not report a table type.
const DefaultTableType = "TABLE"

type Table struct {
	CatalogName string    `json:"catalog_name" yaml:"catalog_name"`
	SchemaName  string    `json:"schema_name" yaml:"schema_name"`
	Name        string    `json:"name" yaml:"name"`
	Type        string    `json:"type" yaml:"type"`
	Owner       string    `json:"owner,omitempty" yaml:"owner,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// FullName returns catalog.schema.table.
func (t Table) FullName() string {
	return t.CatalogName + "." + t.SchemaName + "." + t.Name
}

type User struct {
	UserName    string `json:"user_name" yaml:"user_name"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Active      bool   `json:"active" yaml:"active"`
}

type Group struct {
	DisplayName string `json:"display_name" yaml:"display_name"`
	ID          string `json:"id" yaml:"id"`
}

// Principals is the combined users and groups listing.
type Principals struct {
	Users  []User  `json:"users" yaml:"users"`
	Groups []Group `json:"groups" yaml:"groups"`
}

// UserNames returns the user names in listing order.
func (p Principals) UserNames() []string {
	names := make([]string, 0, len(p.Users))
	for _, u := range p.Users {
		names = append(names, u.UserName)
	}
	return names
}

// GroupNames returns the group display names in listing order.
func (p Principals) GroupNames() []string {
	names := make([]string, 0, len(p.Groups))
	for _, g := range p.Groups {
		names = append(names, g.DisplayName)
	}
	return names
}

// SecurableType identifies the kind of object a privilege applies to.
type SecurableType string

const (
	SecurableCatalog           SecurableType = "CATALOG"
	SecurableSchema            SecurableType = "SCHEMA"
	SecurableTable             SecurableType = "TABLE"
	SecurableView              SecurableType = "VIEW"
	SecurableFunction          SecurableType = "FUNCTION"
	SecurableStorageCredential SecurableType = "STORAGE_CREDENTIAL"
)

// SecurableTypes lists the object types offered for permission changes, in display order.
func SecurableTypes() []SecurableType {
	return []SecurableType{
		SecurableCatalog,
		SecurableSchema,
		SecurableTable,
		SecurableView,
		SecurableFunction,
		SecurableStorageCredential,
	}
}

// Privilege is a named capability grantable on a securable object.
type Privilege string

const (
	PrivSelect        Privilege = "SELECT"
	PrivModify        Privilege = "MODIFY"
	PrivUseCatalog    Privilege = "USE_CATALOG"
	PrivUseSchema     Privilege = "USE_SCHEMA"
	PrivCreateCatalog Privilege = "CREATE_CATALOG"
	PrivCreateSchema  Privilege = "CREATE_SCHEMA"
	PrivAllPrivileges Privilege = "ALL_PRIVILEGES"
)

// Privileges returns the allow-list of privileges, in display order.
func Privileges() []Privilege {
	return []Privilege{
		PrivSelect,
		PrivModify,
		PrivUseCatalog,
		PrivUseSchema,
		PrivCreateCatalog,
		PrivCreateSchema,
		PrivAllPrivileges,
	}
}

// Action is the direction of a permission change.
type Action string

const (
	ActionGrant  Action = "GRANT"
	ActionRevoke Action = "REVOKE"
)

// PermissionsChange is one entry of a grants update sent to the workspace.
type PermissionsChange struct {
	Principal string      `json:"principal" yaml:"principal"`
	Add       []Privilege `json:"add,omitempty" yaml:"add,omitempty"`
	Remove    []Privilege `json:"remove,omitempty" yaml:"remove,omitempty"`
}

// PermissionChangeRequest is a validated grant or revoke of a single privilege.
// It is built per user action and never stored.
type PermissionChangeRequest struct {
	Principal     string        `json:"principal" yaml:"principal"`
	SecurableType SecurableType `json:"securable_type" yaml:"securable_type"`
	FullName      string        `json:"full_name" yaml:"full_name"`
	Privilege     Privilege     `json:"privilege" yaml:"privilege"`
	Action        Action        `json:"action" yaml:"action"`
}

// Changes returns the single change entry for this request. GRANT fills Add,
// REVOKE fills Remove; never both.
func (r PermissionChangeRequest) Changes() []PermissionsChange {
	change := PermissionsChange{Principal: r.Principal}
	if r.Action == ActionRevoke {
		change.Remove = []Privilege{r.Privilege}
	} else {
		change.Add = []Privilege{r.Privilege}
	}
	return []PermissionsChange{change}
}

// Describe renders the request as a human-readable sentence.
func (r PermissionChangeRequest) Describe() string {
	if r.Action == ActionRevoke {
		return fmt.Sprintf("Revoked %s on %s %s from %s", r.Privilege, r.SecurableType, r.FullName, r.Principal)
	}
	return fmt.Sprintf("Granted %s on %s %s to %s", r.Privilege, r.SecurableType, r.FullName, r.Principal)
}
