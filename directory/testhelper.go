// ABOUTME: In-memory workspace backend for tests
// ABOUTME: Records every call and lets tests inject failures per operation
package directory

import (
	"context"
	"sync"

	"github.com/harperreed/ucadmin/models"
)

// GrantCall is one recorded UpdateGrants invocation.
type GrantCall struct {
	SecurableType models.SecurableType
	FullName      string
	Changes       []models.PermissionsChange
}

// FakeBackend serves fixed listings. Schemas are keyed by catalog and tables by
// "catalog.schema". Errors set in Errs are returned for the matching operation name.
type FakeBackend struct {
	mu sync.Mutex

	Catalogs []models.Catalog
	Schemas  map[string][]models.Schema
	Tables   map[string][]models.Table
	Users    []models.User
	Groups   []models.Group
	Errs     map[string]error

	Calls      map[string]int
	GrantCalls []GrantCall
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Schemas: make(map[string][]models.Schema),
		Tables:  make(map[string][]models.Table),
		Errs:    make(map[string]error),
		Calls:   make(map[string]int),
	}
}

func (f *FakeBackend) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Calls == nil {
		f.Calls = make(map[string]int)
	}
	f.Calls[op]++
	return f.Errs[op]
}

// CallCount returns how many times op was invoked.
func (f *FakeBackend) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

// TotalCalls counts every recorded invocation.
func (f *FakeBackend) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		n += c
	}
	return n
}

func (f *FakeBackend) ListCatalogs(context.Context) ([]models.Catalog, error) {
	if err := f.record("ListCatalogs"); err != nil {
		return nil, err
	}
	return append([]models.Catalog(nil), f.Catalogs...), nil
}

func (f *FakeBackend) ListSchemas(_ context.Context, catalog string) ([]models.Schema, error) {
	if err := f.record("ListSchemas"); err != nil {
		return nil, err
	}
	return append([]models.Schema(nil), f.Schemas[catalog]...), nil
}

func (f *FakeBackend) ListTables(_ context.Context, catalog, schema string) ([]models.Table, error) {
	if err := f.record("ListTables"); err != nil {
		return nil, err
	}
	return append([]models.Table(nil), f.Tables[catalog+"."+schema]...), nil
}

func (f *FakeBackend) ListUsers(context.Context) ([]models.User, error) {
	if err := f.record("ListUsers"); err != nil {
		return nil, err
	}
	return append([]models.User(nil), f.Users...), nil
}

func (f *FakeBackend) ListGroups(context.Context) ([]models.Group, error) {
	if err := f.record("ListGroups"); err != nil {
		return nil, err
	}
	return append([]models.Group(nil), f.Groups...), nil
}

func (f *FakeBackend) UpdateGrants(_ context.Context, securable models.SecurableType, fullName string, changes []models.PermissionsChange) error {
	if err := f.record("UpdateGrants"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GrantCalls = append(f.GrantCalls, GrantCall{
		SecurableType: securable,
		FullName:      fullName,
		Changes:       changes,
	})
	return nil
}

// SampleBackend returns a small workspace: catalog "main" with schemas "sales"
// (no tables) and "hr" (one table), two users and one group.
func SampleBackend() *FakeBackend {
	f := NewFakeBackend()
	f.Catalogs = []models.Catalog{{Name: "main", Owner: "admins"}, {Name: "dev", Owner: "alice"}}
	f.Schemas["main"] = []models.Schema{
		{CatalogName: "main", Name: "sales"},
		{CatalogName: "main", Name: "hr"},
	}
	f.Tables["main.hr"] = []models.Table{
		{CatalogName: "main", SchemaName: "hr", Name: "employees", Type: "MANAGED"},
	}
	f.Users = []models.User{
		{UserName: "alice", DisplayName: "Alice", Active: true},
		{UserName: "bob", DisplayName: "Bob", Active: true},
	}
	f.Groups = []models.Group{{DisplayName: "data-eng", ID: "g1"}}
	return f
}
