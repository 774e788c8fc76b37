// ABOUTME: Tests for the TUI tabs and permission form
// ABOUTME: Drives the model with key messages against the fake workspace backend
package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/ucadmin/cache"
	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/grants"
	"github.com/harperreed/ucadmin/models"
	"github.com/harperreed/ucadmin/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupModel(t *testing.T) (Model, *directory.FakeBackend) {
	t.Helper()
	backend := directory.SampleBackend()
	cached := directory.NewCached(directory.NewClient(backend, nil), cache.New())
	manager := grants.NewManager(cached, nil)
	return NewModel(context.Background(), cached, manager), backend
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
)

func TestUsersTabListsPrincipals(t *testing.T) {
	m, _ := setupModel(t)

	out := m.View()
	assert.Contains(t, out, "All Users and Groups")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "data-eng")
}

func TestTabCycling(t *testing.T) {
	m, _ := setupModel(t)

	m = press(t, m, keyTab)
	assert.Equal(t, TabCatalogs, m.tab)
	assert.Contains(t, m.View(), "admins")

	m = press(t, m, keyTab, keyTab, keyTab, keyTab)
	assert.Equal(t, TabUsers, m.tab)
}

func TestSchemasTabCyclesCatalogs(t *testing.T) {
	m, backend := setupModel(t)
	m = press(t, m, keyTab, keyTab)
	require.Equal(t, TabSchemas, m.tab)

	out := m.View()
	assert.Contains(t, out, "main.sales")
	assert.Contains(t, out, "main.hr")

	m = press(t, m, runes("c"))
	assert.Equal(t, "dev", m.browse.Catalog())
	assert.Contains(t, m.View(), selection.NoSchemasPlaceholder)
	assert.Equal(t, 2, backend.CallCount("ListSchemas"))
}

func TestTablesTabCyclesSchemas(t *testing.T) {
	m, _ := setupModel(t)
	m = press(t, m, keyTab, keyTab, keyTab)
	require.Equal(t, TabTables, m.tab)

	assert.Equal(t, "sales", m.browse.Schema())
	assert.Contains(t, m.View(), selection.NoTablesPlaceholder)

	m = press(t, m, runes("s"))
	assert.Equal(t, "hr", m.browse.Schema())
	out := m.View()
	assert.Contains(t, out, "employees")
	assert.Contains(t, out, "MANAGED")
}

func TestRefreshRefetches(t *testing.T) {
	m, backend := setupModel(t)
	m = press(t, m, keyTab)
	before := backend.CallCount("ListCatalogs")

	m = press(t, m, keyTab, keyTab, keyTab, keyTab, keyTab)
	assert.Equal(t, before, backend.CallCount("ListCatalogs"), "cached listing reused")

	press(t, m, runes("r"))
	assert.Greater(t, backend.CallCount("ListCatalogs"), before)
}

func TestPermissionFormDefaults(t *testing.T) {
	m, _ := setupModel(t)
	m = press(t, m, keyTab, keyTab, keyTab, keyTab)
	require.Equal(t, TabPermissions, m.tab)

	ctrl := m.form.ctrl
	assert.Equal(t, models.ActionGrant, ctrl.Action())
	assert.Equal(t, models.SecurableCatalog, ctrl.ObjectType())
	assert.Equal(t, "main", ctrl.Catalog())
	assert.Equal(t, models.PrivSelect, ctrl.Privilege())
	assert.Empty(t, ctrl.Principal())
	assert.False(t, ctrl.CanSubmit())
	assert.Contains(t, m.View(), "(incomplete)")
}

func TestPermissionFormSubmit(t *testing.T) {
	m, backend := setupModel(t)
	m = press(t, m, keyTab, keyTab, keyTab, keyTab)

	// Enter with no principal sends nothing.
	m = press(t, m, keyEnter)
	assert.Empty(t, backend.GrantCalls)
	require.Error(t, m.form.err)

	// Principal: prompt, users header, alice.
	m = press(t, m, keyDown, keyRight)
	assert.Empty(t, m.form.ctrl.Principal())
	m = press(t, m, keyRight)
	assert.Equal(t, "alice", m.form.ctrl.Principal())
	assert.True(t, m.form.ctrl.CanSubmit())

	m = press(t, m, keyEnter)
	require.NoError(t, m.form.err)
	require.Len(t, backend.GrantCalls, 1)
	call := backend.GrantCalls[0]
	assert.Equal(t, models.SecurableCatalog, call.SecurableType)
	assert.Equal(t, "main", call.FullName)
	assert.Equal(t, []models.Privilege{models.PrivSelect}, call.Changes[0].Add)
	assert.Contains(t, m.View(), "Granted SELECT on CATALOG main to alice")
}

func TestPermissionFormTableCascade(t *testing.T) {
	m, _ := setupModel(t)
	m = press(t, m, keyTab, keyTab, keyTab, keyTab)

	// Object type: CATALOG -> SCHEMA -> TABLE.
	m = press(t, m, keyDown, keyDown, keyRight, keyRight)
	require.Equal(t, models.SecurableTable, m.form.ctrl.ObjectType())
	assert.Equal(t, "sales", m.form.ctrl.Schema())
	assert.Equal(t, selection.TableUnavailable, m.form.ctrl.State())
	assert.Contains(t, m.View(), selection.NoTablesPlaceholder)

	// Schema picker is the fifth row.
	m = press(t, m, keyDown, keyDown, keyRight)
	assert.Equal(t, "hr", m.form.ctrl.Schema())
	assert.Equal(t, "employees", m.form.ctrl.Table())
	assert.Equal(t, "main.hr.employees", m.form.ctrl.ObjectName())
}

func TestPermissionFormFreeTextName(t *testing.T) {
	m, backend := setupModel(t)
	m = press(t, m, keyTab, keyTab, keyTab, keyTab)

	m = press(t, m, keyDown, keyRight, keyRight) // alice
	m = press(t, m, keyDown, keyRight, keyRight, keyRight)
	require.Equal(t, models.SecurableView, m.form.ctrl.ObjectType())
	assert.Contains(t, m.View(), "Enter the full, qualified name for the VIEW.")

	m = press(t, m, keyDown)
	require.True(t, m.form.typing())
	m = press(t, m, runes("main.sales.q1"))
	assert.Equal(t, TabPermissions, m.tab, "letters go to the input")
	assert.Equal(t, "main.sales.q1", m.form.ctrl.ObjectName())

	m = press(t, m, keyEnter)
	require.NoError(t, m.form.err)
	require.Len(t, backend.GrantCalls, 1)
	assert.Equal(t, models.SecurableView, backend.GrantCalls[0].SecurableType)
}

func TestPermissionFormTypedPrincipalWhenListingFails(t *testing.T) {
	backend := directory.SampleBackend()
	backend.Errs["ListGroups"] = errors.New("Forbidden: SCIM read not allowed")
	cached := directory.NewCached(directory.NewClient(backend, nil), cache.New())
	m := NewModel(context.Background(), cached, grants.NewManager(cached, nil))
	m = press(t, m, keyTab, keyTab, keyTab, keyTab)
	require.Equal(t, TabPermissions, m.tab)

	require.True(t, m.form.freePrincipal)
	require.Error(t, m.form.err)

	m = press(t, m, keyDown)
	require.True(t, m.form.typing())
	m = press(t, m, runes("carol"))
	assert.Equal(t, TabPermissions, m.tab, "letters go to the input")
	assert.Equal(t, "carol", m.form.ctrl.Principal())
	assert.True(t, m.form.ctrl.CanSubmit())

	m = press(t, m, keyEnter)
	require.NoError(t, m.form.err)
	require.Len(t, backend.GrantCalls, 1)
	assert.Equal(t, "carol", backend.GrantCalls[0].Changes[0].Principal)
	assert.Equal(t, "main", backend.GrantCalls[0].FullName)
}
