// ABOUTME: Tests for permission-change building and application
// ABOUTME: Verifies allow-list checks and that invalid input never reaches the workspace
package grants

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrivilege(t *testing.T) {
	tests := []struct {
		in   string
		want models.Privilege
	}{
		{"SELECT", models.PrivSelect},
		{" select ", models.PrivSelect},
		{"use_catalog", models.PrivUseCatalog},
		{"ALL_PRIVILEGES", models.PrivAllPrivileges},
	}
	for _, tt := range tests {
		got, err := ParsePrivilege(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"DROP_TABLE", "", "ALL PRIVILEGES"} {
		_, err := ParsePrivilege(bad)
		var invalid *InvalidPrivilegeError
		require.ErrorAs(t, err, &invalid, bad)
		assert.Equal(t, bad, invalid.Value)
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("")
	require.NoError(t, err)
	assert.Equal(t, models.ActionGrant, a)

	a, err = ParseAction("revoke")
	require.NoError(t, err)
	assert.Equal(t, models.ActionRevoke, a)

	_, err = ParseAction("deny")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "action", verr.Field)
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "main", FullName("main"))
	assert.Equal(t, "main.sales", FullName("main", "sales"))
	assert.Equal(t, "main.sales.orders", FullName("main", "sales", "orders"))
	assert.Equal(t, "main", FullName("main", ""))
}

func TestBuildValidation(t *testing.T) {
	valid := Request{Principal: "alice", ObjectType: "CATALOG", ObjectName: "main", Privilege: "SELECT", Action: "GRANT"}

	req, err := Build(valid)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionChangeRequest{
		Principal: "alice", SecurableType: models.SecurableCatalog, FullName: "main",
		Privilege: models.PrivSelect, Action: models.ActionGrant,
	}, req)

	missingPrincipal := valid
	missingPrincipal.Principal = " "
	_, err = Build(missingPrincipal)
	assert.Error(t, err)

	missingName := valid
	missingName.ObjectName = ""
	_, err = Build(missingName)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "object_name", verr.Field)

	badType := valid
	badType.ObjectType = "WAREHOUSE"
	_, err = Build(badType)
	assert.ErrorAs(t, err, &verr)
}

func TestBuildReportsInvalidPrivilegeBeforeOtherFields(t *testing.T) {
	for _, r := range []Request{
		{Privilege: "DROP_TABLE"},
		{Principal: " ", ObjectType: "CATALOG", ObjectName: "main", Privilege: "DROP_TABLE"},
		{Principal: "alice", ObjectType: "WAREHOUSE", ObjectName: "", Privilege: "OWN", Action: "DELETE"},
	} {
		_, err := Build(r)
		var invalid *InvalidPrivilegeError
		assert.ErrorAs(t, err, &invalid, "request %+v", r)
	}
}

func TestApplyGrantMakesExactlyOneCall(t *testing.T) {
	backend := directory.SampleBackend()
	m := NewManager(directory.NewClient(backend, nil), nil)

	res, err := m.Apply(context.Background(), Request{
		Principal: "alice", ObjectType: "CATALOG", ObjectName: "main", Privilege: "SELECT", Action: "GRANT",
	})
	require.NoError(t, err)
	assert.Equal(t, "Granted SELECT on CATALOG main to alice", res.Message)

	require.Len(t, backend.GrantCalls, 1)
	call := backend.GrantCalls[0]
	assert.Equal(t, models.SecurableCatalog, call.SecurableType)
	assert.Equal(t, "main", call.FullName)
	assert.Equal(t, []models.PermissionsChange{
		{Principal: "alice", Add: []models.Privilege{models.PrivSelect}},
	}, call.Changes)
}

func TestApplyRevokeOnlyRemoves(t *testing.T) {
	backend := directory.SampleBackend()
	m := NewManager(directory.NewClient(backend, nil), nil)

	res, err := m.Apply(context.Background(), Request{
		Principal: "data-eng", ObjectType: "SCHEMA", ObjectName: "main.sales", Privilege: "USE_SCHEMA", Action: "REVOKE",
	})
	require.NoError(t, err)
	assert.Equal(t, "Revoked USE_SCHEMA on SCHEMA main.sales from data-eng", res.Message)

	require.Len(t, backend.GrantCalls, 1)
	change := backend.GrantCalls[0].Changes[0]
	assert.Empty(t, change.Add)
	assert.Equal(t, []models.Privilege{models.PrivUseSchema}, change.Remove)
}

func TestApplyInvalidPrivilegeMakesNoCall(t *testing.T) {
	backend := directory.SampleBackend()
	m := NewManager(directory.NewClient(backend, nil), nil)

	_, err := m.Apply(context.Background(), Request{
		Principal: "alice", ObjectType: "TABLE", ObjectName: "main.hr.employees", Privilege: "DROP_TABLE", Action: "GRANT",
	})
	var invalid *InvalidPrivilegeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 0, backend.TotalCalls())
}

func TestApplySurfacesBackendMessage(t *testing.T) {
	backend := directory.SampleBackend()
	backend.Errs["UpdateGrants"] = errors.New("Principal alice does not exist")
	m := NewManager(directory.NewClient(backend, nil), nil)

	_, err := m.Apply(context.Background(), Request{
		Principal: "alice", ObjectType: "CATALOG", ObjectName: "main", Privilege: "SELECT",
	})
	require.Error(t, err)
	assert.True(t, directory.IsRemote(err))
	assert.Equal(t, "Principal alice does not exist", err.Error())
}
