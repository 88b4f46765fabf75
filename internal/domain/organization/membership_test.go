package organization

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range []string{"admin", "manager", "operator", "viewer"} {
		got, err := ParseRole(r)
		require.NoError(t, err)
		assert.Equal(t, Role(r), got)
	}
	_, err := ParseRole("owner")
	assert.ErrorContains(t, err, "owner")
}

func TestDefaultPermissions(t *testing.T) {
	admin := DefaultPermissions(RoleAdmin)
	assert.True(t, admin.Allows(ModuleSettings, "delete"))

	manager := DefaultPermissions(RoleManager)
	assert.True(t, manager.Allows(ModuleBranches, "write"))
	assert.False(t, manager.Allows(ModuleSettings, "write"))
	assert.False(t, manager.Allows(ModuleInvoices, "delete"))

	operator := DefaultPermissions(RoleOperator)
	assert.True(t, operator.Allows(ModuleInvoices, "write"))
	assert.False(t, operator.Allows(ModuleCompanies, "write"))
	assert.False(t, operator.Allows(ModuleSettings, "read"))

	viewer := DefaultPermissions(RoleViewer)
	assert.True(t, viewer.Allows(ModuleCustomers, "read"))
	assert.False(t, viewer.Allows(ModuleCustomers, "write"))
	assert.False(t, viewer.Allows(ModuleCustomers, "approve"))
}

func TestNewMembership(t *testing.T) {
	companyID, userID := uuid.New(), uuid.New()

	t.Run("defaults permissions from role", func(t *testing.T) {
		m, err := NewMembership(companyID, userID, nil, RoleViewer, nil)
		require.NoError(t, err)
		assert.Equal(t, companyID, m.CompanyID)
		assert.Nil(t, m.BranchID)
		assert.True(t, m.Permissions.Allows(ModuleContracts, "read"))
		require.Len(t, m.GetDomainEvents(), 1)
	})

	t.Run("keeps explicit permissions", func(t *testing.T) {
		branchID := uuid.New()
		perms := Permissions{ModuleInvoices: {Read: true, Write: true}}
		m, err := NewMembership(companyID, userID, &branchID, RoleOperator, perms)
		require.NoError(t, err)
		assert.Equal(t, &branchID, m.BranchID)
		assert.False(t, m.Permissions.Allows(ModuleCustomers, "read"))
	})

	t.Run("rejects unknown module", func(t *testing.T) {
		_, err := NewMembership(companyID, userID, nil, RoleOperator, Permissions{"payroll": {Read: true}})
		assert.ErrorContains(t, err, "payroll")
	})

	t.Run("rejects write without read", func(t *testing.T) {
		_, err := NewMembership(companyID, userID, nil, RoleOperator, Permissions{ModuleInvoices: {Write: true}})
		assert.ErrorContains(t, err, "without read")
	})

	t.Run("rejects bad role and empty ids", func(t *testing.T) {
		_, err := NewMembership(companyID, userID, nil, "root", nil)
		assert.Error(t, err)
		_, err = NewMembership(uuid.Nil, userID, nil, RoleAdmin, nil)
		assert.Error(t, err)
		_, err = NewMembership(companyID, uuid.Nil, nil, RoleAdmin, nil)
		assert.Error(t, err)
	})
}
