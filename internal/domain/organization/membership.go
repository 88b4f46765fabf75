package organization

import (
	"fmt"

	"github.com/erp/console/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrMembershipExists is returned when a user is already linked to the company
var ErrMembershipExists = shared.NewDomainError("MEMBERSHIP_EXISTS", "User is already a member of this company")

// Role is a user's role within a company
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// ParseRole validates a role name
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleManager, RoleOperator, RoleViewer:
		return r, nil
	}
	return "", shared.NewDomainError("INVALID_ROLE", fmt.Sprintf("Unknown role %q", s))
}

// Module is a product area permissions apply to
type Module string

const (
	ModuleCompanies Module = "companies"
	ModuleBranches  Module = "branches"
	ModuleCustomers Module = "customers"
	ModuleContracts Module = "contracts"
	ModuleInvoices  Module = "invoices"
	ModuleSettings  Module = "settings"
)

// Modules lists every module
var Modules = []Module{ModuleCompanies, ModuleBranches, ModuleCustomers, ModuleContracts, ModuleInvoices, ModuleSettings}

// Permission is the access bundle for one module
type Permission struct {
	Read   bool `json:"read"`
	Write  bool `json:"write"`
	Delete bool `json:"delete"`
}

// Permissions maps modules to their access bundle
type Permissions map[Module]Permission

// Allows reports whether action ("read", "write", "delete") is granted on m
func (p Permissions) Allows(m Module, action string) bool {
	perm, ok := p[m]
	if !ok {
		return false
	}
	switch action {
	case "read":
		return perm.Read
	case "write":
		return perm.Write
	case "delete":
		return perm.Delete
	}
	return false
}

// DefaultPermissions returns the bundle a role gets when none is given
func DefaultPermissions(role Role) Permissions {
	p := make(Permissions, len(Modules))
	for _, m := range Modules {
		switch role {
		case RoleAdmin:
			p[m] = Permission{Read: true, Write: true, Delete: true}
		case RoleManager:
			p[m] = Permission{Read: true, Write: m != ModuleSettings}
		case RoleOperator:
			write := m == ModuleCustomers || m == ModuleContracts || m == ModuleInvoices
			p[m] = Permission{Read: m != ModuleSettings, Write: write}
		default:
			p[m] = Permission{Read: m != ModuleSettings}
		}
	}
	return p
}

// Membership links a user to a company and optionally one of its branches
type Membership struct {
	shared.CompanyAggregateRoot
	UserID      uuid.UUID
	BranchID    *uuid.UUID
	Role        Role
	Permissions Permissions
	Active      bool
}

// NewMembership creates an active membership. A nil permission bundle is
// replaced by the role defaults.
func NewMembership(companyID, userID uuid.UUID, branchID *uuid.UUID, role Role, perms Permissions) (*Membership, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	if perms == nil {
		perms = DefaultPermissions(role)
	}
	if err := validatePermissions(perms); err != nil {
		return nil, err
	}

	m := &Membership{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		UserID:               userID,
		BranchID:             branchID,
		Role:                 role,
		Permissions:          perms,
		Active:               true,
	}
	m.AddDomainEvent(NewMembershipCreatedEvent(m))
	return m, nil
}

func validatePermissions(p Permissions) error {
	known := make(map[Module]bool, len(Modules))
	for _, m := range Modules {
		known[m] = true
	}
	for m, perm := range p {
		if !known[m] {
			return shared.NewDomainError("INVALID_PERMISSION", fmt.Sprintf("Unknown module %q", m))
		}
		if (perm.Write || perm.Delete) && !perm.Read {
			return shared.NewDomainError("INVALID_PERMISSION", fmt.Sprintf("Module %q grants write or delete without read", m))
		}
	}
	return nil
}
