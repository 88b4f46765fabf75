package organization

import (
	"github.com/erp/console/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeCompany    = "Company"
	AggregateTypeBranch     = "Branch"
	AggregateTypeMembership = "Membership"
)

// Event type constants
const (
	EventTypeCompanyCreated       = "CompanyCreated"
	EventTypeCompanyUpdated       = "CompanyUpdated"
	EventTypeCompanyStatusChanged = "CompanyStatusChanged"
	EventTypeBranchCreated        = "BranchCreated"
	EventTypeBranchUpdated        = "BranchUpdated"
	EventTypeMembershipCreated    = "MembershipCreated"
)

// CompanyCreatedEvent is published when a company is created
type CompanyCreatedEvent struct {
	shared.BaseDomainEvent
	LegalName string `json:"legal_name"`
	TaxID     string `json:"tax_id"`
}

// NewCompanyCreatedEvent creates a new CompanyCreatedEvent
func NewCompanyCreatedEvent(c *Company) *CompanyCreatedEvent {
	return &CompanyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyCreated, AggregateTypeCompany, c.ID, c.ID),
		LegalName:       c.LegalName,
		TaxID:           c.TaxID,
	}
}

// CompanyUpdatedEvent is published when a company's identity changes
type CompanyUpdatedEvent struct {
	shared.BaseDomainEvent
	LegalName string `json:"legal_name"`
	TradeName string `json:"trade_name,omitempty"`
	TaxID     string `json:"tax_id"`
}

// NewCompanyUpdatedEvent creates a new CompanyUpdatedEvent
func NewCompanyUpdatedEvent(c *Company) *CompanyUpdatedEvent {
	return &CompanyUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyUpdated, AggregateTypeCompany, c.ID, c.ID),
		LegalName:       c.LegalName,
		TradeName:       c.TradeName,
		TaxID:           c.TaxID,
	}
}

// CompanyStatusChangedEvent is published when a company is (de)activated
type CompanyStatusChangedEvent struct {
	shared.BaseDomainEvent
	Active bool `json:"active"`
}

// NewCompanyStatusChangedEvent creates a new CompanyStatusChangedEvent
func NewCompanyStatusChangedEvent(c *Company) *CompanyStatusChangedEvent {
	return &CompanyStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyStatusChanged, AggregateTypeCompany, c.ID, c.ID),
		Active:          c.Active,
	}
}

// BranchCreatedEvent is published when a branch is created
type BranchCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewBranchCreatedEvent creates a new BranchCreatedEvent
func NewBranchCreatedEvent(b *Branch) *BranchCreatedEvent {
	return &BranchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBranchCreated, AggregateTypeBranch, b.ID, b.CompanyID),
		Code:            b.Code,
		Name:            b.Name,
	}
}

// BranchUpdatedEvent is published when a branch's code or name changes
type BranchUpdatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewBranchUpdatedEvent creates a new BranchUpdatedEvent
func NewBranchUpdatedEvent(b *Branch) *BranchUpdatedEvent {
	return &BranchUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBranchUpdated, AggregateTypeBranch, b.ID, b.CompanyID),
		Code:            b.Code,
		Name:            b.Name,
	}
}

// MembershipCreatedEvent is published when a user is linked to a company
type MembershipCreatedEvent struct {
	shared.BaseDomainEvent
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// NewMembershipCreatedEvent creates a new MembershipCreatedEvent
func NewMembershipCreatedEvent(m *Membership) *MembershipCreatedEvent {
	return &MembershipCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMembershipCreated, AggregateTypeMembership, m.ID, m.CompanyID),
		UserID:          m.UserID.String(),
		Role:            m.Role,
	}
}
