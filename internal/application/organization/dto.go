package organization

import (
	"time"

	"github.com/erp/console/internal/domain/organization"
	"github.com/erp/console/internal/domain/shared"
	"github.com/erp/console/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompanyInput is the company form. Update replaces every field; a nil
// Active leaves the flag unchanged.
type CompanyInput struct {
	LegalName string
	TradeName string
	TaxID     string
	Contact   organization.Contact
	Address   valueobject.AddressDTO
	Banking   *organization.BankDetails
	Config    *organization.CompanyConfig
	Active    *bool
}

// BranchInput is the branch form. An empty Code on create takes the next
// generated code and on update keeps the current one. A nil Operations
// enables everything on create and is left unchanged on update.
type BranchInput struct {
	Code           string
	Name           string
	IsHeadquarters bool
	Tax            organization.TaxOverrides
	Address        valueobject.AddressDTO
	Responsible    organization.Responsible
	Operations     *organization.Operations
	CostCenter     string
	Active         *bool
}

// MembershipInput links a user to a company
type MembershipInput struct {
	UserID      uuid.UUID
	BranchID    *uuid.UUID
	Role        string
	Permissions organization.Permissions
}

// CompanyFilter represents filter for querying companies
type CompanyFilter struct {
	Page     int
	PageSize int
	SortBy   string
	SortDir  string
	Keyword  string
	Active   *bool
}

// ToSharedFilter converts CompanyFilter to shared.Filter
func (f CompanyFilter) ToSharedFilter() shared.Filter {
	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	filters := map[string]any{}
	if f.Active != nil {
		filters["active"] = *f.Active
	}
	return shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  f.SortBy,
		OrderDir: f.SortDir,
		Search:   f.Keyword,
		Filters:  filters,
	}
}

// CompanyDTO represents company data transfer object
type CompanyDTO struct {
	ID        uuid.UUID                  `json:"id"`
	LegalName string                     `json:"legal_name"`
	TradeName string                     `json:"trade_name,omitempty"`
	TaxID     string                     `json:"tax_id"`
	Contact   organization.Contact       `json:"contact"`
	Address   *valueobject.AddressDTO    `json:"address,omitempty"`
	Banking   *organization.BankDetails  `json:"banking,omitempty"`
	Config    organization.CompanyConfig `json:"config"`
	Active    bool                       `json:"active"`
	Version   int                        `json:"version"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// CompanyAggregates are the figures derived from branches and the ledger
type CompanyAggregates struct {
	BranchCount      int64           `json:"branch_count"`
	CustomerCount    int64           `json:"customer_count"`
	ContractCount    int64           `json:"contract_count"`
	PaidInvoiceTotal decimal.Decimal `json:"paid_invoice_total"`
}

// CompanySummaryDTO is a company list entry
type CompanySummaryDTO struct {
	CompanyDTO
	Aggregates CompanyAggregates `json:"aggregates"`
}

// CompanyDetailDTO is a company with its branches and aggregates
type CompanyDetailDTO struct {
	CompanyDTO
	Aggregates CompanyAggregates `json:"aggregates"`
	Branches   []BranchDTO       `json:"branches"`
}

// CompanyListResult represents paginated company list result
type CompanyListResult struct {
	Companies  []CompanySummaryDTO `json:"companies"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// BranchDTO represents branch data transfer object
type BranchDTO struct {
	ID             uuid.UUID                 `json:"id"`
	CompanyID      uuid.UUID                 `json:"company_id"`
	Code           string                    `json:"code"`
	Name           string                    `json:"name"`
	IsHeadquarters bool                      `json:"is_headquarters"`
	Tax            organization.TaxOverrides `json:"tax"`
	Address        *valueobject.AddressDTO   `json:"address,omitempty"`
	Responsible    organization.Responsible  `json:"responsible"`
	Operations     organization.Operations   `json:"operations"`
	CostCenter     string                    `json:"cost_center,omitempty"`
	Active         bool                      `json:"active"`
	Version        int                       `json:"version"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// MembershipDTO represents membership data transfer object
type MembershipDTO struct {
	ID          uuid.UUID                `json:"id"`
	CompanyID   uuid.UUID                `json:"company_id"`
	UserID      uuid.UUID                `json:"user_id"`
	BranchID    *uuid.UUID               `json:"branch_id,omitempty"`
	Role        organization.Role        `json:"role"`
	Permissions organization.Permissions `json:"permissions"`
	Active      bool                     `json:"active"`
	CreatedAt   time.Time                `json:"created_at"`
}

// ToCompanyDTO converts a domain Company to CompanyDTO
func ToCompanyDTO(c *organization.Company) CompanyDTO {
	dto := CompanyDTO{
		ID:        c.ID,
		LegalName: c.LegalName,
		TradeName: c.TradeName,
		TaxID:     c.TaxID,
		Contact:   c.Contact,
		Config:    c.Config,
		Active:    c.Active,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if !c.Address.IsEmpty() {
		addr := c.Address.ToDTO()
		dto.Address = &addr
	}
	if c.Banking != nil {
		bank := *c.Banking
		dto.Banking = &bank
	}
	return dto
}

// ToBranchDTO converts a domain Branch to BranchDTO
func ToBranchDTO(b *organization.Branch) BranchDTO {
	dto := BranchDTO{
		ID:             b.ID,
		CompanyID:      b.CompanyID,
		Code:           b.Code,
		Name:           b.Name,
		IsHeadquarters: b.IsHeadquarters,
		Tax:            b.Tax,
		Responsible:    b.Responsible,
		Operations:     b.Operations,
		CostCenter:     b.CostCenter,
		Active:         b.Active,
		Version:        b.Version,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	if !b.Address.IsEmpty() {
		addr := b.Address.ToDTO()
		dto.Address = &addr
	}
	return dto
}

// ToBranchDTOs converts branches to DTOs
func ToBranchDTOs(branches []organization.Branch) []BranchDTO {
	out := make([]BranchDTO, len(branches))
	for i := range branches {
		out[i] = ToBranchDTO(&branches[i])
	}
	return out
}

// ToMembershipDTO converts a domain Membership to MembershipDTO
func ToMembershipDTO(m *organization.Membership) MembershipDTO {
	return MembershipDTO{
		ID:          m.ID,
		CompanyID:   m.CompanyID,
		UserID:      m.UserID,
		BranchID:    m.BranchID,
		Role:        m.Role,
		Permissions: m.Permissions,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
	}
}
