package models

import (
	"encoding/json"

	"github.com/erp/console/internal/domain/organization"
	"github.com/erp/console/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// logger for model conversion errors (silent failures are logged for debugging)
var modelLogger = zap.L().Named("organization.models")

// CompanyModel is the persistence model for the Company aggregate root.
type CompanyModel struct {
	AggregateModel
	LegalName    string               `gorm:"type:varchar(200);not null"`
	TradeName    string               `gorm:"type:varchar(200)"`
	TaxID        string               `gorm:"type:varchar(14);not null;uniqueIndex"`
	ContactEmail string               `gorm:"type:varchar(200)"`
	ContactPhone string               `gorm:"type:varchar(50)"`
	Website      string               `gorm:"type:varchar(200)"`
	Address      valueobject.Address  `gorm:"type:text"`
	BankName     *string              `gorm:"type:varchar(100)"`
	BankAgency   *string              `gorm:"type:varchar(20)"`
	BankAccount  *string              `gorm:"type:varchar(30)"`
	PixKey       *string              `gorm:"type:varchar(100)"`
	Currency     valueobject.Currency `gorm:"type:varchar(3);not null;default:'BRL'"`
	Timezone     string               `gorm:"type:varchar(50);not null;default:'America/Sao_Paulo'"`
	DateFormat   string               `gorm:"type:varchar(20);not null;default:'DD/MM/YYYY'"`
	LogoURL      string               `gorm:"type:varchar(500)"`
	Active       bool                 `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company entity.
func (m *CompanyModel) ToDomain() *organization.Company {
	c := &organization.Company{
		LegalName: m.LegalName,
		TradeName: m.TradeName,
		TaxID:     m.TaxID,
		Contact: organization.Contact{
			Email:   m.ContactEmail,
			Phone:   m.ContactPhone,
			Website: m.Website,
		},
		Address: m.Address,
		Config: organization.CompanyConfig{
			Currency:   m.Currency,
			Timezone:   m.Timezone,
			DateFormat: m.DateFormat,
			LogoURL:    m.LogoURL,
		},
		Active: m.Active,
	}
	m.PopulateAggregateRoot(&c.BaseAggregateRoot)

	bank := organization.BankDetails{
		Bank:    deref(m.BankName),
		Agency:  deref(m.BankAgency),
		Account: deref(m.BankAccount),
		PixKey:  deref(m.PixKey),
	}
	if !bank.IsEmpty() {
		c.Banking = &bank
	}
	return c
}

// FromDomain populates the persistence model from a domain Company entity.
func (m *CompanyModel) FromDomain(c *organization.Company) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.LegalName = c.LegalName
	m.TradeName = c.TradeName
	m.TaxID = c.TaxID
	m.ContactEmail = c.Contact.Email
	m.ContactPhone = c.Contact.Phone
	m.Website = c.Contact.Website
	m.Address = c.Address
	m.BankName, m.BankAgency, m.BankAccount, m.PixKey = nil, nil, nil, nil
	if c.Banking != nil {
		m.BankName = ptr(c.Banking.Bank)
		m.BankAgency = ptr(c.Banking.Agency)
		m.BankAccount = ptr(c.Banking.Account)
		m.PixKey = ptr(c.Banking.PixKey)
	}
	m.Currency = c.Config.Currency
	m.Timezone = c.Config.Timezone
	m.DateFormat = c.Config.DateFormat
	m.LogoURL = c.Config.LogoURL
	m.Active = c.Active
}

// CompanyModelFromDomain creates a new persistence model from a domain Company entity.
func CompanyModelFromDomain(c *organization.Company) *CompanyModel {
	m := &CompanyModel{}
	m.FromDomain(c)
	return m
}

// BranchModel is the persistence model for the Branch aggregate root.
// The (company_id, code) pair is unique.
type BranchModel struct {
	AggregateModel
	CompanyID             uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_branches_company_code,priority:1"`
	Code                  string              `gorm:"type:varchar(20);not null;uniqueIndex:idx_branches_company_code,priority:2"`
	Name                  string              `gorm:"type:varchar(200);not null"`
	IsHeadquarters        bool                `gorm:"not null"`
	StateRegistration     string              `gorm:"type:varchar(30)"`
	MunicipalRegistration string              `gorm:"type:varchar(30)"`
	Address               valueobject.Address `gorm:"type:text"`
	ResponsibleName       string              `gorm:"type:varchar(200)"`
	ResponsibleEmail      string              `gorm:"type:varchar(200)"`
	ResponsiblePhone      string              `gorm:"type:varchar(50)"`
	SalesEnabled          bool                `gorm:"not null"`
	PurchasingEnabled     bool                `gorm:"not null"`
	InventoryEnabled      bool                `gorm:"not null"`
	CostCenter            string              `gorm:"type:varchar(50)"`
	Active                bool                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BranchModel) TableName() string {
	return "branches"
}

// ToDomain converts the persistence model to a domain Branch entity.
func (m *BranchModel) ToDomain() *organization.Branch {
	b := &organization.Branch{
		Code:           m.Code,
		Name:           m.Name,
		IsHeadquarters: m.IsHeadquarters,
		Tax: organization.TaxOverrides{
			StateRegistration:     m.StateRegistration,
			MunicipalRegistration: m.MunicipalRegistration,
		},
		Address: m.Address,
		Responsible: organization.Responsible{
			Name:  m.ResponsibleName,
			Email: m.ResponsibleEmail,
			Phone: m.ResponsiblePhone,
		},
		Operations: organization.Operations{
			Sales:      m.SalesEnabled,
			Purchasing: m.PurchasingEnabled,
			Inventory:  m.InventoryEnabled,
		},
		CostCenter: m.CostCenter,
		Active:     m.Active,
	}
	m.PopulateAggregateRoot(&b.BaseAggregateRoot)
	b.CompanyID = m.CompanyID
	return b
}

// FromDomain populates the persistence model from a domain Branch entity.
func (m *BranchModel) FromDomain(b *organization.Branch) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.CompanyID = b.CompanyID
	m.Code = b.Code
	m.Name = b.Name
	m.IsHeadquarters = b.IsHeadquarters
	m.StateRegistration = b.Tax.StateRegistration
	m.MunicipalRegistration = b.Tax.MunicipalRegistration
	m.Address = b.Address
	m.ResponsibleName = b.Responsible.Name
	m.ResponsibleEmail = b.Responsible.Email
	m.ResponsiblePhone = b.Responsible.Phone
	m.SalesEnabled = b.Operations.Sales
	m.PurchasingEnabled = b.Operations.Purchasing
	m.InventoryEnabled = b.Operations.Inventory
	m.CostCenter = b.CostCenter
	m.Active = b.Active
}

// BranchModelFromDomain creates a new persistence model from a domain Branch entity.
func BranchModelFromDomain(b *organization.Branch) *BranchModel {
	m := &BranchModel{}
	m.FromDomain(b)
	return m
}

// MembershipModel is the persistence model for the user-company-branch link.
type MembershipModel struct {
	CompanyAggregateModel
	UserID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	BranchID        *uuid.UUID        `gorm:"type:uuid;index"`
	Role            organization.Role `gorm:"type:varchar(20);not null"`
	PermissionsJSON string            `gorm:"column:permissions;type:jsonb;not null;default:'{}'"`
	Active          bool              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MembershipModel) TableName() string {
	return "company_memberships"
}

// ToDomain converts the persistence model to a domain Membership entity.
func (m *MembershipModel) ToDomain() *organization.Membership {
	ms := &organization.Membership{
		UserID:      m.UserID,
		BranchID:    m.BranchID,
		Role:        m.Role,
		Permissions: organization.Permissions{},
		Active:      m.Active,
	}
	m.PopulateCompanyAggregateRoot(&ms.CompanyAggregateRoot)

	if m.PermissionsJSON != "" {
		var perms organization.Permissions
		if err := json.Unmarshal([]byte(m.PermissionsJSON), &perms); err != nil {
			modelLogger.Warn("failed to parse permissions JSON",
				zap.String("membership_id", m.ID.String()),
				zap.String("raw_json", m.PermissionsJSON),
				zap.Error(err))
		} else {
			ms.Permissions = perms
		}
	}
	return ms
}

// FromDomain populates the persistence model from a domain Membership entity.
func (m *MembershipModel) FromDomain(ms *organization.Membership) {
	m.FromDomainCompanyAggregateRoot(ms.CompanyAggregateRoot)
	m.UserID = ms.UserID
	m.BranchID = ms.BranchID
	m.Role = ms.Role
	m.Active = ms.Active
	m.PermissionsJSON = "{}"
	if jsonBytes, err := json.Marshal(ms.Permissions); err == nil {
		m.PermissionsJSON = string(jsonBytes)
	}
}

// MembershipModelFromDomain creates a new persistence model from a domain Membership entity.
func MembershipModelFromDomain(ms *organization.Membership) *MembershipModel {
	m := &MembershipModel{}
	m.FromDomain(ms)
	return m
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
