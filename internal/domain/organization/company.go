package organization

import (
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/erp/console/internal/domain/shared"
	"github.com/erp/console/internal/domain/shared/valueobject"
)

// Contact holds company or person contact channels
type Contact struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// BankDetails holds optional banking information
type BankDetails struct {
	Bank    string `json:"bank"`
	Agency  string `json:"agency"`
	Account string `json:"account"`
	PixKey  string `json:"pix_key"`
}

// IsEmpty reports whether no banking field is set
func (b BankDetails) IsEmpty() bool {
	return b == BankDetails{}
}

// CompanyConfig holds per-company presentation settings
type CompanyConfig struct {
	Currency   valueobject.Currency `json:"currency"`
	Timezone   string               `json:"timezone"`
	DateFormat string               `json:"date_format"`
	LogoURL    string               `json:"logo_url"`
}

// DefaultCompanyConfig returns the configuration of a new company
func DefaultCompanyConfig() CompanyConfig {
	return CompanyConfig{
		Currency:   valueobject.DefaultCurrency,
		Timezone:   "America/Sao_Paulo",
		DateFormat: "DD/MM/YYYY",
	}
}

var dateFormats = map[string]bool{
	"DD/MM/YYYY": true,
	"MM/DD/YYYY": true,
	"YYYY-MM-DD": true,
}

// ErrTaxIDExists is returned when another company already uses a tax ID
var ErrTaxIDExists = shared.NewDomainError("TAX_ID_EXISTS", "Another company already uses this tax ID")

// Company is the aggregate root of the organization hierarchy
type Company struct {
	shared.BaseAggregateRoot
	LegalName string
	TradeName string
	TaxID     string // CNPJ, digits only
	Contact   Contact
	Address   valueobject.Address
	Banking   *BankDetails
	Config    CompanyConfig
	Active    bool
}

// NewCompany creates an active company
func NewCompany(legalName, tradeName, taxID string) (*Company, error) {
	c := &Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Config:            DefaultCompanyConfig(),
		Active:            true,
	}
	if err := c.setIdentity(legalName, tradeName, taxID); err != nil {
		return nil, err
	}

	c.AddDomainEvent(NewCompanyCreatedEvent(c))
	return c, nil
}

// Update changes the company's legal identity
func (c *Company) Update(legalName, tradeName, taxID string) error {
	if err := c.setIdentity(legalName, tradeName, taxID); err != nil {
		return err
	}
	c.touch()
	c.AddDomainEvent(NewCompanyUpdatedEvent(c))
	return nil
}

func (c *Company) setIdentity(legalName, tradeName, taxID string) error {
	legalName = strings.TrimSpace(legalName)
	tradeName = strings.TrimSpace(tradeName)
	if legalName == "" {
		return shared.NewDomainError("INVALID_LEGAL_NAME", "Legal name cannot be empty")
	}
	if len(legalName) > 200 {
		return shared.NewDomainError("INVALID_LEGAL_NAME", "Legal name cannot exceed 200 characters")
	}
	if len(tradeName) > 200 {
		return shared.NewDomainError("INVALID_TRADE_NAME", "Trade name cannot exceed 200 characters")
	}
	normalized, err := NormalizeCNPJ(taxID)
	if err != nil {
		return err
	}

	c.LegalName = legalName
	c.TradeName = tradeName
	c.TaxID = normalized
	return nil
}

// DisplayName returns the trade name, or the legal name when unset
func (c *Company) DisplayName() string {
	if c.TradeName != "" {
		return c.TradeName
	}
	return c.LegalName
}

// SetContact replaces the contact details
func (c *Company) SetContact(contact Contact) error {
	contact.Email = strings.TrimSpace(contact.Email)
	contact.Phone = strings.TrimSpace(contact.Phone)
	contact.Website = strings.TrimSpace(contact.Website)
	if err := validateContact(contact); err != nil {
		return err
	}
	c.Contact = contact
	c.touch()
	return nil
}

// SetAddress replaces the postal address
func (c *Company) SetAddress(addr valueobject.Address) {
	c.Address = addr
	c.touch()
}

// SetBanking replaces the banking details; nil or empty clears them
func (c *Company) SetBanking(b *BankDetails) {
	if b == nil || b.IsEmpty() {
		c.Banking = nil
	} else {
		copied := *b
		c.Banking = &copied
	}
	c.touch()
}

// SetConfig replaces the presentation configuration
func (c *Company) SetConfig(cfg CompanyConfig) error {
	currency, err := valueobject.ParseCurrency(string(cfg.Currency))
	if err != nil {
		return shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil || cfg.Timezone == "" {
		return shared.NewDomainError("INVALID_TIMEZONE", "Timezone must be an IANA timezone name")
	}
	if !dateFormats[cfg.DateFormat] {
		return shared.NewDomainError("INVALID_DATE_FORMAT", "Date format must be DD/MM/YYYY, MM/DD/YYYY or YYYY-MM-DD")
	}
	cfg.Currency = currency
	c.Config = cfg
	c.touch()
	return nil
}

// Activate marks the company active
func (c *Company) Activate() {
	if c.Active {
		return
	}
	c.Active = true
	c.touch()
	c.AddDomainEvent(NewCompanyStatusChangedEvent(c))
}

// Deactivate marks the company inactive
func (c *Company) Deactivate() {
	if !c.Active {
		return
	}
	c.Active = false
	c.touch()
	c.AddDomainEvent(NewCompanyStatusChangedEvent(c))
}

func (c *Company) touch() {
	c.Touch()
	c.IncrementVersion()
}

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^[0-9+()\-\s]{8,20}$`)
)

func validateContact(contact Contact) error {
	if contact.Email != "" && !emailRegex.MatchString(contact.Email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	if contact.Phone != "" && !phoneRegex.MatchString(contact.Phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone format")
	}
	if len(contact.Website) > 200 {
		return shared.NewDomainError("INVALID_WEBSITE", "Website cannot exceed 200 characters")
	}
	return nil
}
