package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatusPaid marks an invoice counted in the paid total
const InvoiceStatusPaid = "paid"

// CustomerModel is a row of the customers table. Customers are owned by
// another part of the product; the console only reads them.
type CustomerModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ContractModel is a row of the contracts table (read-only).
type ContractModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Status     string    `gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// InvoiceModel is a row of the invoices table (read-only).
type InvoiceModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	CompanyID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ContractID *uuid.UUID      `gorm:"type:uuid;index"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status     string          `gorm:"type:varchar(20);not null;index"`
	CreatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}
