package persistence

import (
	"context"

	"github.com/erp/console/internal/domain/organization"
	"github.com/erp/console/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerReader reads company aggregates from the customers, contracts
// and invoices tables. It never writes to them.
type GormLedgerReader struct {
	db *gorm.DB
}

// NewGormLedgerReader creates a new GormLedgerReader
func NewGormLedgerReader(db *gorm.DB) *GormLedgerReader {
	return &GormLedgerReader{db: db}
}

type companyCount struct {
	CompanyID uuid.UUID
	Total     int64
}

// Summaries returns one summary per requested company. Companies without
// rows get a zero summary.
func (r *GormLedgerReader) Summaries(ctx context.Context, companyIDs []uuid.UUID) (map[uuid.UUID]organization.LedgerSummary, error) {
	result := make(map[uuid.UUID]organization.LedgerSummary, len(companyIDs))
	if len(companyIDs) == 0 {
		return result, nil
	}
	for _, id := range companyIDs {
		result[id] = organization.LedgerSummary{PaidInvoiceTotal: decimal.Zero}
	}

	customers, err := r.countBy(ctx, &models.CustomerModel{}, companyIDs)
	if err != nil {
		return nil, err
	}
	contracts, err := r.countBy(ctx, &models.ContractModel{}, companyIDs)
	if err != nil {
		return nil, err
	}

	var invoices []struct {
		CompanyID uuid.UUID
		Amount    decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("company_id, amount").
		Where("company_id IN ? AND status = ?", companyIDs, models.InvoiceStatusPaid).
		Scan(&invoices).Error; err != nil {
		return nil, err
	}

	for id, n := range customers {
		s := result[id]
		s.CustomerCount = n
		result[id] = s
	}
	for id, n := range contracts {
		s := result[id]
		s.ContractCount = n
		result[id] = s
	}
	for _, inv := range invoices {
		s := result[inv.CompanyID]
		s.PaidInvoiceTotal = s.PaidInvoiceTotal.Add(inv.Amount)
		result[inv.CompanyID] = s
	}
	for id, s := range result {
		s.PaidInvoiceTotal = s.PaidInvoiceTotal.Round(2)
		result[id] = s
	}
	return result, nil
}

func (r *GormLedgerReader) countBy(ctx context.Context, model any, companyIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []companyCount
	if err := r.db.WithContext(ctx).
		Model(model).
		Select("company_id, COUNT(*) AS total").
		Where("company_id IN ?", companyIDs).
		Group("company_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.CompanyID] = row.Total
	}
	return counts, nil
}
