package organization

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerSummary is what the ledger knows about one company
type LedgerSummary struct {
	CustomerCount    int64
	ContractCount    int64
	PaidInvoiceTotal decimal.Decimal
}

// LedgerReader reads customers, contracts and invoices owned by other
// parts of the product. It is read-only.
type LedgerReader interface {
	Summaries(ctx context.Context, companyIDs []uuid.UUID) (map[uuid.UUID]LedgerSummary, error)
}
