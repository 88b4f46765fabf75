package organization

import (
	"context"

	"github.com/erp/console/internal/domain/shared"
	"github.com/google/uuid"
)

// CompanyRepository defines the interface for company persistence
type CompanyRepository interface {
	// FindByID finds a company by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)

	// FindAll finds companies matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Company, error)

	// Count counts companies matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByTaxID checks whether another company uses taxID
	ExistsByTaxID(ctx context.Context, taxID string, excludeID uuid.UUID) (bool, error)

	// Save creates or updates a company
	Save(ctx context.Context, company *Company) error
}

// BranchRepository defines the interface for branch persistence
type BranchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)

	// FindByCompany returns every branch of a company ordered by code
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]Branch, error)

	// CountByCompany counts branches per company for the given IDs
	CountByCompany(ctx context.Context, companyIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	Save(ctx context.Context, branch *Branch) error
}

// MembershipRepository defines the interface for membership persistence
type MembershipRepository interface {
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]Membership, error)
	ExistsForUser(ctx context.Context, companyID, userID uuid.UUID) (bool, error)
	Save(ctx context.Context, membership *Membership) error
}
