package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/console/internal/domain/organization"
	"github.com/erp/console/internal/domain/shared"
	"github.com/erp/console/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBranchRepository implements BranchRepository using GORM
type GormBranchRepository struct {
	db *gorm.DB
}

// NewGormBranchRepository creates a new GormBranchRepository
func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

// FindByID finds a branch by its ID
func (r *GormBranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Branch, error) {
	var model models.BranchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCompany returns every branch of a company ordered by code
func (r *GormBranchRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]organization.Branch, error) {
	var rows []models.BranchModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	branches := make([]organization.Branch, 0, len(rows))
	for i := range rows {
		branches = append(branches, *rows[i].ToDomain())
	}
	return branches, nil
}

// CountByCompany counts branches per company for the given IDs
func (r *GormBranchRepository) CountByCompany(ctx context.Context, companyIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(companyIDs))
	if len(companyIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		CompanyID uuid.UUID
		Total     int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.BranchModel{}).
		Select("company_id, COUNT(*) AS total").
		Where("company_id IN ?", companyIDs).
		Group("company_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.CompanyID] = row.Total
	}
	return counts, nil
}

// headquartersIndex is the postgres partial index allowing one
// headquarters per company
const headquartersIndex = "idx_branches_one_headquarters"

// Save creates or updates a branch
func (r *GormBranchRepository) Save(ctx context.Context, branch *organization.Branch) error {
	model := models.BranchModelFromDomain(branch)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if strings.Contains(err.Error(), headquartersIndex) {
			return organization.ErrHeadquartersExists
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.duplicateCause(ctx, branch)
		}
		return err
	}
	return nil
}

// duplicateCause re-reads the siblings to tell which unique index a
// translated duplicate-key error came from. The driver error names the
// constraint, but error translation drops it.
func (r *GormBranchRepository) duplicateCause(ctx context.Context, branch *organization.Branch) error {
	siblings, err := r.FindByCompany(ctx, branch.CompanyID)
	if err != nil {
		return organization.ErrBranchCodeExists
	}
	if err := organization.EnsureUniqueCode(siblings, branch); err != nil {
		return err
	}
	if err := organization.EnsureSingleHeadquarters(siblings, branch); err != nil {
		return err
	}
	return organization.ErrBranchCodeExists
}
