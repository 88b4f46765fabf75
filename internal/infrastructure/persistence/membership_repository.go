package persistence

import (
	"context"

	"github.com/erp/console/internal/domain/organization"
	"github.com/erp/console/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMembershipRepository implements MembershipRepository using GORM
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a new GormMembershipRepository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// FindByCompany returns the memberships of a company, oldest first
func (r *GormMembershipRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]organization.Membership, error) {
	var rows []models.MembershipModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	memberships := make([]organization.Membership, 0, len(rows))
	for i := range rows {
		memberships = append(memberships, *rows[i].ToDomain())
	}
	return memberships, nil
}

// ExistsForUser checks whether the user already belongs to the company
func (r *GormMembershipRepository) ExistsForUser(ctx context.Context, companyID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.MembershipModel{}).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a membership
func (r *GormMembershipRepository) Save(ctx context.Context, membership *organization.Membership) error {
	return r.db.WithContext(ctx).Save(models.MembershipModelFromDomain(membership)).Error
}
