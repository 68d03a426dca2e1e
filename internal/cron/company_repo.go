package cron

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/pkg/db/models"
)

// CompanyRepository lists the tenants the cron sweeps iterate over.
type CompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository builds a company repository bound to the provided DB.
func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// ListActiveCompanyIDs returns the ids of companies still marked active.
func (r *CompanyRepository) ListActiveCompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("active = ?", true).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
