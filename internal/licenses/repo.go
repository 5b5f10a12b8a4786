package licenses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a licenses repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindRow(ctx context.Context, id uuid.UUID) (*models.GlobalLicenseRow, error) {
	var row models.GlobalLicenseRow
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindRowByGUID(ctx context.Context, guid int) (*models.GlobalLicenseRow, error) {
	var row models.GlobalLicenseRow
	err := r.db.WithContext(ctx).
		Where("guid = ?", guid).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}
