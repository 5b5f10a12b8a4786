package billingcycles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	"github.com/tallyworks/licensing-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a billing cycles repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, cycle *models.BillingCycle) (*models.BillingCycle, error) {
	if err := r.db.WithContext(ctx).Create(cycle).Error; err != nil {
		return nil, err
	}
	return cycle, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BillingCycle, error) {
	var cycle models.BillingCycle
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *repository) ListByLicense(ctx context.Context, licenseID uuid.UUID, params pagination.Params) (*List, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).
		Where("license_id = ?", licenseID).
		Order("created_at DESC, id DESC").
		Limit(limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var items []models.BillingCycle
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}

	list := &List{Items: items}
	if len(items) == limit {
		last := items[limit-2]
		list.Items = items[:limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to enums.BillingStatus, updates map[string]any) (int64, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["billing_status"] = to

	result := r.db.WithContext(ctx).
		Model(&models.BillingCycle{}).
		Where("id = ? AND billing_status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
