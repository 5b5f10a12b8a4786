package adjustments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	"github.com/tallyworks/licensing-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an adjustments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, adj *models.LicenseAdjustment) (*models.LicenseAdjustment, error) {
	if err := r.db.WithContext(ctx).Create(adj).Error; err != nil {
		return nil, err
	}
	return adj, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LicenseAdjustment, error) {
	var adj models.LicenseAdjustment
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&adj).Error
	if err != nil {
		return nil, err
	}
	return &adj, nil
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

	var items []models.LicenseAdjustment
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

func (r *repository) FindInPeriod(ctx context.Context, licenseID uuid.UUID, start, end time.Time) ([]models.LicenseAdjustment, error) {
	var items []models.LicenseAdjustment
	err := r.db.WithContext(ctx).
		Where("license_id = ?", licenseID).
		Where("adjustment_date >= ? AND adjustment_date <= ?", start, end).
		Where("payment_status <> ?", enums.AdjustmentPaymentStatusCancelled).
		Order("adjustment_date ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to enums.AdjustmentPaymentStatus, updates map[string]any) (int64, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["payment_status"] = to

	result := r.db.WithContext(ctx).
		Model(&models.LicenseAdjustment{}).
		Where("id = ? AND payment_status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
