package adjustments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	"github.com/tallyworks/licensing-backend/pkg/pagination"
)

// List is one cursor page of adjustments.
type List struct {
	Items      []models.LicenseAdjustment
	NextCursor string
}

// Repository defines persistence operations for license adjustments.
type Repository interface {
	Create(ctx context.Context, adj *models.LicenseAdjustment) (*models.LicenseAdjustment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.LicenseAdjustment, error)
	ListByLicense(ctx context.Context, licenseID uuid.UUID, params pagination.Params) (*List, error)
	FindInPeriod(ctx context.Context, licenseID uuid.UUID, start, end time.Time) ([]models.LicenseAdjustment, error)
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to enums.AdjustmentPaymentStatus, updates map[string]any) (int64, error)
}
