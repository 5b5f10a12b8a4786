package billingcycles

import (
	"context"

	"github.com/google/uuid"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	"github.com/tallyworks/licensing-backend/pkg/pagination"
)

// List is one cursor page of billing cycles.
type List struct {
	Items      []models.BillingCycle
	NextCursor string
}

// Repository defines persistence operations for billing cycles.
type Repository interface {
	Create(ctx context.Context, cycle *models.BillingCycle) (*models.BillingCycle, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.BillingCycle, error)
	ListByLicense(ctx context.Context, licenseID uuid.UUID, params pagination.Params) (*List, error)
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to enums.BillingStatus, updates map[string]any) (int64, error)
}
