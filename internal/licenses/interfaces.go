package licenses

import (
	"context"

	"github.com/google/uuid"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
)

// Repository reads license and tenant rows. The engine never creates or
// mutates licenses; subscription CRUD is owned elsewhere.
type Repository interface {
	FindRow(ctx context.Context, id uuid.UUID) (*models.GlobalLicenseRow, error)
	FindRowByGUID(ctx context.Context, guid int) (*models.GlobalLicenseRow, error)
	FindTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}
