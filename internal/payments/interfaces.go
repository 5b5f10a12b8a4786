package payments

import (
	"context"

	"github.com/google/uuid"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
	"github.com/tallyworks/licensing-backend/pkg/enums"
	"github.com/tallyworks/licensing-backend/pkg/pagination"
)

// List is one cursor page of payment transactions.
type List struct {
	Items      []models.PaymentTransaction
	NextCursor string
}

// Repository defines persistence operations for payment transactions.
type Repository interface {
	Create(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error)
	ListByOwner(ctx context.Context, billingCycleID, adjustmentID *uuid.UUID, params pagination.Params) (*List, error)
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to enums.PaymentTransactionStatus, updates map[string]any) (int64, error)
}
