package rates

import (
	"context"
	"time"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
)

// Repository reads the externally-owned rate and tax catalogs.
type Repository interface {
	LatestRate(ctx context.Context, fromCode, toCode string) (*models.ExchangeRate, error)
	ActiveTaxRules(ctx context.Context, jurisdiction, appliesTo string, at time.Time) ([]models.TaxRule, error)
}
