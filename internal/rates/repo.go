package rates

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tallyworks/licensing-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a rates repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) LatestRate(ctx context.Context, fromCode, toCode string) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.WithContext(ctx).
		Where("from_code = ? AND to_code = ?", fromCode, toCode).
		Order("as_of DESC").
		First(&rate).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *repository) ActiveTaxRules(ctx context.Context, jurisdiction, appliesTo string, at time.Time) ([]models.TaxRule, error) {
	var rules []models.TaxRule
	err := r.db.WithContext(ctx).
		Where("jurisdiction = ? AND applies_to = ?", jurisdiction, appliesTo).
		Where("effective_from <= ?", at).
		Where("effective_to IS NULL OR effective_to > ?", at).
		Order("priority ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}
