package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyworks/licensing-backend/pkg/enums"
)

// TaxRule stores jurisdictional tax rates with temporal validity. Rates are
// fractions in [0,1] with 4 fractional digits.
type TaxRule struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Jurisdiction  string            `gorm:"column:jurisdiction;not null;index"`
	AppliesTo     string            `gorm:"column:applies_to;not null;index"`
	Name          string            `gorm:"column:name;not null"`
	Type          enums.TaxRuleType `gorm:"column:type;not null"`
	Rate          decimal.Decimal   `gorm:"column:rate;type:decimal(8,4);not null"`
	Priority      int               `gorm:"column:priority;not null;default:0"`
	EffectiveFrom time.Time         `gorm:"column:effective_from;not null;index"`
	EffectiveTo   *time.Time        `gorm:"column:effective_to;index"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName sets the database table name.
func (TaxRule) TableName() string { return "tax_rules" }
