package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the billing-relevant slice of a tenant record. Tenant CRUD is
// owned elsewhere; the engine only reads jurisdiction and currency.
type Tenant struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string    `gorm:"column:name;not null"`
	CountryCode         string    `gorm:"column:country_code;size:2;not null"`
	Jurisdiction        string    `gorm:"column:jurisdiction;not null;index"`
	BillingCurrencyCode string    `gorm:"column:billing_currency_code;size:3;not null"`
	TaxExempt           bool      `gorm:"column:tax_exempt;not null;default:false"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
