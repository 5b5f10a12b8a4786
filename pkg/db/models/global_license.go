package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyworks/licensing-backend/pkg/enums"
)

// GlobalLicense is the write model for a tenant subscription. The two
// store-computed columns live on GlobalLicenseRow only, so this struct cannot
// write them by construction.
type GlobalLicense struct {
	ID                 uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GUID               int                 `gorm:"column:guid;not null;unique"`
	TenantID           uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;index"`
	LicenseType        enums.LicenseType   `gorm:"column:license_type;not null"`
	BillingCycleMonths int                 `gorm:"column:billing_cycle_months;not null"`
	BasePriceUSD       decimal.Decimal     `gorm:"column:base_price_usd;type:decimal(12,2);not null"`
	MinimumSeats       int                 `gorm:"column:minimum_seats;not null"`
	CurrentPeriodStart time.Time           `gorm:"column:current_period_start;not null"`
	CurrentPeriodEnd   time.Time           `gorm:"column:current_period_end;not null"`
	NextRenewalDate    time.Time           `gorm:"column:next_renewal_date;not null"`
	Status             enums.LicenseStatus `gorm:"column:status;not null;default:'ACTIVE'"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName sets the database table name.
func (GlobalLicense) TableName() string { return "global_licenses" }

// GlobalLicenseRow is the full read model. total_seats_purchased and
// billing_status are derived asynchronously by the storage layer; they are
// read-only projections re-fetched after any write that could affect them.
type GlobalLicenseRow struct {
	GlobalLicense
	TotalSeatsPurchased int    `gorm:"column:total_seats_purchased;->"`
	BillingStatus       string `gorm:"column:billing_status;->"`
}

// TableName sets the database table name.
func (GlobalLicenseRow) TableName() string { return "global_licenses" }
