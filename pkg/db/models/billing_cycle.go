package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyworks/licensing-backend/pkg/enums"
)

// BillingCycle is the periodic invoice for a license: the prorated base
// subscription charge plus every adjustment whose date falls inside the
// period, taxed and projected into the tenant's billing currency. After
// payment completion only status and timestamps may change.
type BillingCycle struct {
	ID                   uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GUID                 int                 `gorm:"column:guid;not null;unique"`
	LicenseID            uuid.UUID           `gorm:"column:license_id;type:uuid;not null;index"`
	PeriodStart          time.Time           `gorm:"column:period_start;not null"`
	PeriodEnd            time.Time           `gorm:"column:period_end;not null"`
	BaseEmployeeCount    int                 `gorm:"column:base_employee_count;not null"`
	FinalEmployeeCount   int                 `gorm:"column:final_employee_count;not null"`
	BaseAmountUSD        decimal.Decimal     `gorm:"column:base_amount_usd;type:decimal(12,2);not null"`
	AdjustmentsAmountUSD decimal.Decimal     `gorm:"column:adjustments_amount_usd;type:decimal(12,2);not null"`
	SubtotalUSD          decimal.Decimal     `gorm:"column:subtotal_usd;type:decimal(12,2);not null"`
	TaxAmountUSD         decimal.Decimal     `gorm:"column:tax_amount_usd;type:decimal(12,2);not null"`
	TotalAmountUSD       decimal.Decimal     `gorm:"column:total_amount_usd;type:decimal(12,2);not null"`
	BillingCurrencyCode  string              `gorm:"column:billing_currency_code;size:3;not null"`
	ExchangeRateUsed     decimal.Decimal     `gorm:"column:exchange_rate_used;type:decimal(18,6);not null"`
	SubtotalLocal        decimal.Decimal     `gorm:"column:subtotal_local;type:decimal(14,2);not null"`
	TaxAmountLocal       decimal.Decimal     `gorm:"column:tax_amount_local;type:decimal(14,2);not null"`
	TotalAmountLocal     decimal.Decimal     `gorm:"column:total_amount_local;type:decimal(14,2);not null"`
	TaxRulesApplied      json.RawMessage     `gorm:"column:tax_rules_applied;type:jsonb"`
	BillingStatus        enums.BillingStatus `gorm:"column:billing_status;not null;default:'PENDING'"`
	PaymentDueDate       time.Time           `gorm:"column:payment_due_date;not null"`
	InvoiceSentAt        *time.Time          `gorm:"column:invoice_sent_at"`
	PaymentCompletedAt   *time.Time          `gorm:"column:payment_completed_at"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName sets the database table name.
func (BillingCycle) TableName() string { return "billing_cycles" }
