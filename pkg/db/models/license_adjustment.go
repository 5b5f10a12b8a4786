package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyworks/licensing-backend/pkg/enums"
)

// LicenseAdjustment records one mid-cycle seat change billed separately from
// the regular cycle. Money fields and the embedded rate/tax snapshot are fixed
// at creation; once payment_status reaches a final state the row is immutable.
type LicenseAdjustment struct {
	ID                  uuid.UUID                     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GUID                int                           `gorm:"column:guid;not null;unique"`
	LicenseID           uuid.UUID                     `gorm:"column:license_id;type:uuid;not null;index"`
	EmployeesAddedCount int                           `gorm:"column:employees_added_count;not null"`
	MonthsRemaining     decimal.Decimal               `gorm:"column:months_remaining;type:decimal(4,2);not null"`
	PricePerEmployeeUSD decimal.Decimal               `gorm:"column:price_per_employee_usd;type:decimal(12,2);not null"`
	SubtotalUSD         decimal.Decimal               `gorm:"column:subtotal_usd;type:decimal(12,2);not null"`
	TaxAmountUSD        decimal.Decimal               `gorm:"column:tax_amount_usd;type:decimal(12,2);not null"`
	TotalAmountUSD      decimal.Decimal               `gorm:"column:total_amount_usd;type:decimal(12,2);not null"`
	BillingCurrencyCode string                        `gorm:"column:billing_currency_code;size:3;not null"`
	ExchangeRateUsed    decimal.Decimal               `gorm:"column:exchange_rate_used;type:decimal(18,6);not null"`
	SubtotalLocal       decimal.Decimal               `gorm:"column:subtotal_local;type:decimal(14,2);not null"`
	TaxAmountLocal      decimal.Decimal               `gorm:"column:tax_amount_local;type:decimal(14,2);not null"`
	TotalAmountLocal    decimal.Decimal               `gorm:"column:total_amount_local;type:decimal(14,2);not null"`
	TaxRulesApplied     json.RawMessage               `gorm:"column:tax_rules_applied;type:jsonb"`
	PaymentStatus       enums.AdjustmentPaymentStatus `gorm:"column:payment_status;not null;default:'PENDING'"`
	AdjustmentDate      time.Time                     `gorm:"column:adjustment_date;not null"`
	InvoiceSentAt       *time.Time                    `gorm:"column:invoice_sent_at"`
	PaymentCompletedAt  *time.Time                    `gorm:"column:payment_completed_at"`
	CreatedAt           time.Time                     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                     `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName sets the database table name.
func (LicenseAdjustment) TableName() string { return "license_adjustments" }
