package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyworks/licensing-backend/pkg/enums"
)

// PaymentTransaction is one payment attempt against exactly one billing cycle
// or adjustment. Money fields are write-once at creation; every later write is
// a status-only conditional update.
type PaymentTransaction struct {
	ID               uuid.UUID                      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GUID             int                            `gorm:"column:guid;not null;unique"`
	BillingCycleID   *uuid.UUID                     `gorm:"column:billing_cycle_id;type:uuid;index"`
	AdjustmentID     *uuid.UUID                     `gorm:"column:adjustment_id;type:uuid;index"`
	AmountUSD        decimal.Decimal                `gorm:"column:amount_usd;type:decimal(12,2);not null"`
	AmountLocal      decimal.Decimal                `gorm:"column:amount_local;type:decimal(14,2);not null"`
	CurrencyCode     string                         `gorm:"column:currency_code;size:3;not null"`
	ExchangeRateUsed decimal.Decimal                `gorm:"column:exchange_rate_used;type:decimal(18,6);not null"`
	PaymentMethod    enums.PaymentMethod            `gorm:"column:payment_method;not null"`
	PaymentReference string                         `gorm:"column:payment_reference;not null;unique"`
	Status           enums.PaymentTransactionStatus `gorm:"column:transaction_status;not null;default:'PENDING'"`
	InitiatedAt      time.Time                      `gorm:"column:initiated_at;not null"`
	CompletedAt      *time.Time                     `gorm:"column:completed_at"`
	FailedAt         *time.Time                     `gorm:"column:failed_at"`
	FailureReason    *string                        `gorm:"column:failure_reason"`
	CreatedAt        time.Time                      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName sets the database table name.
func (PaymentTransaction) TableName() string { return "payment_transactions" }
