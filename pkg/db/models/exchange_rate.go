package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRate is a catalog row for one currency pair. The engine reads the
// latest row as of computation time and embeds the value into the owning
// record; it never dereferences this table after creation.
type ExchangeRate struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FromCode  string          `gorm:"column:from_code;size:3;not null;index:idx_exchange_rates_pair"`
	ToCode    string          `gorm:"column:to_code;size:3;not null;index:idx_exchange_rates_pair"`
	Rate      decimal.Decimal `gorm:"column:rate;type:decimal(18,6);not null"`
	AsOf      time.Time       `gorm:"column:as_of;not null;index"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName sets the database table name.
func (ExchangeRate) TableName() string { return "exchange_rates" }
