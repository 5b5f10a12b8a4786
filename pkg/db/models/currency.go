package models

import "time"

// Currency is reference data owned by the external catalog.
type Currency struct {
	Code          string    `gorm:"column:code;size:3;primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Symbol        string    `gorm:"column:symbol"`
	DecimalPlaces int       `gorm:"column:decimal_places;not null;default:2"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName sets the database table name.
func (Currency) TableName() string { return "currencies" }
