package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Court struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	Type         string          `json:"type" db:"type"` // futsal, tennis, basketball, ...
	PricePerHour decimal.Decimal `json:"price_per_hour" db:"price_per_hour"`
	Capacity     int             `json:"capacity" db:"capacity"`
	IsCovered    bool            `json:"is_covered" db:"is_covered"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
