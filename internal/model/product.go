package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item. Sale items snapshot name and price at sale time,
// so editing a product never rewrites ledger history.
// IsKit marks products backed by a bill-of-ingredients (Recipe).
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string          `gorm:"uniqueIndex;not null"`
	Category     string          `gorm:"not null;index"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	StockQty     int             `gorm:"not null;default:0"`
	StockMinimum int             `gorm:"not null;default:0"`
	IsKit        bool            `gorm:"not null;default:false"`
	IsTest       bool            `gorm:"not null;default:false"`
	IsActive     bool            `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
