package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IngredientCategory groups ingredients for inventory screens.
type IngredientCategory struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"uniqueIndex;not null"`
	Description string
	CreatedAt   time.Time
}

// Ingredient is a physical input consumed when recipe-backed products are
// dispensed. BaseUnit is the unit recipes are written in (ml, g, unidad).
type Ingredient struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"uniqueIndex;not null"`
	CategoryID  *uuid.UUID
	BaseUnit    string           `gorm:"type:varchar(10);not null;default:'ml'"`
	PackageSize *decimal.Decimal `gorm:"type:decimal(12,2)"`
	PackageUnit *string          `gorm:"type:varchar(20)"`
	CostPerUnit decimal.Decimal  `gorm:"type:decimal(12,4);not null;default:0"`
	IsActive    bool             `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IngredientStock is the balance of one ingredient at one location.
// The balance may go negative: physical discrepancies are expected and must
// not block service — the shortfall stays visible for later audit.
type IngredientStock struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IngredientID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_ingredient_location"`
	Location     string          `gorm:"not null;uniqueIndex:idx_stock_ingredient_location"`
	Quantity     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	UpdatedAt    time.Time

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID"`
}

// StockMovement is an immutable audit entry for every stock change.
// Type: "delivery" | "manual_adjust" | "restock"
type StockMovement struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IngredientID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Location     string          `gorm:"not null"`
	Type         string          `gorm:"type:varchar(20);not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(14,2);not null"` // positive = in, negative = out
	BalanceAfter decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Reason       string
	ReferenceID  *uuid.UUID `gorm:"type:uuid"` // delivery_id when type = "delivery"
	CreatedAt    time.Time
}

func (StockMovement) TableName() string { return "stock_movements" }

// Recipe maps a product to its ingredient consumption. One active recipe per
// product.
type Recipe struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"not null"`
	Description string
	IsActive    bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID"`
}

// RecipeIngredient is one line of a recipe's bill-of-ingredients.
// TolerancePercent is the acceptable variance when reconciling consumption
// against deliveries.
type RecipeIngredient struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RecipeID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientID       uuid.UUID       `gorm:"type:uuid;not null"`
	QuantityPerPortion decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TolerancePercent   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Order              int             `gorm:"not null;default:0;column:item_order"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID"`
}
