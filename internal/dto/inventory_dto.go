package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateIngredientRequest struct {
	Name        string           `json:"name"         validate:"required,min=2,max=120"`
	Category    string           `json:"category"     validate:"omitempty,min=2"`
	BaseUnit    string           `json:"base_unit"    validate:"required,oneof=ml g unidad"`
	PackageSize *decimal.Decimal `json:"package_size" validate:"omitempty"`
	PackageUnit *string          `json:"package_unit"`
	CostPerUnit decimal.Decimal  `json:"cost_per_unit" validate:"min=0"`
}

type AdjustStockRequest struct {
	IngredientID string          `json:"ingredient_id" validate:"required,uuid"`
	Location     string          `json:"location"      validate:"required,min=2"`
	Quantity     decimal.Decimal `json:"quantity"      validate:"required"` // positive = in, negative = out
	Reason       string          `json:"reason"        validate:"required,min=3"`
}

type RecipeIngredientRequest struct {
	IngredientID       string          `json:"ingredient_id"        validate:"required,uuid"`
	QuantityPerPortion decimal.Decimal `json:"quantity_per_portion" validate:"required"`
	TolerancePercent   decimal.Decimal `json:"tolerance_percent"    validate:"min=0"`
}

type CreateRecipeRequest struct {
	ProductID   string                    `json:"product_id"  validate:"required,uuid"`
	Name        string                    `json:"name"        validate:"required,min=2"`
	Description string                    `json:"description"`
	Ingredients []RecipeIngredientRequest `json:"ingredients" validate:"required,min=1,dive"`
}

type DeliverRequest struct {
	SaleItemID string `json:"sale_item_id" validate:"required,uuid"`
	Location   string `json:"location"     validate:"required,min=2"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type IngredientResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	BaseUnit    string          `json:"base_unit"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
	IsActive    bool            `json:"is_active"`
}

type StockResponse struct {
	IngredientID   string          `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Location       string          `json:"location"`
	Quantity       decimal.Decimal `json:"quantity"`
	// Negative reports a balance below zero — flagged for audit, never blocking.
	Negative bool `json:"negative"`
}

type RecipeResponse struct {
	ID          string                   `json:"id"`
	ProductID   string                   `json:"product_id"`
	Name        string                   `json:"name"`
	IsActive    bool                     `json:"is_active"`
	Ingredients []RecipeIngredientDetail `json:"ingredients"`
}

type RecipeIngredientDetail struct {
	IngredientID       string          `json:"ingredient_id"`
	IngredientName     string          `json:"ingredient_name"`
	QuantityPerPortion decimal.Decimal `json:"quantity_per_portion"`
	TolerancePercent   decimal.Decimal `json:"tolerance_percent"`
}

type DeliveryResponse struct {
	ID         string  `json:"id"`
	SaleID     string  `json:"sale_id"`
	SaleItemID string  `json:"sale_item_id"`
	ItemName   string  `json:"item_name"`
	Qty        int     `json:"qty"`
	Bartender  string  `json:"bartender"`
	Location   string  `json:"location"`
	Timestamp  string  `json:"timestamp"`
	// StockWarnings lists ingredients whose balance went negative while
	// deducting for this delivery.
	StockWarnings []string `json:"stock_warnings,omitempty"`
}
