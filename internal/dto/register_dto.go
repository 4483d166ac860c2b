package dto

import "github.com/shopspring/decimal"

// ─── Registers ───────────────────────────────────────────────────────────────

type CreateRegisterRequest struct {
	Code     string `json:"code"     validate:"required,min=2,max=20"`
	Name     string `json:"name"     validate:"required,min=2,max=100"`
	Type     string `json:"type"     validate:"required,oneof=bar door"`
	Location string `json:"location" validate:"required,min=2"`
	// PaymentMethods the terminal is declared to accept.
	PaymentMethods []string `json:"payment_methods" validate:"required,min=1,dive,oneof=cash debit credit"`
	IsTest         bool     `json:"is_test"`
}

type RegisterResponse struct {
	ID                string   `json:"id"`
	Code              string   `json:"code"`
	Name              string   `json:"name"`
	Type              string   `json:"type"`
	Location          string   `json:"location"`
	PaymentMethods    []string `json:"payment_methods"`
	OperationalStatus string   `json:"operational_status"`
	IsTest            bool     `json:"is_test"`
	IsActive          bool     `json:"is_active"`
}

// ─── Products ────────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name         string          `json:"name"          validate:"required,min=2,max=120"`
	Category     string          `json:"category"      validate:"required,min=2"`
	Price        decimal.Decimal `json:"price"         validate:"min=0"`
	CostPrice    decimal.Decimal `json:"cost_price"    validate:"min=0"`
	StockQty     int             `json:"stock_qty"     validate:"min=0"`
	StockMinimum int             `json:"stock_minimum" validate:"min=0"`
	IsKit        bool            `json:"is_kit"`
	IsTest       bool            `json:"is_test"`
}

type ProductResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	StockQty int             `json:"stock_qty"`
	IsKit    bool            `json:"is_kit"`
	IsActive bool            `json:"is_active"`
}
