package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	ShiftDate  string `form:"shift_date"`             // YYYY-MM-DD; empty = today
	RegisterID string `form:"register_id"`            // optional
	Status     string `form:"status,default=active"`  // active | cancelled | all
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

// PaymentBreakdown splits a sale total across the supported payment methods.
type PaymentBreakdown struct {
	Cash   decimal.Decimal `json:"cash"   validate:"min=0"`
	Debit  decimal.Decimal `json:"debit"  validate:"min=0"`
	Credit decimal.Decimal `json:"credit" validate:"min=0"`
}

func (p PaymentBreakdown) Total() decimal.Decimal {
	return p.Cash.Add(p.Debit).Add(p.Credit)
}

type RecordSaleRequest struct {
	// IdempotencyKey makes retried submissions safe: the second call returns
	// the sale recorded by the first, never a duplicate.
	IdempotencyKey string            `json:"idempotency_key" validate:"required,min=8,max=120"`
	RegisterID     string            `json:"register_id"     validate:"required,uuid"`
	ShiftDate      string            `json:"shift_date"      validate:"omitempty,datetime=2006-01-02"`
	Items          []SaleItemRequest `json:"items"           validate:"required,min=1,dive"`
	Payment        PaymentBreakdown  `json:"payment"`
	IsCourtesy     bool              `json:"is_courtesy"`
	IsTest         bool              `json:"is_test"`
	NoRevenue      bool              `json:"no_revenue"`
}

type CancelSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID              string             `json:"id"`
	IdempotencyKey  string             `json:"idempotency_key"`
	RegisterID      string             `json:"register_id"`
	RegisterName    string             `json:"register_name"`
	EmployeeID      string             `json:"employee_id"`
	ShiftDate       string             `json:"shift_date"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	Payment         PaymentBreakdown   `json:"payment"`
	AdjustmentTotal decimal.Decimal    `json:"adjustment_total"`
	SessionID       *string            `json:"session_id"`
	IsCourtesy      bool               `json:"is_courtesy"`
	IsTest          bool               `json:"is_test"`
	NoRevenue       bool               `json:"no_revenue"`
	IsCancelled     bool               `json:"is_cancelled"`
	CancelledReason *string            `json:"cancelled_reason,omitempty"`
	Items           []SaleItemResponse `json:"items"`
	CreatedAt       string             `json:"created_at"`
}
