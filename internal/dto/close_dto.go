package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ActualCount is the manually entered end-of-day count per payment method.
type ActualCount struct {
	Cash   decimal.Decimal `json:"cash"   validate:"min=0"`
	Debit  decimal.Decimal `json:"debit"  validate:"min=0"`
	Credit decimal.Decimal `json:"credit" validate:"min=0"`
}

type CloseRegisterRequest struct {
	RegisterID string      `json:"register_id" validate:"required,uuid"`
	ShiftDate  string      `json:"shift_date"  validate:"omitempty,datetime=2006-01-02"`
	Actual     ActualCount `json:"actual"      validate:"required"`
	Notes      *string     `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ExpectedTotals is the pure replay of the ledger for one (register, day).
type ExpectedTotals struct {
	Cash       decimal.Decimal `json:"cash"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Total      decimal.Decimal `json:"total"`
	SalesCount int             `json:"sales_count"`
}

type CloseResponse struct {
	ID           string          `json:"id"`
	RegisterID   string          `json:"register_id"`
	RegisterName string          `json:"register_name"`
	ShiftDate    string          `json:"shift_date"`
	EmployeeID   string          `json:"employee_id"`

	ExpectedCash   decimal.Decimal `json:"expected_cash"`
	ExpectedDebit  decimal.Decimal `json:"expected_debit"`
	ExpectedCredit decimal.Decimal `json:"expected_credit"`
	ActualCash     decimal.Decimal `json:"actual_cash"`
	ActualDebit    decimal.Decimal `json:"actual_debit"`
	ActualCredit   decimal.Decimal `json:"actual_credit"`
	DiffCash       decimal.Decimal `json:"diff_cash"`
	DiffDebit      decimal.Decimal `json:"diff_debit"`
	DiffCredit     decimal.Decimal `json:"diff_credit"`
	// DifferenceTotal: positive = surplus, negative = shortage.
	DifferenceTotal decimal.Decimal `json:"difference_total"`
	// AnomalyFlagged is true when |difference_total| reached the alert
	// threshold. The close succeeded regardless.
	AnomalyFlagged bool `json:"anomaly_flagged"`

	TotalSales  int             `json:"total_sales"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Notes       *string         `json:"notes"`
	Status      string          `json:"status"`
	ClosedAt    string          `json:"closed_at"`
}
