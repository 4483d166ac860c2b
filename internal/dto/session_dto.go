package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	RegisterID string `json:"register_id" validate:"required,uuid"`
	// ShiftDate is the operating day; empty = today. Night shifts keep the day
	// they started on, so the terminal sends it explicitly after midnight.
	ShiftDate   string          `json:"shift_date"   validate:"omitempty,datetime=2006-01-02"`
	InitialCash decimal.Decimal `json:"initial_cash" validate:"min=0"`
}

type CloseSessionRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

type AcquireLockRequest struct {
	RegisterID string `json:"register_id" validate:"required,uuid"`
	// TTLMinutes overrides the configured lock TTL when > 0.
	TTLMinutes int `json:"ttl_minutes" validate:"omitempty,min=1,max=480"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SessionResponse struct {
	ID          string          `json:"id"`
	RegisterID  string          `json:"register_id"`
	ShiftDate   string          `json:"shift_date"`
	OpenedBy    string          `json:"opened_by"`
	Status      string          `json:"status"`
	InitialCash decimal.Decimal `json:"initial_cash"`
	TicketCount int             `json:"ticket_count"`
	OpenedAt    string          `json:"opened_at"`
	ClosedAt    *string         `json:"closed_at"`
}

type LockResponse struct {
	RegisterID   string `json:"register_id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	LockedAt     string `json:"locked_at"`
	ExpiresAt    string `json:"expires_at"`
}
