package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PosSale is one append-only row in the sales ledger.
//
// idempotency_key carries a unique index so that a retried submission from a
// terminal results in exactly one persisted sale — record_sale does an
// insert-on-conflict-fetch, never check-then-act.
//
// Cancellation is an update that sets the is_cancelled flag plus metadata;
// the row is never deleted (audit trail). Cancelled sales are excluded from
// expected-total computation from that point on.
type PosSale struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IdempotencyKey string          `gorm:"uniqueIndex;not null"`
	RegisterID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_sales_register_day"`
	RegisterName   string          `gorm:"not null"`
	EmployeeID     string          `gorm:"type:varchar(40);not null"`
	EmployeeName   string          `gorm:"not null"`
	ShiftDate      string          `gorm:"type:varchar(10);not null;index:idx_sales_register_day"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentCash    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaymentDebit   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaymentCredit  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// AdjustmentTotal declares the difference between the sum of item subtotals
	// and TotalAmount (discounts, courtesy zeroing) — never left implicit.
	AdjustmentTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// RegisterSessionID is nil when the sale was recorded without an open
	// session for that register/day.
	RegisterSessionID *uuid.UUID `gorm:"type:uuid;index"`

	IsCourtesy bool `gorm:"not null;default:false"`
	IsTest     bool `gorm:"not null;default:false"`
	NoRevenue  bool `gorm:"not null;default:false"`

	IsCancelled     bool `gorm:"not null;default:false;index"`
	CancelledAt     *time.Time
	CancelledBy     *string `gorm:"type:varchar(40)"`
	CancelledReason *string

	// SyncedToPhpPos tracks the best-effort replication into the legacy POS.
	SyncedToPhpPos bool `gorm:"not null;default:false;column:synced_to_phppos;index"`
	CreatedAt      time.Time

	Items []PosSaleItem `gorm:"foreignKey:SaleID"`
}

// PosSaleItem is a product snapshot taken at sale time — later product edits
// never rewrite historical totals.
type PosSaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
