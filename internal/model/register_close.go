package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterClose is the terminal reconciliation record for one
// (register, operating day). Expected totals are derivable purely by replaying
// the sales ledger; diffs follow the convention diff = actual − expected
// (positive = surplus, negative = shortage).
//
// The row is immutable once written — the unique index rejects a second close
// and corrections require a new adjustment record, never mutation.
type RegisterClose struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RegisterID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_close_register_day"`
	RegisterName string    `gorm:"not null"`
	ShiftDate    string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_close_register_day;index"`
	EmployeeID   string    `gorm:"type:varchar(40);not null"`
	EmployeeName string    `gorm:"not null"`

	ExpectedCash   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ExpectedDebit  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ExpectedCredit decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ActualCash     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ActualDebit    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ActualCredit   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiffCash       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiffDebit      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiffCredit     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// DifferenceTotal = DiffCash + DiffDebit + DiffCredit. Beyond the configured
	// threshold it is flagged as an anomaly but never blocks the close.
	DifferenceTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	TotalSales  int             `gorm:"not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notes       *string
	Status      string `gorm:"type:varchar(20);not null;default:'closed'"`
	OpenedAt    *time.Time
	ClosedAt    time.Time `gorm:"not null"`
}
