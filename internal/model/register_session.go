package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session status values. Closing is terminal for the operating day.
const (
	SessionOpen   = "OPEN"
	SessionClosed = "CLOSED"
)

// RegisterSession records a register being actively staffed for one operating
// day. The composite unique index enforces at most one session per
// (register, shift_date) — racing openers lose at the storage layer, not in
// application code.
type RegisterSession struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RegisterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_session_register_day"`
	// ShiftDate is the operating day ("YYYY-MM-DD"); night shifts past midnight
	// keep the day they started on.
	ShiftDate          string `gorm:"type:varchar(10);not null;uniqueIndex:idx_session_register_day;index"`
	OpenedByEmployeeID string `gorm:"type:varchar(40);not null"`
	OpenedByName       string `gorm:"not null"`
	Status             string `gorm:"type:varchar(10);not null;default:'OPEN'"`
	InitialCash        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TicketCount        int             `gorm:"not null;default:0"`
	OpenedAt           time.Time       `gorm:"not null"`
	ClosedAt           *time.Time
	ClosedBy           *string `gorm:"type:varchar(40)"`
}
