package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Register is a point-of-sale terminal, physical or virtual.
// Type: "bar" | "door"
type Register struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code     string    `gorm:"uniqueIndex;not null"`
	Name     string    `gorm:"not null"`
	Type     string    `gorm:"type:varchar(10);not null"`
	Location string    `gorm:"not null"`
	// PaymentMethods is a JSON-encoded subset of ["cash","debit","credit"].
	PaymentMethods string `gorm:"type:varchar(100);not null;default:'[\"cash\"]'"`
	// OperationalStatus: "active" | "maintenance" | "retired"
	OperationalStatus string `gorm:"type:varchar(20);not null;default:'active'"`
	IsTest            bool   `gorm:"not null;default:false"`
	IsActive          bool   `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AcceptsMethod reports whether the register declares the payment method.
func (r *Register) AcceptsMethod(method string) bool {
	var methods []string
	if err := json.Unmarshal([]byte(r.PaymentMethods), &methods); err != nil {
		return false
	}
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

// RegisterLock is a lease granting one employee exclusive use of a register.
// register_id is the primary key, so the storage layer enforces at most one
// holder per register. Expiry is checked at acquisition time — there is no
// background sweep; stale locks are surfaced to operators as alerts.
type RegisterLock struct {
	RegisterID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID   string    `gorm:"type:varchar(40);not null"`
	EmployeeName string    `gorm:"not null"`
	SessionID    *uuid.UUID
	LockedAt     time.Time `gorm:"not null"`
	ExpiresAt    time.Time `gorm:"not null"`
}

// Expired reports whether the lease has lapsed and the register is reclaimable.
func (l *RegisterLock) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
