package model

import (
	"time"
)

// Employee is a staff member that can operate registers or the bar.
// Cargo: "cajero" | "bartender" | "puerta" | "seguridad" | "admin"
type Employee struct {
	ID        string `gorm:"type:varchar(40);primaryKey"`
	FirstName string
	LastName  string
	Name      string `gorm:"not null"`
	Cargo     string `gorm:"type:varchar(30);not null;index"`
	// PINHash is the bcrypt hash of the 4+ digit login PIN.
	PINHash     string `gorm:"not null;column:pin_hash"`
	IsCashier   bool   `gorm:"not null;default:false"`
	IsBartender bool   `gorm:"not null;default:false"`
	IsActive    bool   `gorm:"not null;default:true"`
	// Deleted is a soft-delete flag — employees referenced by sales are never hard-deleted.
	Deleted   bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
