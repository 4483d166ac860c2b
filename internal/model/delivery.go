package model

import (
	"time"

	"github.com/google/uuid"
)

// Delivery records the physical act of dispensing a sold item, decoupled from
// the sale transaction itself. A sale may be paid before the drink is made;
// stock is deducted here, at the point of delivery, not at sale time.
type Delivery struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID     uuid.UUID `gorm:"type:uuid;not null;index"`
	SaleItemID uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemName   string    `gorm:"not null"`
	Qty        int       `gorm:"not null"`
	Bartender  string    `gorm:"not null"`
	Location   string    `gorm:"not null"`
	Timestamp  time.Time `gorm:"not null"`
	CreatedAt  time.Time
}
