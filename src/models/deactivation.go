package models

import (
	"brs/src/types"
	"time"

	"github.com/google/uuid"
)

// DeactivatedUser records why and for how long an account is locked out. Rows
// are written by the staff dashboard; this service only reads them at login
// and flips them back once the window lapses.
type DeactivatedUser struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	AccountID        uuid.UUID  `gorm:"type:uuid;column:account_id" json:"account_id"`
	DurationDays     uint       `json:"duration_days,omitempty"`
	DeactivatedUntil *time.Time `json:"deactivated_until,omitempty"`
	Status           string     `gorm:"default:'deactivated'" json:"status"`

	types.Timestamps
}

func (DeactivatedUser) TableName() string {
	return "deact_user"
}
