package models

import (
	"brs/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile mirrors externally provisioned identities for reporting. Writes are
// best-effort; the Customer row stays authoritative.
type Profile struct {
	ID       uuid.UUID `gorm:"primarykey;type:uuid" json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Phone    string    `json:"phone,omitempty"`
	Gender   *string   `json:"gender,omitempty"`
	Role     string    `gorm:"default:'user'" json:"role"`

	types.Timestamps
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
