package models

import (
	"brs/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID            uuid.UUID `gorm:"primarykey;type:uuid" json:"customer_id"`
	AccountID     uuid.UUID `gorm:"type:uuid;uniqueIndex;column:account_id" json:"account_id"`
	FirstName     string    `json:"first_name"`
	MiddleName    *string   `json:"middle_name,omitempty"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	ContactNumber string    `json:"contact_number,omitempty"`
	Username      string    `json:"username,omitempty"`
	Birthdate     string    `json:"birthdate,omitempty"`
	Gender        *string   `json:"gender,omitempty"`

	types.Timestamps
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
