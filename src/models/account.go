package models

import (
	"brs/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Account struct {
	ID             uuid.UUID `gorm:"primarykey;type:uuid" json:"account_id"`
	Email          string    `gorm:"uniqueIndex" json:"email"`
	Role           string    `gorm:"default:'customer'" json:"role"`
	Status         string    `gorm:"default:'active'" json:"status"`
	AuthProvider   string    `gorm:"default:'local'" json:"auth_provider"`
	Password       *string   `json:"-"`
	ProfilePicture *string   `json:"profile_picture,omitempty"`

	Customer *Customer `gorm:"foreignKey:account_id" json:"customer,omitempty"`

	types.Timestamps
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
