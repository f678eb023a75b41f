package models

import (
	"brs/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SystemLog is the append-only audit trail. Entries are free-text action
// strings; nothing ever updates or deletes a row.
type SystemLog struct {
	ID        uuid.UUID `gorm:"primarykey;type:uuid" json:"id"`
	AccountID string    `gorm:"column:account_id" json:"account_id"`
	Action    string    `json:"action"`

	types.Timestamps
}

func (s *SystemLog) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (SystemLog) TableName() string {
	return "system_log"
}
