package models

import (
	"brs/src/types"
)

type Reservation struct {
	ID              uint    `gorm:"primarykey" json:"id"`
	ReservationNo   string  `gorm:"index" json:"reservation_no"`
	TableID         uint    `json:"table_id"`
	ReservationDate string  `json:"reservation_date"`
	StartTime       string  `json:"start_time"`
	Duration        uint    `json:"duration"`
	PaymentMethod   string  `json:"payment_method,omitempty"`
	PaymentType     string  `json:"payment_type,omitempty"`
	PaymentStatus   bool    `json:"payment_status"`
	ReferenceNo     *string `json:"reference_no,omitempty"`
	ProofOfPayment  *string `json:"proof_of_payment,omitempty"`
	BilliardType    string  `json:"billiard_type,omitempty"`
	TotalBill       float64 `json:"total_bill,omitempty"`
	Status          string  `gorm:"default:'pending'" json:"status"`

	Table BilliardTable `gorm:"foreignKey:TableID" json:"table,omitempty"`

	types.Timestamps
}

type BilliardTable struct {
	ID           uint   `gorm:"primarykey;column:table_id" json:"table_id"`
	Name         string `gorm:"column:table_name" json:"table_name"`
	BilliardType string `json:"billiard_type,omitempty"`

	types.Timestamps
}

func (BilliardTable) TableName() string {
	return "billiard_table"
}
