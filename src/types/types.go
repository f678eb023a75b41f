package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

// Handler consumes a raw queue message body.
type Handler func(body string)

type AccountRole string
type AccountStatus string
type AuthProvider string
type ReservationStatus string

const (
	ROLE_ADMIN    AccountRole = "admin"
	ROLE_CUSTOMER AccountRole = "customer"

	ACCOUNT_ACTIVE      AccountStatus = "active"
	ACCOUNT_DEACTIVATED AccountStatus = "deactivated"

	PROVIDER_LOCAL  AuthProvider = "local"
	PROVIDER_GOOGLE AuthProvider = "google"
)

// The bypass operator session is synthesized, never stored.
const (
	ADMIN_SENTINEL_ID    = "0000"
	ADMIN_SENTINEL_EMAIL = "ADMIN"
	ADMIN_SENTINEL_NAME  = "Administrator"
)

const (
	RESERVATION_PENDING   ReservationStatus = "pending"
	RESERVATION_APPROVED  ReservationStatus = "approved"
	RESERVATION_ONGOING   ReservationStatus = "ongoing"
	RESERVATION_COMPLETED ReservationStatus = "completed"
)

const (
	PAYMENT_METHOD_CASH  = "Cash"
	PAYMENT_METHOD_GCASH = "GCash"
	PAYMENT_TYPE_FULL    = "Full Payment"
)

// SessionData is the flat record a successful login hands to the client. It is
// a cache of account facts, not a credential for server-side checks.
type SessionData struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FullName  string `json:"full_name"`
}

// ProviderUser is the identity the external provider vouches for. Email is
// always verified; the claims are optional.
type ProviderUser struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Name        string `json:"name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Handle      string `json:"handle,omitempty"`
}

// Oauth2FlowState travels through the provider round trip inside the
// encrypted state parameter.
type Oauth2FlowState struct {
	FlowID   string `json:"flow_id"`
	Nonce    string `json:"nonce"`
	Redirect string `json:"redirect"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequestBody struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	FirstName     string `json:"first_name" binding:"required"`
	MiddleName    string `json:"middle_name,omitempty"`
	LastName      string `json:"last_name" binding:"required"`
	ContactNumber string `json:"contact_number,omitempty"`
	Username      string `json:"username,omitempty"`
	Birthdate     string `json:"birthdate" binding:"required,birthdate"`
	Gender        string `json:"gender,omitempty"`
}

type FindReservationRequestBody struct {
	Query string `json:"query" binding:"required"`
}

type DecodePayloadRequestBody struct {
	Payload string `json:"payload" binding:"required"`
}

type ConfirmCheckInRequestBody struct {
	ReservationID uint   `json:"reservation_id" binding:"required"`
	GcashRefNo    string `json:"gcash_ref_no,omitempty"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}
