package types

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrProvisioningFailed = errors.New("failed to provision customer account")
	ErrProfileNotFound    = errors.New("customer profile not found")
	ErrMissingReference   = errors.New("please enter GCash reference number")
	ErrCheckInFailed      = errors.New("check-in failed")
	ErrReservationMissing = errors.New("reservation number not found")

	// Store-level outcomes every caller can branch on.
	ErrNotFound            = errors.New("record not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrUnavailable         = errors.New("store unavailable")
)

// AccountDeactivatedError carries the operator-facing message built from the
// deactivation record, including the day count when one exists.
type AccountDeactivatedError struct {
	DurationDays uint
}

func (e *AccountDeactivatedError) Error() string {
	if e.DurationDays == 0 {
		return "Your account has been deactivated."
	}
	plural := ""
	if e.DurationDays > 1 {
		plural = "s"
	}
	return fmt.Sprintf("Your account has been deactivated for %d day%s.", e.DurationDays, plural)
}
