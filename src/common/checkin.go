package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"brs/src/config"
	"brs/src/db"
	"brs/src/lib"
	"brs/src/models"
	"brs/src/types"
	"brs/src/utils"
)

// CheckInVerdict tells the operator console whether a found reservation may
// open automatically or needs an explicit opt-in first.
type CheckInVerdict struct {
	AutoProceed bool   `json:"auto_proceed"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
}

// FindReservation matches the operator's query against reservation numbers
// exactly as stored. Only the query itself is trimmed.
func FindReservation(query string) (*models.Reservation, *CheckInVerdict, error) {
	q := strings.TrimSpace(query)
	conn := db.GetDb()
	var reservation models.Reservation
	if err := conn.
		Model(&models.Reservation{}).
		Where("reservation_no = ?", q).
		Preload("Table").
		First(&reservation).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, types.ErrReservationMissing
		}
		log.Printf("Error retrieving reservation [%s]: %s\n", q, err.Error())
		return nil, nil, utils.ClassifyStoreError(err)
	}

	verdict := statusVerdict(reservation.Status)
	return &reservation, verdict, nil
}

func statusVerdict(status string) *CheckInVerdict {
	switch status {
	case string(types.RESERVATION_PENDING), string(types.RESERVATION_APPROVED):
		return &CheckInVerdict{AutoProceed: true, Status: status}
	case string(types.RESERVATION_ONGOING):
		return &CheckInVerdict{
			AutoProceed: false,
			Status:      status,
			Message:     "This reservation is already ongoing. Open in view-only mode?",
		}
	default:
		return &CheckInVerdict{
			AutoProceed: false,
			Status:      status,
			Message:     fmt.Sprintf("This reservation has status %q. Open in view-only mode?", status),
		}
	}
}

// ConfirmCheckIn applies one of three transition rules keyed on the payment
// method and type. GCash confirmations must carry the operator-supplied
// reference number; the reservation is untouched when it is blank.
func ConfirmCheckIn(actorId string, reservationId uint, gcashRef string) (*models.Reservation, error) {
	conn := db.GetDb()
	var reservation models.Reservation
	if err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: reservationId}).
			Preload("Table").
			First(&reservation).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrReservationMissing
			}
			return err
		}

		updates := map[string]any{"status": string(types.RESERVATION_PENDING)}
		switch {
		case reservation.PaymentMethod == types.PAYMENT_METHOD_CASH && reservation.PaymentType == types.PAYMENT_TYPE_FULL:
			refno := utils.ReferenceNumber()
			updates["payment_status"] = true
			updates["reference_no"] = refno
		case reservation.PaymentMethod == types.PAYMENT_METHOD_GCASH:
			ref := strings.TrimSpace(gcashRef)
			if ref == "" {
				return types.ErrMissingReference
			}
			updates["reference_no"] = ref
		}

		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: reservationId}).
			Updates(updates).
			Error; err != nil {
			return err
		}
		return tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: reservationId}).
			Preload("Table").
			First(&reservation).
			Error
	}); err != nil {
		if errors.Is(err, types.ErrMissingReference) || errors.Is(err, types.ErrReservationMissing) {
			return nil, err
		}
		log.Printf("Error confirming check-in for reservation [%d]: %s\n", reservationId, err.Error())
		return nil, types.ErrCheckInFailed
	}

	go announceCheckIn(actorId, &reservation)
	return &reservation, nil
}

// announceCheckIn fans the confirmation out to the staff topic, the push
// channel and the audit trail. Everything here is best-effort.
func announceCheckIn(actorId string, reservation *models.Reservation) {
	payload := map[string]any{
		"reservation_no": reservation.ReservationNo,
		"table":          reservation.Table.Name,
		"status":         reservation.Status,
	}
	if err := lib.KafkaProduceMessage(lib.TOPIC_CHECKIN, payload); err != nil {
		log.Printf("Error publishing check-in event: %s\n", err.Error())
	}
	body, _ := json.Marshal(payload)
	if err := lib.SNSPublishMessage(utils.WithSuffix("CheckIns"), string(body)); err != nil {
		log.Printf("Error notifying staff topic: %s\n", err.Error())
	}
	lib.PushCheckInAlert(context.Background(), reservation.ReservationNo, reservation.Table.Name)
	if rd := lib.GetRedisClient(); rd != nil {
		rd.Del(context.Background(), config.RESERVATIONS_CACHE_KEY)
	}
	writeAudit(actorId, fmt.Sprintf("Checked in reservation %s", reservation.ReservationNo))
}
