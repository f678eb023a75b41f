package lib

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path"
	"strings"

	"github.com/gosimple/slug"
	"github.com/tidwall/gjson"
	"github.com/yeqown/go-qrcode"
)

// GenerateSlip renders a check-in QR slip for a reservation and returns the
// path of the saved image. The encoded payload is the JSON the scanner app
// produces, so slips and live scans decode the same way.
func GenerateSlip(reservationNo string, tableName string) (string, error) {
	rawData := map[string]any{
		"reservationNo": reservationNo,
		"table":         tableName,
	}
	rawBytes, _ := json.Marshal(rawData)
	qrc, err := qrcode.New(string(rawBytes))
	if err != nil {
		return "", err
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	tempdir := os.Getenv("TEMP_DIR")
	filename := slug.Make(fmt.Sprintf("reservation_%s", reservationNo))
	filepath := path.Join(wd, "..", tempdir, fmt.Sprintf("%s.jpeg", filename))
	if err = qrc.Save(filepath); err != nil {
		log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
		return "", err
	}
	return filepath, nil
}

// DecodePayload extracts the reservation number from a scanned QR payload.
// Slips carry JSON with a reservationNo field; handwritten or legacy codes
// are the bare number.
func DecodePayload(payload string) string {
	if no := gjson.Get(payload, "reservationNo"); no.Exists() {
		return strings.TrimSpace(no.String())
	}
	return strings.TrimSpace(payload)
}
