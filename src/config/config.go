package config

import (
	"fmt"
	"os"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

var (
	API_HOST            = os.Getenv("API_HOST")
	API_SECRET          = os.Getenv("API_SECRET")
	OAUTH_CLIENT_ID     = os.Getenv("OAUTH_CLIENT_ID")
	OAUTH_CLIENT_SECRET = os.Getenv("OAUTH_CLIENT_SECRET")
)

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// DATE_FORMAT is the storage format for reservation dates and birthdates.
const DATE_FORMAT = "2006-01-02"

// REFNO_TIME_FORMAT is the timestamp half of a generated reference number.
const REFNO_TIME_FORMAT = "20060102150405"

// DEFAULT_BIRTHDATE is the placeholder written for externally provisioned
// customers until they update their profile.
const DEFAULT_BIRTHDATE = "2000-01-01"

// SESSION_KEY_FORMAT is the fixed redis key a session record lives under.
const SESSION_KEY_FORMAT = "session:%s"

// OAUTH_PENDING_KEY_FORMAT marks an external sign-in that has left for the
// provider and not yet come back.
const OAUTH_PENDING_KEY_FORMAT = "oauth:pending:%s"

// RESERVATIONS_CACHE_KEY holds the unfiltered reservation list for the
// check-in stations. Invalidated on every confirmed check-in.
const RESERVATIONS_CACHE_KEY = "reservations:recent"
