package utils

import (
	"brs/src/config"
	"brs/src/types"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}

// WithSuffix namespaces a queue or topic per environment.
func WithSuffix(name string) string {
	suffix := os.Getenv("API_ENV")
	if suffix == "" {
		return name
	}
	return fmt.Sprintf("%s-%s", name, suffix)
}

// NormalizeEmail lowercases an address the way every account lookup expects.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseDisplayName splits a provider display name into first/middle/last.
// The first token is the first name (default "User"), the final token is the
// last name when more than one token exists (else "User"), and any interior
// tokens join into the middle name.
func ParseDisplayName(displayName string) (first string, middle *string, last string) {
	parts := strings.Fields(displayName)
	first = "User"
	last = "User"
	if len(parts) > 0 {
		first = parts[0]
	}
	if len(parts) > 1 {
		last = parts[len(parts)-1]
	}
	if len(parts) > 2 {
		m := strings.Join(parts[1:len(parts)-1], " ")
		middle = &m
	}
	return first, middle, last
}

// ComposeFullName joins name parts with single spaces, skipping an absent
// middle name.
func ComposeFullName(first string, middle *string, last string) string {
	parts := []string{}
	for _, p := range []string{first, valueOrEmpty(middle), last} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// DeactivationMessage renders the operator-facing lockout message with the
// recorded day count.
func DeactivationMessage(durationDays uint) string {
	e := types.AccountDeactivatedError{DurationDays: durationDays}
	return e.Error()
}

// ReferenceNumber builds a payment reference: wall-clock YYYYMMDDHHMMSS plus
// four zero-padded random decimal digits. The timestamp dominates, collisions
// within one second are accepted.
func ReferenceNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		n = big.NewInt(0)
	}
	return fmt.Sprintf("%s%04d", time.Now().Format(config.REFNO_TIME_FORMAT), n.Int64())
}

func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the supplied password matches the stored
// hash. Rows carrying anything but a bcrypt hash fail the same way a wrong
// password does.
func VerifyPassword(hashed *string, plain string) bool {
	if hashed == nil || *hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*hashed), []byte(plain)) == nil
}

func GenerateJWT(email string, accountId string, role string) (string, error) {
	now := time.Now()
	claims := types.Claims{
		Email: email,
		Role:  role,
		UID:   accountId,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountId,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(jwtKey)
}

// ClassifyStoreError folds a gorm error into the store-level taxonomy so
// callers can branch on NotFound vs ConstraintViolation vs Unavailable.
func ClassifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return types.ErrConstraintViolation
	}
	if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "UNIQUE constraint") {
		return types.ErrConstraintViolation
	}
	return types.ErrUnavailable
}

func EncryptMessage(key []byte, message string) (string, error) {
	plaintext := []byte(message)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	cipherText := gcm.Seal(nonce, nonce, plaintext, nil)
	encodedString := hex.EncodeToString(cipherText)

	return encodedString, nil
}

func DecryptMessage(key []byte, message string) (*string, error) {
	cipherText, err := hex.DecodeString(message)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	decryptedData, err := gcm.Open(nil, cipherText[:gcm.NonceSize()], cipherText[gcm.NonceSize():], nil)
	if err != nil {
		return nil, err
	}
	decodedString := string(decryptedData)

	return &decodedString, nil
}
