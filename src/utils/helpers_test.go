package utils

import (
	"crypto/rand"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"brs/src/config"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
	assert.Equal(t, "admin", NormalizeEmail("ADMIN"))
}

func TestParseDisplayName(t *testing.T) {
	tests := []struct {
		input  string
		first  string
		middle *string
		last   string
	}{
		{"Jane Doe", "Jane", nil, "Doe"},
		{"Jane", "Jane", nil, "User"},
		{"Jane Q. Public", "Jane", ptr("Q."), "Public"},
		{"Jane Anne Q. Public", "Jane", ptr("Anne Q."), "Public"},
		{"", "User", nil, "User"},
		{"   ", "User", nil, "User"},
	}
	for _, tt := range tests {
		first, middle, last := ParseDisplayName(tt.input)
		assert.Equal(t, tt.first, first, tt.input)
		assert.Equal(t, tt.middle, middle, tt.input)
		assert.Equal(t, tt.last, last, tt.input)
	}
}

func TestComposeFullName(t *testing.T) {
	assert.Equal(t, "Jane Q. Public", ComposeFullName("Jane", ptr("Q."), "Public"))
	assert.Equal(t, "Jane Public", ComposeFullName("Jane", nil, "Public"))
	assert.Equal(t, "Jane Public", ComposeFullName("Jane", ptr(""), "Public"))
	assert.Equal(t, "Jane", ComposeFullName("Jane", nil, ""))
	assert.Equal(t, "", ComposeFullName("", nil, ""))
}

func TestDeactivationMessage(t *testing.T) {
	assert.Equal(t, "Your account has been deactivated for 1 day.", DeactivationMessage(1))
	assert.Equal(t, "Your account has been deactivated for 7 days.", DeactivationMessage(7))
	assert.Equal(t, "Your account has been deactivated.", DeactivationMessage(0))
}

func TestReferenceNumber(t *testing.T) {
	before := time.Now().Format(config.REFNO_TIME_FORMAT)
	refno := ReferenceNumber()
	after := time.Now().Format(config.REFNO_TIME_FORMAT)

	assert.Regexp(t, regexp.MustCompile(`^\d{18}$`), refno)
	prefix := refno[:len(before)]
	assert.Contains(t, []string{before, after}, prefix)
}

func TestVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass")
	assert.NoError(t, err)

	assert.True(t, VerifyPassword(&hashed, "s3cret-pass"))
	assert.False(t, VerifyPassword(&hashed, "wrong-pass"))
	assert.False(t, VerifyPassword(nil, "s3cret-pass"))

	empty := ""
	assert.False(t, VerifyPassword(&empty, "s3cret-pass"))

	// A row holding plaintext instead of a bcrypt hash never verifies.
	plain := "s3cret-pass"
	assert.False(t, VerifyPassword(&plain, "s3cret-pass"))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	assert.NoError(t, err)

	enc, err := EncryptMessage(key, `{"flow_id":"abc","nonce":"ff00"}`)
	assert.NoError(t, err)
	assert.NotEmpty(t, enc)

	dec, err := DecryptMessage(key, enc)
	assert.NoError(t, err)
	assert.Equal(t, `{"flow_id":"abc","nonce":"ff00"}`, *dec)

	_, err = DecryptMessage(key, "not-hex")
	assert.Error(t, err)
}

func TestWithSuffix(t *testing.T) {
	t.Setenv("API_ENV", "")
	assert.Equal(t, "Emails", WithSuffix("Emails"))
	t.Setenv("API_ENV", "staging")
	assert.Equal(t, "Emails-staging", WithSuffix("Emails"))
}

func ptr(s string) *string {
	return &s
}
