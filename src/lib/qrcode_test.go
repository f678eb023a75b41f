package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodePayloadJSON(t *testing.T) {
	no := DecodePayload(`{"reservationNo":"20250101120000 1234","table":"Table 1"}`)
	assert.Equal(t, "20250101120000 1234", no)
}

func TestDecodePayloadRaw(t *testing.T) {
	no := DecodePayload("  202501011200001234 \n")
	assert.Equal(t, "202501011200001234", no)
}

func TestDecodePayloadJSONWithoutField(t *testing.T) {
	raw := `{"foo":"bar"}`
	assert.Equal(t, raw, DecodePayload(raw))
}
