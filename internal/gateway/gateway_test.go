package gateway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

func testAddress() domain.Address {
	return domain.Address{
		Name:         "Ada Lovelace",
		AddressLine1: "12 Analytical Way",
		City:         "London",
		State:        "LDN",
		ZipCode:      "EC1A 1AA",
	}
}

func TestSessionMetadata_EncodeDecodeRoundTrip(t *testing.T) {
	meta := &SessionMetadata{
		UserID:          "user-123",
		ShippingAddress: testAddress(),
		ProductIDs:      []int64{3, 1, 7},
		Quantities:      []int{2, 1, 5},
	}

	raw, err := meta.Encode()
	require.NoError(t, err)

	decoded, err := DecodeSessionMetadata(raw)
	require.NoError(t, err)
	assert.Equal(t, meta, decoded)

	lines := decoded.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, domain.CartLine{ProductID: 3, Quantity: 2}, lines[0])
	assert.Equal(t, domain.CartLine{ProductID: 1, Quantity: 1}, lines[1])
}

func TestDecodeSessionMetadata_FailsClosed(t *testing.T) {
	valid, err := (&SessionMetadata{
		UserID:          "user-123",
		ShippingAddress: testAddress(),
		ProductIDs:      []int64{1},
		Quantities:      []int{1},
	}).Encode()
	require.NoError(t, err)

	mutate := func(key, value string) map[string]string {
		m := make(map[string]string, len(valid))
		for k, v := range valid {
			m[k] = v
		}
		if value == "" {
			delete(m, key)
		} else {
			m[key] = value
		}
		return m
	}

	tests := []struct {
		name string
		raw  map[string]string
	}{
		{"missing user", mutate("userId", "")},
		{"missing address", mutate("shippingAddress", "")},
		{"malformed address", mutate("shippingAddress", "{not json")},
		{"missing product ids", mutate("productIds", "")},
		{"malformed product ids", mutate("productIds", `["a"]`)},
		{"empty product ids", mutate("productIds", `[]`)},
		{"length mismatch", mutate("quantities", `[1,2]`)},
		{"duplicate product ids", func() map[string]string {
			m := mutate("productIds", `[1,1]`)
			m["quantities"] = `[1,2]`
			return m
		}()},
		{"zero quantity", mutate("quantities", `[0]`)},
		{"negative quantity", mutate("quantities", `[-3]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSessionMetadata(tt.raw)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidMetadata))
		})
	}
}

func TestParseWebhookEvent(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_123", "amount_total": 4500, "metadata": {"userId": "u1"}}}
	}`)

	event, err := ParseWebhookEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, EventTypeCheckoutCompleted, event.Type)
	assert.Equal(t, "cs_123", event.Data.Object.ID)
	assert.Equal(t, int64(4500), event.Data.Object.AmountTotal)
	assert.Equal(t, "u1", event.Data.Object.Metadata["userId"])
}

func TestParseWebhookEvent_Malformed(t *testing.T) {
	_, err := ParseWebhookEvent([]byte(`{broken`))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = ParseWebhookEvent([]byte(`{"id":"evt_1"}`))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}
