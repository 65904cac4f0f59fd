package gateway

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

func frozenVerifier(secret string, at time.Time) *SignatureVerifier {
	v := NewSignatureVerifier(secret, DefaultSignatureTolerance)
	v.now = func() time.Time { return at }
	return v
}

func TestSignatureVerifier_ValidSignature(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := frozenVerifier("whsec_test", now)

	payload := []byte(`{"type":"checkout.session.completed"}`)
	header := v.Sign(now, payload)

	assert.NoError(t, v.Verify(payload, header))
}

func TestSignatureVerifier_TamperedPayload(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := frozenVerifier("whsec_test", now)

	header := v.Sign(now, []byte(`{"amount":100}`))

	err := v.Verify([]byte(`{"amount":9999}`), header)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSignature))
}

func TestSignatureVerifier_WrongSecret(t *testing.T) {
	now := time.Unix(1700000000, 0)
	payload := []byte(`{}`)

	header := frozenVerifier("whsec_other", now).Sign(now, payload)

	err := frozenVerifier("whsec_test", now).Verify(payload, header)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSignature))
}

func TestSignatureVerifier_StaleTimestamp(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := frozenVerifier("whsec_test", now)

	payload := []byte(`{}`)
	header := v.Sign(now.Add(-10*time.Minute), payload)

	err := v.Verify(payload, header)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSignature))
	assert.Contains(t, err.Error(), "tolerance")
}

func TestSignatureVerifier_MalformedHeaders(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := frozenVerifier("whsec_test", now)
	payload := []byte(`{}`)

	headers := []string{
		"",
		"v1=deadbeef",
		"t=notanumber,v1=deadbeef",
		fmt.Sprintf("t=%d", now.Unix()),
		fmt.Sprintf("t=%d,v1=zzzz", now.Unix()),
	}

	for _, h := range headers {
		err := v.Verify(payload, h)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidSignature), "header %q", h)
	}
}

func TestSignatureVerifier_MultipleCandidates(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := frozenVerifier("whsec_test", now)

	payload := []byte(`{"ok":true}`)
	valid := v.Sign(now, payload)
	// Prepend a bogus v1 entry; any one matching candidate passes.
	header := fmt.Sprintf("t=%d,v1=%s,%s", now.Unix(), "00ff00ff", valid[len(fmt.Sprintf("t=%d,", now.Unix())):])

	assert.NoError(t, v.Verify(payload, header))
}
