package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

// DefaultSignatureTolerance bounds how old a webhook timestamp may be.
const DefaultSignatureTolerance = 5 * time.Minute

// SignatureVerifier checks webhook signatures in the provider's v1 scheme:
// the header carries "t=<unix>,v1=<hex>" where the hex value is
// HMAC-SHA256(secret, "<t>.<raw payload>"). Verification must run over the
// exact raw request bytes; any re-serialization breaks the MAC.
type SignatureVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewSignatureVerifier creates a verifier for the given signing secret.
// A non-positive tolerance falls back to DefaultSignatureTolerance.
func NewSignatureVerifier(secret string, tolerance time.Duration) *SignatureVerifier {
	if tolerance <= 0 {
		tolerance = DefaultSignatureTolerance
	}
	return &SignatureVerifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify checks the signature header against the raw payload. It returns an
// InvalidSignature error for a missing or malformed header, a MAC mismatch,
// or a timestamp outside the tolerance window.
func (v *SignatureVerifier) Verify(payload []byte, header string) error {
	if header == "" {
		return apperrors.InvalidSignature("missing signature header")
	}

	var (
		timestamp  int64
		candidates [][]byte
	)

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return apperrors.InvalidSignature("malformed timestamp")
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(kv[1])
			if err != nil {
				continue
			}
			candidates = append(candidates, sig)
		}
	}

	if timestamp == 0 {
		return apperrors.InvalidSignature("missing timestamp")
	}
	if len(candidates) == 0 {
		return apperrors.InvalidSignature("no v1 signature present")
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > v.tolerance || age < -v.tolerance {
		return apperrors.InvalidSignature("timestamp outside tolerance")
	}

	expected := v.mac(timestamp, payload)
	for _, candidate := range candidates {
		if hmac.Equal(candidate, expected) {
			return nil
		}
	}

	return apperrors.InvalidSignature("signature mismatch")
}

// Sign produces a valid signature header for the payload at the given time.
// Used by the mock provider and by tests.
func (v *SignatureVerifier) Sign(ts time.Time, payload []byte) string {
	unix := ts.Unix()
	return fmt.Sprintf("t=%d,v1=%s", unix, hex.EncodeToString(v.mac(unix, payload)))
}

func (v *SignatureVerifier) mac(timestamp int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return mac.Sum(nil)
}
