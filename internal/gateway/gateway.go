// Package gateway talks to the hosted payment provider: creating checkout
// sessions and verifying the signatures on its webhook callbacks.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

// LineItem is one display line on the provider's hosted payment page.
type LineItem struct {
	Name       string
	UnitAmount int64 // cents
	Quantity   int
}

// CreateSessionRequest is the input for creating a hosted checkout session.
type CreateSessionRequest struct {
	LineItems  []LineItem
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
	Currency   string
}

// Session is a created checkout session. The customer is redirected to URL
// to complete payment.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PaymentGateway creates hosted checkout sessions.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req *CreateSessionRequest) (*Session, error)
}

// Metadata key names attached to checkout sessions. The webhook reads these
// back to commit the order, so the set is part of the wire contract.
const (
	metaUserID          = "userId"
	metaShippingAddress = "shippingAddress"
	metaProductIDs      = "productIds"
	metaQuantities      = "quantities"
)

// SessionMetadata is the order intent carried through the payment provider
// as session metadata. It is the only state linking a completed payment back
// to what was bought.
type SessionMetadata struct {
	UserID          string
	ShippingAddress domain.Address
	ProductIDs      []int64
	Quantities      []int
}

// Encode serializes the metadata into the provider's string-to-string map.
// Structured values are embedded as JSON strings.
func (m *SessionMetadata) Encode() (map[string]string, error) {
	addrJSON, err := json.Marshal(m.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("marshal shipping address: %w", err)
	}
	idsJSON, err := json.Marshal(m.ProductIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal product ids: %w", err)
	}
	qtysJSON, err := json.Marshal(m.Quantities)
	if err != nil {
		return nil, fmt.Errorf("marshal quantities: %w", err)
	}

	return map[string]string{
		metaUserID:          m.UserID,
		metaShippingAddress: string(addrJSON),
		metaProductIDs:      string(idsJSON),
		metaQuantities:      string(qtysJSON),
	}, nil
}

// DecodeSessionMetadata parses and validates session metadata, failing closed:
// any missing key, malformed JSON, mismatched array lengths, duplicate product
// id, or non-positive quantity rejects the whole payload.
func DecodeSessionMetadata(raw map[string]string) (*SessionMetadata, error) {
	userID, ok := raw[metaUserID]
	if !ok || userID == "" {
		return nil, apperrors.InvalidMetadata("missing userId")
	}

	addrRaw, ok := raw[metaShippingAddress]
	if !ok {
		return nil, apperrors.InvalidMetadata("missing shippingAddress")
	}
	var addr domain.Address
	if err := json.Unmarshal([]byte(addrRaw), &addr); err != nil {
		return nil, apperrors.InvalidMetadata("malformed shippingAddress")
	}

	idsRaw, ok := raw[metaProductIDs]
	if !ok {
		return nil, apperrors.InvalidMetadata("missing productIds")
	}
	var ids []int64
	if err := json.Unmarshal([]byte(idsRaw), &ids); err != nil {
		return nil, apperrors.InvalidMetadata("malformed productIds")
	}

	qtysRaw, ok := raw[metaQuantities]
	if !ok {
		return nil, apperrors.InvalidMetadata("missing quantities")
	}
	var qtys []int
	if err := json.Unmarshal([]byte(qtysRaw), &qtys); err != nil {
		return nil, apperrors.InvalidMetadata("malformed quantities")
	}

	if len(ids) == 0 {
		return nil, apperrors.InvalidMetadata("productIds is empty")
	}
	if len(ids) != len(qtys) {
		return nil, apperrors.InvalidMetadata(
			fmt.Sprintf("productIds and quantities length mismatch: %d vs %d", len(ids), len(qtys)))
	}
	// Order items key on (order, product); a duplicated id could never commit.
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, apperrors.InvalidMetadata(fmt.Sprintf("duplicate product id %d", id))
		}
		seen[id] = struct{}{}
	}
	for i, q := range qtys {
		if q <= 0 {
			return nil, apperrors.InvalidMetadata(fmt.Sprintf("quantity for product %d must be positive", ids[i]))
		}
	}

	return &SessionMetadata{
		UserID:          userID,
		ShippingAddress: addr,
		ProductIDs:      ids,
		Quantities:      qtys,
	}, nil
}

// Lines pairs the positional product/quantity arrays back into cart lines.
func (m *SessionMetadata) Lines() []domain.CartLine {
	lines := make([]domain.CartLine, len(m.ProductIDs))
	for i, id := range m.ProductIDs {
		lines[i] = domain.CartLine{ProductID: id, Quantity: m.Quantities[i]}
	}
	return lines
}
