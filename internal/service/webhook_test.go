package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/internal/gateway"
	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

const webhookSecret = "whsec_test"

func newWebhookService(orders *mockOrderRepo, products *mockProductRepo, carts *mockCartRepo, events *mockEvents) *WebhookService {
	verifier := gateway.NewSignatureVerifier(webhookSecret, 0)
	return NewWebhookService(verifier, orders, products, carts, events, testLogger())
}

// signedPayload serializes the event and signs it the way the provider would.
func signedPayload(t *testing.T, event any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	header := gateway.NewSignatureVerifier(webhookSecret, 0).Sign(time.Now(), payload)
	return payload, header
}

func completedEvent(sessionID string, meta map[string]string) map[string]any {
	return map[string]any{
		"id":   "evt_1",
		"type": gateway.EventTypeCheckoutCompleted,
		"data": map[string]any{
			"object": map[string]any{
				"id":       sessionID,
				"metadata": meta,
			},
		},
	}
}

func validMetadata(t *testing.T) map[string]string {
	t.Helper()
	meta, err := (&gateway.SessionMetadata{
		UserID:          "u1",
		ShippingAddress: validAddress(),
		ProductIDs:      []int64{1, 5},
		Quantities:      []int{2, 1},
	}).Encode()
	require.NoError(t, err)
	return meta
}

func TestWebhookService_Process_RejectsBadSignature(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newWebhookService(orders, &mockProductRepo{}, &mockCartRepo{}, relaxedEvents())

	payload, _ := signedPayload(t, completedEvent("cs_1", validMetadata(t)))
	header := gateway.NewSignatureVerifier("whsec_wrong", 0).Sign(time.Now(), payload)

	_, err := svc.Process(context.Background(), payload, header)

	assert.True(t, errors.Is(err, apperrors.ErrInvalidSignature))
	orders.AssertNotCalled(t, "CreateFromPayment", mock.Anything, mock.Anything)
}

func TestWebhookService_Process_TamperedPayloadRejected(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newWebhookService(orders, &mockProductRepo{}, &mockCartRepo{}, relaxedEvents())

	payload, header := signedPayload(t, completedEvent("cs_1", validMetadata(t)))
	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] ^= 0x01

	_, err := svc.Process(context.Background(), tampered, header)

	assert.True(t, errors.Is(err, apperrors.ErrInvalidSignature))
	orders.AssertNotCalled(t, "CreateFromPayment", mock.Anything, mock.Anything)
}

func TestWebhookService_Process_SkipsUnhandledEventType(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newWebhookService(orders, &mockProductRepo{}, &mockCartRepo{}, relaxedEvents())

	payload, header := signedPayload(t, map[string]any{
		"id":   "evt_2",
		"type": "invoice.paid",
		"data": map[string]any{"object": map[string]any{"id": "in_1"}},
	})

	res, err := svc.Process(context.Background(), payload, header)

	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Empty(t, res.OrderID)
	orders.AssertNotCalled(t, "CreateFromPayment", mock.Anything, mock.Anything)
}

func TestWebhookService_Process_InvalidMetadataFailsClosed(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing user", func(m map[string]string) { delete(m, "userId") }},
		{"malformed address", func(m map[string]string) { m["shippingAddress"] = "{not json" }},
		{"missing product ids", func(m map[string]string) { delete(m, "productIds") }},
		{"length mismatch", func(m map[string]string) { m["quantities"] = "[2]" }},
		{"zero quantity", func(m map[string]string) { m["quantities"] = "[2,0]" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := &mockOrderRepo{}
			svc := newWebhookService(orders, &mockProductRepo{}, &mockCartRepo{}, relaxedEvents())

			meta := validMetadata(t)
			tc.mutate(meta)
			payload, header := signedPayload(t, completedEvent("cs_1", meta))

			_, err := svc.Process(context.Background(), payload, header)

			assert.True(t, errors.Is(err, apperrors.ErrInvalidMetadata))
			orders.AssertNotCalled(t, "CreateFromPayment", mock.Anything, mock.Anything)
		})
	}
}

func TestWebhookService_Process_MissingSessionIDRejected(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newWebhookService(orders, &mockProductRepo{}, &mockCartRepo{}, relaxedEvents())

	payload, header := signedPayload(t, completedEvent("", validMetadata(t)))

	_, err := svc.Process(context.Background(), payload, header)

	assert.True(t, errors.Is(err, apperrors.ErrInvalidMetadata))
	orders.AssertNotCalled(t, "CreateFromPayment", mock.Anything, mock.Anything)
}

func TestWebhookService_Process_CommitsOrder(t *testing.T) {
	orders := &mockOrderRepo{}
	products := &mockProductRepo{}
	carts := &mockCartRepo{}
	events := &mockEvents{}

	products.On("GetByIDs", mock.Anything, []int64{1, 5}).Return([]domain.Product{
		{ID: 1, Name: "Dune", Price: 1500},
		{ID: 5, Name: "Foundation", Price: 900},
	}, nil)

	var committed *domain.Order
	orders.On("CreateFromPayment", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		committed = args.Get(1).(*domain.Order)
	}).Return(true, nil)
	carts.On("Clear", mock.Anything, "u1").Return(nil)
	events.On("OrderCreated", mock.Anything, mock.Anything).Return()

	svc := newWebhookService(orders, products, carts, events)
	frozen := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }

	payload, header := signedPayload(t, completedEvent("cs_42", validMetadata(t)))
	res, err := svc.Process(context.Background(), payload, header)

	require.NoError(t, err)
	assert.Equal(t, OutcomeFulfilled, res.Outcome)

	require.NotNil(t, committed)
	assert.Equal(t, res.OrderID, committed.ID)
	assert.Equal(t, "u1", committed.UserID)
	assert.Equal(t, domain.OrderStatusPaid, committed.Status)
	assert.Equal(t, "cs_42", committed.PaymentSessionID)
	assert.Equal(t, int64(2*1500+900), committed.TotalAmount)
	assert.Equal(t, frozen, committed.CreatedAt)
	require.Len(t, committed.Items, 2)
	assert.Equal(t, domain.OrderItem{ProductID: 1, Name: "Dune", Price: 1500, Quantity: 2}, committed.Items[0])
	assert.Equal(t, domain.OrderItem{ProductID: 5, Name: "Foundation", Price: 900, Quantity: 1}, committed.Items[1])

	carts.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestWebhookService_Process_RedeliveryIsIdempotent(t *testing.T) {
	orders := &mockOrderRepo{}
	products := &mockProductRepo{}
	carts := &mockCartRepo{}
	events := &mockEvents{}

	products.On("GetByIDs", mock.Anything, []int64{1, 5}).Return([]domain.Product{
		{ID: 1, Name: "Dune", Price: 1500},
		{ID: 5, Name: "Foundation", Price: 900},
	}, nil)
	orders.On("CreateFromPayment", mock.Anything, mock.Anything).Return(false, nil)

	svc := newWebhookService(orders, products, carts, events)
	payload, header := signedPayload(t, completedEvent("cs_42", validMetadata(t)))

	res, err := svc.Process(context.Background(), payload, header)

	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyProcessed, res.Outcome)
	assert.Empty(t, res.OrderID)
	carts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	events.AssertNotCalled(t, "OrderCreated", mock.Anything, mock.Anything)
}

func TestWebhookService_Process_InsufficientStockPropagates(t *testing.T) {
	orders := &mockOrderRepo{}
	products := &mockProductRepo{}
	carts := &mockCartRepo{}

	products.On("GetByIDs", mock.Anything, []int64{1, 5}).Return([]domain.Product{
		{ID: 1, Name: "Dune", Price: 1500},
		{ID: 5, Name: "Foundation", Price: 900},
	}, nil)
	orders.On("CreateFromPayment", mock.Anything, mock.Anything).
		Return(false, apperrors.InsufficientStock(1, 2, 1))

	svc := newWebhookService(orders, products, carts, relaxedEvents())
	payload, header := signedPayload(t, completedEvent("cs_42", validMetadata(t)))

	_, err := svc.Process(context.Background(), payload, header)

	var stockErr *apperrors.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(1), stockErr.ProductID)
	carts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func TestWebhookService_Process_CartClearFailureDoesNotFailCommit(t *testing.T) {
	orders := &mockOrderRepo{}
	products := &mockProductRepo{}
	carts := &mockCartRepo{}

	products.On("GetByIDs", mock.Anything, []int64{1, 5}).Return([]domain.Product{
		{ID: 1, Name: "Dune", Price: 1500},
		{ID: 5, Name: "Foundation", Price: 900},
	}, nil)
	orders.On("CreateFromPayment", mock.Anything, mock.Anything).Return(true, nil)
	carts.On("Clear", mock.Anything, "u1").Return(fmt.Errorf("redis down"))

	svc := newWebhookService(orders, products, carts, relaxedEvents())
	payload, header := signedPayload(t, completedEvent("cs_42", validMetadata(t)))

	res, err := svc.Process(context.Background(), payload, header)

	require.NoError(t, err)
	assert.Equal(t, OutcomeFulfilled, res.Outcome)
}
