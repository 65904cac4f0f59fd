package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/internal/event"
	"github.com/AkshathTaduri/booktownsolutions/internal/gateway"
	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

func validAddress() domain.Address {
	return domain.Address{
		Name:         "Ada Lovelace",
		AddressLine1: "12 Analytical Way",
		City:         "London",
		State:        "LDN",
		ZipCode:      "EC1A",
	}
}

func newCheckoutService(carts *mockCartRepo, products *mockProductRepo, gw *mockGateway, events *mockEvents) *CheckoutService {
	return NewCheckoutService(carts, products, gw, events, testLogger())
}

func TestCheckoutService_CreateSession_RejectsInvalidAddressBeforeGateway(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.Address)
	}{
		{"missing name", func(a *domain.Address) { a.Name = "" }},
		{"missing line1", func(a *domain.Address) { a.AddressLine1 = "" }},
		{"missing city", func(a *domain.Address) { a.City = "" }},
		{"missing state", func(a *domain.Address) { a.State = "" }},
		{"missing zip", func(a *domain.Address) { a.ZipCode = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			carts := &mockCartRepo{}
			gw := &mockGateway{}
			svc := newCheckoutService(carts, &mockProductRepo{}, gw, relaxedEvents())

			addr := validAddress()
			tc.mutate(&addr)

			_, err := svc.CreateSession(context.Background(), CreateSessionInput{
				UserID:          "u1",
				ShippingAddress: addr,
			})

			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			gw.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
			carts.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		})
	}
}

func TestCheckoutService_CreateSession_RejectsEmptyCartBeforeGateway(t *testing.T) {
	carts := &mockCartRepo{}
	gw := &mockGateway{}

	carts.On("Get", mock.Anything, "u1").Return(&domain.Cart{UserID: "u1", Lines: []domain.CartLine{}}, nil)

	svc := newCheckoutService(carts, &mockProductRepo{}, gw, relaxedEvents())
	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		UserID:          "u1",
		ShippingAddress: validAddress(),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "cart is empty")
	gw.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCheckoutService_CreateSession_PricesFromCatalogAndRoundTripsMetadata(t *testing.T) {
	carts := &mockCartRepo{}
	products := &mockProductRepo{}
	gw := &mockGateway{}
	events := &mockEvents{}

	carts.On("Get", mock.Anything, "u1").Return(&domain.Cart{UserID: "u1", Lines: []domain.CartLine{
		{ProductID: 1, Price: 1, Quantity: 2}, // submitted price is ignored
		{ProductID: 5, Price: 1, Quantity: 1},
	}}, nil)
	products.On("GetByIDs", mock.Anything, []int64{1, 5}).Return([]domain.Product{
		{ID: 1, Name: "Dune", Price: 1500, Quantity: 10},
		{ID: 5, Name: "Foundation", Price: 900, Quantity: 10},
	}, nil)

	var captured *gateway.CreateSessionRequest
	gw.On("CreateCheckoutSession", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*gateway.CreateSessionRequest)
	}).Return(&gateway.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil)

	events.On("CheckoutSessionCreated", mock.Anything, mock.MatchedBy(func(d event.CheckoutSessionCreatedData) bool {
		return d.SessionID == "cs_1" && d.TotalAmount == 2*1500+900
	})).Return()

	svc := newCheckoutService(carts, products, gw, events)
	session, err := svc.CreateSession(context.Background(), CreateSessionInput{
		UserID:          "u1",
		ShippingAddress: validAddress(),
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	assert.Equal(t, "https://pay.example/cs_1", session.URL)

	require.NotNil(t, captured)
	require.Len(t, captured.LineItems, 2)
	assert.Equal(t, gateway.LineItem{Name: "Dune", UnitAmount: 1500, Quantity: 2}, captured.LineItems[0])
	assert.Equal(t, gateway.LineItem{Name: "Foundation", UnitAmount: 900, Quantity: 1}, captured.LineItems[1])

	// Metadata must decode back into the exact order intent.
	meta, err := gateway.DecodeSessionMetadata(captured.Metadata)
	require.NoError(t, err)
	assert.Equal(t, "u1", meta.UserID)
	assert.Equal(t, []int64{1, 5}, meta.ProductIDs)
	assert.Equal(t, []int{2, 1}, meta.Quantities)
	assert.Equal(t, validAddress(), meta.ShippingAddress)

	var addr domain.Address
	require.NoError(t, json.Unmarshal([]byte(captured.Metadata["shippingAddress"]), &addr))
	assert.Equal(t, "Ada Lovelace", addr.Name)

	events.AssertExpectations(t)
}

func TestCheckoutService_CreateSession_UnknownProductFails(t *testing.T) {
	carts := &mockCartRepo{}
	products := &mockProductRepo{}
	gw := &mockGateway{}

	carts.On("Get", mock.Anything, "u1").Return(&domain.Cart{UserID: "u1", Lines: []domain.CartLine{
		{ProductID: 42, Quantity: 1},
	}}, nil)
	products.On("GetByIDs", mock.Anything, []int64{42}).Return([]domain.Product{}, nil)

	svc := newCheckoutService(carts, products, gw, relaxedEvents())
	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		UserID:          "u1",
		ShippingAddress: validAddress(),
	})

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	gw.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCheckoutService_CreateSession_GatewayFailureSurfacesAsGatewayError(t *testing.T) {
	carts := &mockCartRepo{}
	products := &mockProductRepo{}
	gw := &mockGateway{}
	events := &mockEvents{}

	carts.On("Get", mock.Anything, "u1").Return(&domain.Cart{UserID: "u1", Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 1},
	}}, nil)
	products.On("GetByIDs", mock.Anything, []int64{1}).Return([]domain.Product{
		{ID: 1, Name: "Dune", Price: 1500, Quantity: 10},
	}, nil)
	gw.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	svc := newCheckoutService(carts, products, gw, events)
	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		UserID:          "u1",
		ShippingAddress: validAddress(),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrGatewayUnavail))
	assert.Contains(t, err.Error(), "connection refused")
	events.AssertNotCalled(t, "CheckoutSessionCreated", mock.Anything, mock.Anything)
}

func TestCheckoutService_CreateSession_RequiresUser(t *testing.T) {
	svc := newCheckoutService(&mockCartRepo{}, &mockProductRepo{}, &mockGateway{}, relaxedEvents())

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		ShippingAddress: validAddress(),
	})

	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}
