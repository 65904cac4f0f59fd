package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/internal/event"
	"github.com/AkshathTaduri/booktownsolutions/internal/gateway"
	"github.com/AkshathTaduri/booktownsolutions/internal/repository"
)

type mockCartRepo struct {
	mock.Mock
}

func (m *mockCartRepo) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepo) Replace(ctx context.Context, userID string, lines []domain.CartLine) error {
	return m.Called(ctx, userID, lines).Error(0)
}

func (m *mockCartRepo) DeleteLine(ctx context.Context, userID string, productID int64) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *mockCartRepo) Clear(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockGuestCartRepo struct {
	mock.Mock
}

func (m *mockGuestCartRepo) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockGuestCartRepo) Save(ctx context.Context, cart *domain.Cart) error {
	return m.Called(ctx, cart).Error(0)
}

func (m *mockGuestCartRepo) Delete(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) CreateFromPayment(ctx context.Context, order *domain.Order) (bool, error) {
	args := m.Called(ctx, order)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req *gateway.CreateSessionRequest) (*gateway.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Session), args.Error(1)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) CartSynced(ctx context.Context, data event.CartSyncedData) {
	m.Called(ctx, data)
}

func (m *mockEvents) CheckoutSessionCreated(ctx context.Context, data event.CheckoutSessionCreatedData) {
	m.Called(ctx, data)
}

func (m *mockEvents) OrderCreated(ctx context.Context, order *domain.Order) {
	m.Called(ctx, order)
}

// relaxedEvents accepts every publish without expectations. Use when the
// test does not care about events.
func relaxedEvents() *mockEvents {
	ev := &mockEvents{}
	ev.On("CartSynced", mock.Anything, mock.Anything).Maybe()
	ev.On("CheckoutSessionCreated", mock.Anything, mock.Anything).Maybe()
	ev.On("OrderCreated", mock.Anything, mock.Anything).Maybe()
	return ev
}
