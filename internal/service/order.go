package service

import (
	"context"
	"fmt"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/internal/repository"
	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
	"github.com/AkshathTaduri/booktownsolutions/pkg/pagination"
)

// OrderService reads committed orders for account pages.
type OrderService struct {
	orders repository.OrderRepository
}

// NewOrderService creates a new order query service.
func NewOrderService(orders repository.OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

// Get returns one of the user's orders. Another user's order reads as not
// found rather than forbidden, so order IDs leak nothing.
func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("order", orderID)
	}
	return order, nil
}

// List returns the user's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID string, params pagination.Params) (pagination.Result[domain.Order], error) {
	var empty pagination.Result[domain.Order]

	if userID == "" {
		return empty, apperrors.InvalidInput("user id is required")
	}

	orders, total, err := s.orders.List(ctx, repository.OrderFilter{
		UserID:  userID,
		Page:    params.Page,
		PerPage: params.PerPage,
	})
	if err != nil {
		return empty, fmt.Errorf("list orders: %w", err)
	}

	return pagination.NewResult(orders, total, params), nil
}
