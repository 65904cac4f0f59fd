package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/internal/repository"
	apperrors "github.com/AkshathTaduri/booktownsolutions/pkg/errors"
)

// CatalogService exposes product reads and administrative stock adjustment.
type CatalogService struct {
	products repository.ProductRepository
	stock    repository.StockRepository
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(products repository.ProductRepository, stock repository.StockRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{products: products, stock: stock, logger: logger}
}

// GetProduct returns one catalog entry.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("product id must be positive")
	}
	return s.products.GetByID(ctx, id)
}

// GetProducts returns the catalog entries for the given IDs.
func (s *CatalogService) GetProducts(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, apperrors.InvalidInput("at least one product id is required")
	}
	return s.products.GetByIDs(ctx, ids)
}

// StockLevel returns the current stock level for a product.
func (s *CatalogService) StockLevel(ctx context.Context, productID int64) (int, error) {
	if productID <= 0 {
		return 0, apperrors.InvalidInput("product id must be positive")
	}
	return s.stock.GetLevel(ctx, productID)
}

// SetStockLevel sets the absolute stock level for a product. This is the
// administrative path for initialization and correction; the checkout
// pipeline never calls it.
func (s *CatalogService) SetStockLevel(ctx context.Context, productID int64, quantity int) error {
	if productID <= 0 {
		return apperrors.InvalidInput("product id must be positive")
	}
	if quantity < 0 {
		return apperrors.InvalidInput("stock level cannot be negative")
	}

	if err := s.stock.SetLevel(ctx, productID, quantity); err != nil {
		return fmt.Errorf("set stock level: %w", err)
	}

	s.logger.InfoContext(ctx, "stock level set",
		slog.Int64("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return nil
}
