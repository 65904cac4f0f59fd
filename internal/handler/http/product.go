package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AkshathTaduri/booktownsolutions/internal/service"
	"github.com/AkshathTaduri/booktownsolutions/pkg/httputil"
	"github.com/AkshathTaduri/booktownsolutions/pkg/validator"
)

// ProductHandler handles HTTP requests for catalog and stock endpoints.
type ProductHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// SetStockRequest is the JSON request body for the administrative stock set.
type SetStockRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// GetProduct handles GET /api/v1/products/{productID}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseInt64Param(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// GetProducts handles GET /api/v1/products?ids=1,2,3
func (h *ProductHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "ids query parameter is required"},
		})
		return
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "invalid id: " + part},
			})
			return
		}
		ids = append(ids, id)
	}

	products, err := h.service.GetProducts(r.Context(), ids)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// GetStock handles GET /api/v1/products/{productID}/stock
func (h *ProductHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseInt64Param(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	level, err := h.service.StockLevel(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"product_id": productID,
		"quantity":   level,
	}})
}

// SetStock handles PUT /api/v1/products/{productID}/stock
func (h *ProductHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseInt64Param(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	var req SetStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.SetStockLevel(r.Context(), productID, req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"product_id": productID,
		"quantity":   req.Quantity,
	}})
}
