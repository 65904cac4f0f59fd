package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/internal/service"
	"github.com/AkshathTaduri/booktownsolutions/pkg/httputil"
	"github.com/AkshathTaduri/booktownsolutions/pkg/validator"
)

// CartHandler handles HTTP requests for user and guest cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: svc, logger: logger}
}

// CartLineRequest is one cart line in a PUT body.
type CartLineRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1"`
}

// PutCartRequest is the JSON request body replacing a cart.
type PutCartRequest struct {
	Lines []CartLineRequest `json:"lines" validate:"dive"`
}

func (req *PutCartRequest) toLines() []domain.CartLine {
	lines := make([]domain.CartLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = domain.CartLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return lines
}

// SyncCartRequest is the JSON request body for the login-time cart sync.
type SyncCartRequest struct {
	SessionID string `json:"session_id"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Get(r.Context(), userID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// PutCart handles PUT /api/v1/cart
func (h *CartHandler) PutCart(w http.ResponseWriter, r *http.Request) {
	var req PutCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.Put(r.Context(), userID(r), req.toLines())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// RemoveLine handles DELETE /api/v1/cart/{productID}
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseInt64Param(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	if err := h.service.RemoveLine(r.Context(), userID(r), productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "removed"}})
}

// SyncCart handles POST /api/v1/cart/sync, merging the guest session cart
// into the user's cart at login.
func (h *CartHandler) SyncCart(w http.ResponseWriter, r *http.Request) {
	var req SyncCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.Reconcile(r.Context(), userID(r), req.SessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// GetGuestCart handles GET /api/v1/cart/guest
func (h *CartHandler) GetGuestCart(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("X-Session-ID")
	cart, err := h.service.GetGuest(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// PutGuestCart handles PUT /api/v1/cart/guest
func (h *CartHandler) PutGuestCart(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("X-Session-ID")

	var req PutCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.PutGuest(r.Context(), sessionID, req.toLines())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}
