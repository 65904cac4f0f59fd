package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/AkshathTaduri/booktownsolutions/internal/domain"
	"github.com/AkshathTaduri/booktownsolutions/internal/service"
	"github.com/AkshathTaduri/booktownsolutions/pkg/httputil"
)

// CheckoutHandler handles HTTP requests for checkout session creation.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// CreateSessionRequest is the JSON request body for starting a checkout.
type CreateSessionRequest struct {
	ShippingAddress domain.Address `json:"shipping_address"`
}

// CreateSession handles POST /api/v1/checkout/session
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	session, err := h.service.CreateSession(r.Context(), service.CreateSessionInput{
		UserID:          userID(r),
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: session})
}
