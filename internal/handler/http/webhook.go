package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/AkshathTaduri/booktownsolutions/internal/service"
	"github.com/AkshathTaduri/booktownsolutions/pkg/httputil"
)

// SignatureHeader carries the payment provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

// WebhookHandler receives payment-provider webhook deliveries.
type WebhookHandler struct {
	service  *service.WebhookService
	logger   *slog.Logger
	maxBytes int64
}

// NewWebhookHandler creates a new webhook HTTP handler. maxBytes bounds the
// request body; 0 falls back to 1 MiB.
func NewWebhookHandler(svc *service.WebhookService, logger *slog.Logger, maxBytes int64) *WebhookHandler {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &WebhookHandler{service: svc, logger: logger, maxBytes: maxBytes}
}

// HandlePayment handles POST /webhooks/payment. The body is read raw and
// passed through untouched; the signature covers the exact bytes sent.
func (h *WebhookHandler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "PAYLOAD_TOO_LARGE", Message: "webhook payload too large"},
			})
			return
		}
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_BODY", Message: "failed to read webhook payload"},
		})
		return
	}

	result, err := h.service.Process(r.Context(), payload, r.Header.Get(SignatureHeader))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
