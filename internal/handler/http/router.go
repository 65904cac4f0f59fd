package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AkshathTaduri/booktownsolutions/internal/service"
	"github.com/AkshathTaduri/booktownsolutions/pkg/health"
	"github.com/AkshathTaduri/booktownsolutions/pkg/middleware"
)

// RouterConfig bundles the dependencies for the HTTP router.
type RouterConfig struct {
	Carts    *service.CartService
	Checkout *service.CheckoutService
	Webhooks *service.WebhookService
	Catalog  *service.CatalogService
	Orders   *service.OrderService

	Health *health.Handler
	Logger *slog.Logger

	CORSAllowedOrigins []string
	Environment        string
	WebhookMaxBytes    int64
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	}))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(cfg.Logger))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Webhooks sit outside /api/v1: the body must arrive raw and unwrapped
	// for signature verification, and the caller is the payment provider.
	webhookHandler := NewWebhookHandler(cfg.Webhooks, cfg.Logger, cfg.WebhookMaxBytes)
	r.Post("/webhooks/payment", webhookHandler.HandlePayment)

	cartHandler := NewCartHandler(cfg.Carts, cfg.Logger)
	checkoutHandler := NewCheckoutHandler(cfg.Checkout, cfg.Logger)
	productHandler := NewProductHandler(cfg.Catalog, cfg.Logger)
	orderHandler := NewOrderHandler(cfg.Orders, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/cart", func(r chi.Router) {
			// Guest cart routes identify by X-Session-ID, no user required.
			r.Get("/guest", cartHandler.GetGuestCart)
			r.Put("/guest", cartHandler.PutGuestCart)

			r.Group(func(r chi.Router) {
				r.Use(RequireUser)
				r.Get("/", cartHandler.GetCart)
				r.Put("/", cartHandler.PutCart)
				r.Delete("/{productID}", cartHandler.RemoveLine)
				r.Post("/sync", cartHandler.SyncCart)
			})
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(RequireUser)
			r.Post("/session", checkoutHandler.CreateSession)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.GetProducts)
			r.Get("/{productID}", productHandler.GetProduct)
			r.Get("/{productID}/stock", productHandler.GetStock)
			r.Put("/{productID}/stock", productHandler.SetStock)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/", orderHandler.ListOrders)
			r.Get("/{orderID}", orderHandler.GetOrder)
		})
	})

	return r
}
