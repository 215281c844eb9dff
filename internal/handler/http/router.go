package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avelane/cartwish/internal/catalog"
	"github.com/avelane/cartwish/internal/store"
	"github.com/avelane/cartwish/pkg/health"
	"github.com/avelane/cartwish/pkg/middleware"
)

// NewRouter creates a chi router with all cartwish routes registered.
func NewRouter(
	stores *store.Manager,
	cat *catalog.Client,
	healthHandler *health.Handler,
	logger *slog.Logger,
	allowedOrigin string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("cartwish"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(CORS(allowedOrigin))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(stores, cat, logger)
	wishlistHandler := NewWishlistHandler(stores, cat, logger)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(SessionIDFromHeader)

		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)
		r.Get("/badge", cartHandler.Badge)

		r.Post("/items", cartHandler.AddItem)
		r.Put("/items/{productId}", cartHandler.UpdateItemQuantity)
		r.Delete("/items/{productId}", cartHandler.RemoveItem)
	})

	r.Route("/api/v1/wishlist", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(SessionIDFromHeader)

		r.Get("/", wishlistHandler.List)
		r.Get("/{productId}", wishlistHandler.Contains)
		r.Post("/{productId}", wishlistHandler.Save)
		r.Delete("/{productId}", wishlistHandler.Remove)
	})

	return r
}
