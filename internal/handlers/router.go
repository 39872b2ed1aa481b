package handlers

import (
	"net/http"

	"bucketList/internal/config"
	"bucketList/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewRouter(store ItemStore, cfg config.HTTPConfig) http.Handler {
	itemHandler := NewItemHandler(store)

	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.RateLimit > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimit))
	}

	r.Route("/items", func(r chi.Router) {
		r.Get("/", itemHandler.GetItems)  // GET /items
		r.Post("/", itemHandler.PostItem) // POST /items

		r.Get("/active", itemHandler.GetActiveItems)       // GET /items/active
		r.Get("/completed", itemHandler.GetCompletedItems) // GET /items/completed

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", itemHandler.GetItemByID)       // GET /items/{id}
			r.Delete("/", itemHandler.DeleteItem)     // DELETE /items/{id}
			r.Post("/toggle", itemHandler.ToggleItem) // POST /items/{id}/toggle
		})
	})

	r.Get("/health", itemHandler.HealthCheck)

	return otelhttp.NewHandler(r, "bucket-list-api")
}
