package routing

import (
	"net/http"

	"coffeeapi/internal/handlers"
	"coffeeapi/internal/middleware"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Config holds the configuration needed for setting up routes
type Config struct {
	Handlers *handlers.Handler
	Logger   zerolog.Logger

	// RateLimiter is optional; nil disables rate limiting
	RateLimiter *middleware.RateLimiter

	// Metrics is optional; nil disables request metrics and /metrics
	Metrics *middleware.Metrics
}

// SetupRouter creates and configures the HTTP router with all routes and middleware
func SetupRouter(cfg Config) http.Handler {
	h := cfg.Handlers
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.HandleIndex) // {$} means exact match
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /ready", h.HandleReady)

	// Roasters
	mux.HandleFunc("GET /roasters", h.HandleRoasterList)
	mux.HandleFunc("GET /roasters/byName/{name}", h.HandleRoasterByName)
	mux.HandleFunc("GET /roasters/byId/{id}", h.HandleRoasterByID)
	mux.HandleFunc("POST /roasters", h.HandleRoasterCreate)
	mux.HandleFunc("DELETE /roasters/{name}", h.HandleRoasterDelete)

	// Coffees
	mux.HandleFunc("GET /roasters/byName/{name}/coffees", h.HandleRoasterCoffees)
	mux.HandleFunc("GET /coffees", h.HandleCoffeeList)
	mux.HandleFunc("POST /coffees", h.HandleCoffeeCreate)

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	// Catch-all 404 handler - must be last, catches any unmatched routes
	mux.HandleFunc("/", h.HandleNotFound)

	// Apply middleware in order (outermost first, innermost last)
	var handler http.Handler = mux

	// 1. Limit request body size (innermost - runs first on request)
	handler = middleware.LimitBodyMiddleware(handler)

	// 2. Record metrics; reads the pattern the mux sets on this request
	if cfg.Metrics != nil {
		handler = cfg.Metrics.Middleware(handler)
	}

	// 3. Apply rate limiting
	if cfg.RateLimiter != nil {
		handler = middleware.RateLimitMiddleware(cfg.RateLimiter)(handler)
	}

	// 4. Apply security headers
	handler = middleware.SecurityHeadersMiddleware(handler)

	// 5. Turn handler panics into 500s
	handler = chimw.Recoverer(handler)

	// 6. Apply logging middleware
	handler = middleware.LoggingMiddleware(cfg.Logger)(handler)

	// 7. Assign a request ID (outermost - wraps everything)
	handler = chimw.RequestID(handler)

	return handler
}
