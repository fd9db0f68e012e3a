package api

import (
	"net/http"

	"downloader/internal/models"
	"downloader/internal/ratelimit"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" && r.Method != http.MethodOptions
			}),
		))
	}
}

// SetupRoutes configures the HTTP routes for the API. Only the download route
// consumes rate limit quota; the limits lookup and history are free.
func SetupRoutes(handlers *Handlers, config *models.Config, opts ...RouteOption) *mux.Router {
	router := mux.NewRouter()

	router.Use(requestIDMiddleware)
	for _, opt := range opts {
		opt(router)
	}

	// Preflight requests are routed alongside the real verb so the CORS
	// middleware can answer them.
	methods := func(method string) []string {
		if config.Server.CORS.Enabled {
			return []string{method, http.MethodOptions}
		}
		return []string{method}
	}

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/limits", handlers.GetLimits).Methods(methods(http.MethodGet)...)
	api.HandleFunc("/downloads/recent", handlers.RecentDownloads).Methods(methods(http.MethodGet)...)

	downloadAPI := api.PathPrefix("/download").Subrouter()
	if config.RateLimit.Enabled {
		downloadAPI.Use(ratelimit.Middleware(handlers.limiter, config.RateLimit.TrustProxyHeaders))
	}
	downloadAPI.HandleFunc("", handlers.Download).Methods(methods(http.MethodPost)...)

	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	if config.Server.CORS.Enabled {
		router.Use(corsMiddleware(config.Server.CORS))
	}

	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, models.ErrorCodeNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, models.ErrorCodeMethodNotAllowed, "Method not allowed")
	})

	return router
}
