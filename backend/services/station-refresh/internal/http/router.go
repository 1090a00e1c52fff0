package httpserver

import (
	"net/http"

	"spinroute/backend/services/station-refresh/internal/http/middleware"
)

// Routes groups handlers.
type Routes struct {
	Health  http.HandlerFunc
	Metrics http.Handler
	Refresh http.HandlerFunc
	Status  http.HandlerFunc
	Count   http.HandlerFunc
}

// NewRouter registers endpoints. Admin routes are wrapped with the given
// middleware, applied in order.
func NewRouter(routes Routes, admin ...func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", method(http.MethodGet, routes.Metrics))
	}
	if routes.Refresh != nil {
		mux.Handle("/internal/refresh", method(http.MethodPost, middleware.Chain(routes.Refresh, admin...)))
	}
	if routes.Status != nil {
		mux.Handle("/internal/refresh/status", method(http.MethodGet, middleware.Chain(routes.Status, admin...)))
	}
	if routes.Count != nil {
		mux.Handle("/internal/refresh/stations", method(http.MethodGet, middleware.Chain(routes.Count, admin...)))
	}
	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
