package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ok(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func deny(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func TestRouter(t *testing.T) {
	router := NewRouter(Routes{
		Health:  ok,
		Metrics: http.HandlerFunc(ok),
		Refresh: ok,
		Status:  ok,
		Count:   ok,
	}, deny)

	tests := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/internal/refresh", http.StatusMethodNotAllowed},
		{http.MethodPost, "/internal/refresh", http.StatusUnauthorized},
		{http.MethodGet, "/internal/refresh/status", http.StatusUnauthorized},
		{http.MethodGet, "/internal/refresh/stations", http.StatusUnauthorized},
		{http.MethodGet, "/unknown", http.StatusNotFound},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.status, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterSkipsMissingRoutes(t *testing.T) {
	router := NewRouter(Routes{Health: ok})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
