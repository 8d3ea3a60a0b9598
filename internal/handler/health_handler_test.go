package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"medbrief/internal/handler"
	"medbrief/mocks"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		status  int
	}{
		{"ready", nil, http.StatusOK},
		{"store down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockSummaryRepo)
			repo.On("Ping", mock.Anything).Return(tt.pingErr)
			h := handler.NewHealthHandler(repo)

			r := gin.New()
			r.GET("/healthz", h.Liveness)
			r.GET("/readyz", h.Readiness)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
			assert.Equal(t, http.StatusOK, w.Code)

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
