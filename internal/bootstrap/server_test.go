package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Domenick1991/rmtravel/config"
	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/Domenick1991/rmtravel/internal/service/auth"
	"github.com/Domenick1991/rmtravel/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuth rejects every session; routes under BearerAuth must answer 401.
type stubAuth struct{ auth.AuthUseCase }

func (stubAuth) ValidateSession(context.Context, string) *domain.User { return nil }

type stubBooking struct{ booking.BookingUseCase }

func TestNewRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	swagger := filepath.Join(t.TempDir(), "swagger.json")
	require.NoError(t, os.WriteFile(swagger, []byte(`{"swagger":"2.0"}`), 0o600))

	cfg := config.Default()
	cfg.HTTP.SwaggerFile = swagger
	router := NewRouter(&cfg, Services{Auth: stubAuth{}, Booking: stubBooking{}}, nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/healthz", http.StatusOK},
		{"GET", "/api/v1/auth/session", http.StatusUnauthorized},
		{"POST", "/api/v1/auth/logout", http.StatusUnauthorized},
		{"GET", "/api/v1/profile", http.StatusUnauthorized},
		{"PATCH", "/api/v1/profile", http.StatusUnauthorized},
		{"GET", "/api/v1/bookings", http.StatusUnauthorized},
		{"POST", "/api/v1/bookings", http.StatusUnauthorized},
		{"GET", "/swagger/doc.json", http.StatusOK},
		{"GET", "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestNewRouter_NoSwagger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	router := NewRouter(&cfg, Services{Auth: stubAuth{}, Booking: stubBooking{}}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/swagger/index.html", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
