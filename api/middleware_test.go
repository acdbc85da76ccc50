package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/Domenick1991/rmtravel/internal/service/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def", "abc.def"},
		{"bearer abc", "abc"},
		{"  Bearer   abc  ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, bearerToken(tt.header))
		})
	}
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockService := &MockAuthUseCase{}

	router := gin.New()
	router.GET("/private", BearerAuth(mockService), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/private", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Not authenticated"}`, w.Body.String())
	mockService.AssertNotCalled(t, "ValidateSession", mock.Anything, mock.Anything)
}

func TestClientInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockService := &MockAuthUseCase{}
	user := testUser()

	router := gin.New()
	router.Use(ClientInfo())
	router.POST("/login", NewAuthHandler(mockService, nil, nil).login)

	mockService.On("Login", mock.MatchedBy(func(ctx context.Context) bool {
		info := auth.ClientInfoFrom(ctx)
		return info.UserAgent == "rmctl/1.0" && info.IPAddress == "192.0.2.10"
	}), user.Email, "password123").Return(domain.AuthResponse{Success: true, User: user, Token: "t"}).Once()

	w := httptest.NewRecorder()
	req := jsonRequest("POST", "/login", loginRequest{Email: user.Email, Password: "password123"})
	req.Header.Set("User-Agent", "rmctl/1.0")
	req.RemoteAddr = "192.0.2.10:51234"
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestRequestLoggerAndSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(RequestLogger(zap.New(core)), SecurityHeaders())
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/boom", func(c *gin.Context) { c.String(http.StatusInternalServerError, "boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ok", bytes.NewReader(nil)))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/boom", nil))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
		assert.Equal(t, "/boom", entries[1].ContextMap()["path"])
	}
}
