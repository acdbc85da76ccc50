package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/Domenick1991/rmtravel/internal/service/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	MsgNotAuthenticated = "Not authenticated"

	contextUserKey  = "rm.user"
	contextTokenKey = "rm.token"
)

// BearerAuth rejects requests without a live session. The user and raw token
// are stored on the gin context for downstream handlers.
func BearerAuth(service auth.AuthUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgNotAuthenticated})
			return
		}
		user := service.ValidateSession(c.Request.Context(), token)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgNotAuthenticated})
			return
		}
		c.Set(contextUserKey, user)
		c.Set(contextTokenKey, token)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func currentUser(c *gin.Context) (*domain.User, string, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil, "", false
	}
	user, ok := v.(*domain.User)
	if !ok || user == nil {
		return nil, "", false
	}
	return user, c.GetString(contextTokenKey), true
}

// ClientInfo records the caller's address and user agent on the request
// context so new sessions can store them.
func ClientInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithClientInfo(c.Request.Context(), domain.ClientInfo{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
