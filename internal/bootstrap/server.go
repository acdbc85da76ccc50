package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/rmtravel/api"
	"github.com/Domenick1991/rmtravel/config"
	"github.com/Domenick1991/rmtravel/internal/service/auth"
	"github.com/Domenick1991/rmtravel/internal/service/booking"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type Services struct {
	Auth    auth.AuthUseCase
	Booking booking.BookingUseCase
	Google  api.GoogleVerifier
}

// Run serves the HTTP API and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, svc, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(cfg *config.Config, svc Services, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(log), api.SecurityHeaders(), api.ClientInfo())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := api.BearerAuth(svc.Auth)
	v1 := router.Group("/api/v1")

	api.NewAuthHandler(svc.Auth, svc.Google, log).Register(v1.Group("/auth"), requireAuth)
	api.NewProfileHandler(svc.Auth).Register(v1.Group("/profile", requireAuth))
	api.NewBookingHandler(svc.Booking, log).Register(v1.Group("/bookings", requireAuth))

	if cfg.HTTP.SwaggerFile != "" {
		ui := gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
		router.GET("/swagger/*any", func(c *gin.Context) {
			if c.Param("any") == "/doc.json" {
				c.File(cfg.HTTP.SwaggerFile)
				return
			}
			ui(c)
		})
	}

	return router
}
