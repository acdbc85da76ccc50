package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/rmtravel/config"
	"github.com/Domenick1991/rmtravel/internal/bootstrap"
	"github.com/Domenick1991/rmtravel/internal/cache"
	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/Domenick1991/rmtravel/internal/kafka"
	"github.com/Domenick1991/rmtravel/internal/logger"
	"github.com/Domenick1991/rmtravel/internal/oauth/google"
	"github.com/Domenick1991/rmtravel/internal/repository"
	"github.com/Domenick1991/rmtravel/internal/security"
	"github.com/Domenick1991/rmtravel/internal/service/auth"
	"github.com/Domenick1991/rmtravel/internal/service/booking"
	"github.com/Domenick1991/rmtravel/internal/telemetry"
	"github.com/Domenick1991/rmtravel/internal/tracking"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		zl.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			zl.Fatal("migrate", zap.Error(err))
		}
	}

	var tracker tracking.Tracker = tracking.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, zl)
		defer producer.Close()
		kafkaTracker := tracking.NewKafkaTracker(producer, cfg.Kafka.TrackingTopic, zl.Named("tracking"))
		defer kafkaTracker.Close()
		tracker = kafkaTracker
	}

	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	authService := auth.NewAuthService(
		userRepo,
		sessionRepo,
		security.BcryptHasher{Cost: cfg.Auth.BcryptCost},
		security.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, domain.SessionLifetime),
		cache.NewSessionCache(cfg.Auth.CacheTTL()),
		auth.WithTracker(tracker),
		auth.WithLogger(zl.Named("auth")),
	)

	bookingOpts := []booking.BookingServiceOption{
		booking.WithTracker(tracker),
		booking.WithLogger(zl.Named("booking")),
	}
	if cfg.Redis.Addr != "" {
		guard := cache.NewRedisGuard(cfg.Redis)
		defer guard.Close()
		if err := guard.Ping(ctx); err != nil {
			zl.Warn("redis unavailable, duplicate-submit guard fails open", zap.Error(err))
		}
		ttl := time.Duration(cfg.Booking.SubmitGuardSeconds) * time.Second
		bookingOpts = append(bookingOpts, booking.WithSubmitGuard(guard, ttl))
	}
	bookingService := booking.NewBookingService(bookingRepo, bookingOpts...)

	services := bootstrap.Services{Auth: authService, Booking: bookingService}
	if cfg.Google.ClientID != "" {
		provider, err := google.New(ctx, cfg.Google)
		if err != nil {
			zl.Warn("google sign-in disabled", zap.Error(err))
		} else {
			services.Google = provider
		}
	}

	if err := bootstrap.Run(ctx, cfg, services, zl); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
