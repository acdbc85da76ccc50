package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/rmtravel/config"
	"github.com/Domenick1991/rmtravel/internal/email"
	"github.com/Domenick1991/rmtravel/internal/kafka"
	"github.com/Domenick1991/rmtravel/internal/logger"
	"github.com/Domenick1991/rmtravel/internal/repository"
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

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	sessionRepo := repository.NewSessionRepository(pool)
	emailSender := email.NewSender(zl.Named("email"))

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.TrackingTopic, zl.Named("consumer"))
		defer consumer.Close()

		go func() {
			err := consumer.Consume(ctx, emailSender.Send)
			if err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("consumer stopped", zap.Error(err))
			}
		}()
	}

	sweepEvery := time.Duration(cfg.Worker.SessionSweepMinutes) * time.Minute
	if sweepEvery <= 0 {
		sweepEvery = time.Hour
	}
	sweepTicker := time.NewTicker(sweepEvery)
	defer sweepTicker.Stop()

	for {
		select {
		case <-sweepTicker.C:
			removed, err := sessionRepo.DeleteExpired(ctx, time.Now())
			if err != nil {
				zl.Error("sweep expired sessions", zap.Error(err))
				continue
			}
			if removed > 0 {
				zl.Info("swept expired sessions", zap.Int64("removed", removed))
			}
		case <-ctx.Done():
			zl.Info("shutting down")
			return
		}
	}
}
