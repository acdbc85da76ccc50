package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/rmtravel/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisGuard holds short-lived submission locks so a double-submitted
// booking form is only persisted once.
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(cfg config.RedisConfig) *RedisGuard {
	return &RedisGuard{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

func (g *RedisGuard) AcquireSubmit(ctx context.Context, userID uuid.UUID, fingerprint string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, submitKey(userID, fingerprint), "locked", ttl).Result()
}

func (g *RedisGuard) ReleaseSubmit(ctx context.Context, userID uuid.UUID, fingerprint string) error {
	return g.client.Del(ctx, submitKey(userID, fingerprint)).Err()
}

func (g *RedisGuard) Close() error {
	return g.client.Close()
}

func submitKey(userID uuid.UUID, fingerprint string) string {
	return fmt.Sprintf("lock:booking:%s:%s", userID, fingerprint)
}
