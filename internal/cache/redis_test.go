package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/rmtravel/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSubmitKey(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	assert.Equal(t, "lock:booking:11111111-2222-3333-4444-555555555555:abc", submitKey(id, "abc"))
}

func TestNewRedisGuard(t *testing.T) {
	g := NewRedisGuard(config.RedisConfig{Addr: "localhost:6379"})
	assert.NotNil(t, g)
	assert.NoError(t, g.Close())
}

func TestRedisGuard_Unreachable(t *testing.T) {
	g := NewRedisGuard(config.RedisConfig{Addr: "127.0.0.1:1"})
	defer g.Close()

	ok, err := g.AcquireSubmit(context.Background(), uuid.New(), "abc", time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
}
