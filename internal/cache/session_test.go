package cache

import (
	"testing"
	"time"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSessionCache_TTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	c := NewSessionCache(15*time.Minute, WithClock(func() time.Time { return now }))
	user := domain.User{ID: uuid.New(), Email: "alice@example.com"}

	c.Set(user, "tok")

	got, ok := c.Get(user.ID)
	assert.True(t, ok)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, user.Email, got.User.Email)

	now = now.Add(14 * time.Minute)
	_, ok = c.Get(user.ID)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get(user.ID)
	assert.False(t, ok, "entry at its TTL is absent")
	assert.Equal(t, 0, c.Len())
}

func TestSessionCache_Delete(t *testing.T) {
	c := NewSessionCache(0)
	user := domain.User{ID: uuid.New()}

	c.Set(user, "tok")
	c.Delete(user.ID)

	_, ok := c.Get(user.ID)
	assert.False(t, ok)

	c.Delete(user.ID)
}

func TestSessionCache_Isolated(t *testing.T) {
	a := NewSessionCache(time.Minute)
	b := NewSessionCache(time.Minute)
	user := domain.User{ID: uuid.New()}

	a.Set(user, "tok")
	_, ok := b.Get(user.ID)
	assert.False(t, ok)
}
