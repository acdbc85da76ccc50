package security

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte(strings.Repeat("s", 32))

func TestTokenIssuer_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer(testSecret, "rmgroups", 7*24*time.Hour, WithClock(func() time.Time { return now }))
	userID := uuid.New()

	token, exp, err := issuer.Issue(userID)
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour), exp)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserUUID())
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())
}

func TestTokenIssuer_UniquePerIssue(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, "rmgroups", time.Hour)
	id := uuid.New()

	a, _, err := issuer.Issue(id)
	require.NoError(t, err)
	b, _, err := issuer.Issue(id)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, HashToken(a), HashToken(b))
}

func TestTokenIssuer_Expired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	issuer := NewTokenIssuer(testSecret, "rmgroups", time.Hour, WithClock(func() time.Time { return clock }))

	token, _, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	clock = now.Add(2 * time.Hour)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenIssuer_Tampered(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, "rmgroups", time.Hour)
	other := NewTokenIssuer([]byte(strings.Repeat("o", 32)), "rmgroups", time.Hour)

	token, _, err := other.Issue(uuid.New())
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.Len(t, HashToken("abc"), 64)
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}
