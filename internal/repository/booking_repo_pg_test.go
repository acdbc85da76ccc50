package repository

import (
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewSessionRepository(t *testing.T) {
	repo := NewSessionRepository(&pgxpool.Pool{})
	assert.NotNil(t, repo)
}

func TestListBookingsQuery_NewestFirst(t *testing.T) {
	order := listBookingsQuery[strings.Index(listBookingsQuery, "ORDER BY"):]
	assert.Equal(t, "ORDER BY created_at DESC, booking_date DESC", order)
	assert.Contains(t, listBookingsQuery, "WHERE user_id=$1")
}
