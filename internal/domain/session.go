package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionLifetime is fixed from issuance; sessions are never extended.
const SessionLifetime = 7 * 24 * time.Hour

type Session struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastUsedAt time.Time
	IPAddress  *string
	UserAgent  *string
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// ClientInfo describes where an authentication request came from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type AuthResponse struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}
