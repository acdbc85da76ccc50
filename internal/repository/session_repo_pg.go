package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	// FindUserByTokenHash returns the owner of a non-expired session row and
	// bumps its last_used_at.
	FindUserByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	// DeleteByTokenHash is idempotent: no matching row is not an error.
	DeleteByTokenHash(ctx context.Context, userID uuid.UUID, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type PGSessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) SessionRepository {
	return &PGSessionRepository{db: db}
}

func (r *PGSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	var ip, ua string
	if s.IPAddress != nil {
		ip = *s.IPAddress
	}
	if s.UserAgent != nil {
		ua = *s.UserAgent
	}
	err := r.db.QueryRow(ctx, `INSERT INTO user_sessions (user_id, token_hash, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, NULLIF($4::text, '')::inet, NULLIF($5::text, ''))
		RETURNING id, created_at, last_used_at`,
		s.UserID, s.TokenHash, s.ExpiresAt, ip, ua).
		Scan(&s.ID, &s.CreatedAt, &s.LastUsedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *PGSessionRepository) FindUserByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `UPDATE user_sessions s SET last_used_at = now()
		FROM users u
		WHERE s.user_id = u.id AND s.token_hash = $1 AND s.expires_at > $2
		RETURNING u.id, u.email, u.first_name, u.last_name, u.phone, u.date_of_birth, u.nationality, u.passport_number,
			u.preferred_services, u.loyalty_points, u.membership_tier, u.is_verified, u.created_at, u.updated_at, u.last_login_at`,
		tokenHash, now))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *PGSessionRepository) DeleteByTokenHash(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM user_sessions WHERE user_id=$1 AND token_hash=$2`, userID, tokenHash)
	return err
}

func (r *PGSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

var _ SessionRepository = (*PGSessionRepository)(nil)
