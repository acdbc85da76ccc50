package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, creds *domain.Credentials) error
	GetByEmail(ctx context.Context, email string) (*domain.Credentials, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	UpdateProfile(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) error
	MarkGoogleVerified(ctx context.Context, id uuid.UUID, firstName, lastName string) (*domain.User, error)
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

const userColumns = `id, email, first_name, last_name, phone, date_of_birth, nationality, passport_number,
	preferred_services, loyalty_points, membership_tier, is_verified, created_at, updated_at, last_login_at`

func scanUser(row pgx.Row, extra ...any) (*domain.User, error) {
	var u domain.User
	dest := []any{
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.DateOfBirth, &u.Nationality, &u.PassportNumber,
		&u.PreferredServices, &u.LoyaltyPoints, &u.MembershipTier, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if err := normalizeUser(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func normalizeUser(u *domain.User) error {
	if !u.MembershipTier.Valid() {
		return fmt.Errorf("user %s: unknown membership tier %q", u.ID, u.MembershipTier)
	}
	if u.PreferredServices == nil {
		u.PreferredServices = []string{}
	}
	return nil
}

// Create inserts creds.User and fills in the generated id and timestamps.
func (r *PGUserRepository) Create(ctx context.Context, creds *domain.Credentials) error {
	u := &creds.User
	if u.MembershipTier == "" {
		u.MembershipTier = domain.DefaultTier
	}
	if u.PreferredServices == nil {
		u.PreferredServices = []string{}
	}

	err := r.db.QueryRow(ctx, `INSERT INTO users
		(email, password_hash, first_name, last_name, phone, date_of_birth, nationality, passport_number,
		 preferred_services, loyalty_points, membership_tier, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		u.Email, creds.PasswordHash, u.FirstName, u.LastName, u.Phone, u.DateOfBirth, u.Nationality, u.PassportNumber,
		u.PreferredServices, u.LoyaltyPoints, u.MembershipTier, u.IsVerified).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.Credentials, error) {
	var hash string
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+`, password_hash FROM users WHERE email=$1`, email)
	u, err := scanUser(row, &hash)
	if err != nil {
		return nil, notFound(err)
	}
	return &domain.Credentials{User: *u, PasswordHash: hash}, nil
}

func (r *PGUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *PGUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id=$1`, id)
	return err
}

// UpdateProfile writes only the allow-listed columns that upd sets.
func (r *PGUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) error {
	query, args := buildProfileUpdate(id, upd)
	if query == "" {
		return nil
	}
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func buildProfileUpdate(id uuid.UUID, upd domain.ProfileUpdate) (string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.DateOfBirth != nil {
		add("date_of_birth", *upd.DateOfBirth)
	}
	if upd.Nationality != nil {
		add("nationality", *upd.Nationality)
	}
	if upd.PassportNumber != nil {
		add("passport_number", *upd.PassportNumber)
	}
	if upd.PreferredServices != nil {
		services := *upd.PreferredServices
		if services == nil {
			services = []string{}
		}
		add("preferred_services", services)
	}
	if len(sets) == 0 {
		return "", nil
	}

	args = append(args, id)
	query := "UPDATE users SET " + strings.Join(sets, ", ") + ", updated_at = now() WHERE id = $" + strconv.Itoa(len(args))
	return query, args
}

func (r *PGUserRepository) MarkGoogleVerified(ctx context.Context, id uuid.UUID, firstName, lastName string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `UPDATE users
		SET first_name=$1, last_name=$2, is_verified=TRUE, last_login_at=now(), updated_at=now()
		WHERE id=$3
		RETURNING `+userColumns, firstName, lastName, id))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
