package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/rmtravel/internal/cache"
	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/Domenick1991/rmtravel/internal/repository"
	"github.com/Domenick1991/rmtravel/internal/security"
	"github.com/Domenick1991/rmtravel/internal/tracking"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// User-facing messages. Internal errors are logged, never returned.
const (
	MsgRegistrationSuccess = "Registration successful"
	MsgEmailExists         = "Email already exists"
	MsgRegistrationFailed  = "Registration failed. Please try again."
	MsgPasswordTooShort    = "Password must be at least 8 characters long."
	MsgPasswordTooLong     = "Password must be at most 72 characters long."
	MsgEmailRequired       = "Email is required."
	MsgLoginSuccess        = "Login successful"
	MsgInvalidCredentials  = "Invalid email or password"
	MsgLoginFailed         = "Login failed. Please try again."
	MsgGoogleCreated       = "Google account created successfully"
	MsgGoogleLogin         = "Google login successful"
	MsgGoogleEmailConflict = "Email already exists with different login method"
	MsgGoogleFailed        = "Google authentication failed. Please try again."
)

// GooglePasswordPrefix marks accounts created through Google sign-in. The
// stored value is never a valid bcrypt hash.
const GooglePasswordPrefix = "google_oauth_"

type AuthUseCase interface {
	Register(ctx context.Context, input RegisterInput) domain.AuthResponse
	Login(ctx context.Context, email, password string) domain.AuthResponse
	LoginWithGoogle(ctx context.Context, profile GoogleProfile) domain.AuthResponse
	ValidateSession(ctx context.Context, token string) *domain.User
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd domain.ProfileUpdate) bool
	Logout(ctx context.Context, userID uuid.UUID, token string)
	GetUserByID(ctx context.Context, userID uuid.UUID) *domain.User
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
}

type GoogleProfile struct {
	Email      string
	FirstName  string
	LastName   string
	ExternalID string
	Verified   bool
}

type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, time.Time, error)
	Parse(token string) (*security.Claims, error)
}

type SessionCache interface {
	Get(userID uuid.UUID) (cache.CachedSession, bool)
	Set(user domain.User, token string)
	Delete(userID uuid.UUID)
}

type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	hasher   security.PasswordHasher
	tokens   TokenIssuer
	cache    SessionCache
	tracker  tracking.Tracker
	log      *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

type AuthServiceOption func(*AuthService)

func WithTracker(t tracking.Tracker) AuthServiceOption {
	return func(s *AuthService) {
		s.tracker = t
	}
}

func WithLogger(log *zap.Logger) AuthServiceOption {
	return func(s *AuthService) {
		s.log = log
	}
}

func WithClock(now func() time.Time) AuthServiceOption {
	return func(s *AuthService) {
		s.now = now
	}
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	hasher security.PasswordHasher,
	tokens TokenIssuer,
	sessionCache SessionCache,
	opts ...AuthServiceOption,
) *AuthService {
	s := &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		cache:    sessionCache,
		tracker:  tracking.Nop{},
		log:      zap.NewNop(),
		tracer:   otel.Tracer("github.com/Domenick1991/rmtravel/internal/service/auth"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type clientInfoKey struct{}

// WithClientInfo attaches the caller's address and user agent so new session
// rows can record them.
func WithClientInfo(ctx context.Context, info domain.ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFrom returns what WithClientInfo attached, or the zero value.
func ClientInfoFrom(ctx context.Context) domain.ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(domain.ClientInfo)
	return info
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) domain.AuthResponse {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer span.End()

	email := strings.TrimSpace(input.Email)
	if email == "" {
		return failure(MsgEmailRequired)
	}
	if err := security.ValidatePassword(input.Password); err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return failure(MsgPasswordTooLong)
		}
		return failure(MsgPasswordTooShort)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.log.Error("hash password", zap.Error(err))
		return failure(MsgRegistrationFailed)
	}

	creds := &domain.Credentials{
		User: domain.User{
			Email:             email,
			FirstName:         strings.TrimSpace(input.FirstName),
			LastName:          strings.TrimSpace(input.LastName),
			Phone:             input.Phone,
			PreferredServices: []string{},
			MembershipTier:    domain.DefaultTier,
		},
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, creds); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return failure(MsgEmailExists)
		}
		s.log.Error("register user", zap.Error(err))
		return failure(MsgRegistrationFailed)
	}

	user := creds.User
	token, err := s.startSession(ctx, user)
	if err != nil {
		s.log.Error("start session after register", zap.String("user_id", user.ID.String()), zap.Error(err))
		return failure(MsgRegistrationFailed)
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	s.tracker.Track(ctx, tracking.Event{
		Action:   tracking.ActionUserRegistration,
		Category: tracking.CategoryAuthentication,
		Label:    "New User Signup",
		UserID:   user.ID.String(),
		Email:    user.Email,
	})
	return domain.AuthResponse{Success: true, User: &user, Token: token, Message: MsgRegistrationSuccess}
}

// Login answers an unknown email and a wrong password identically.
func (s *AuthService) Login(ctx context.Context, email, password string) domain.AuthResponse {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()

	creds, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.burnVerify(password)
			return failure(MsgInvalidCredentials)
		}
		s.log.Error("lookup user for login", zap.Error(err))
		return failure(MsgLoginFailed)
	}
	if !s.hasher.Verify(creds.PasswordHash, password) {
		return failure(MsgInvalidCredentials)
	}

	user := creds.User
	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.log.Warn("update last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	} else {
		now := s.now()
		user.LastLoginAt = &now
	}

	token, err := s.startSession(ctx, user)
	if err != nil {
		s.log.Error("start session after login", zap.String("user_id", user.ID.String()), zap.Error(err))
		return failure(MsgLoginFailed)
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	s.tracker.Track(ctx, tracking.Event{
		Action:   tracking.ActionUserLogin,
		Category: tracking.CategoryAuthentication,
		Label:    "User Login",
		UserID:   user.ID.String(),
	})
	return domain.AuthResponse{Success: true, User: &user, Token: token, Message: MsgLoginSuccess}
}

// LoginWithGoogle links by email. It never asks for or checks a password.
func (s *AuthService) LoginWithGoogle(ctx context.Context, profile GoogleProfile) domain.AuthResponse {
	ctx, span := s.tracer.Start(ctx, "auth.LoginWithGoogle")
	defer span.End()

	email := strings.TrimSpace(profile.Email)
	if email == "" || profile.ExternalID == "" || !profile.Verified {
		return failure(MsgGoogleFailed)
	}

	var (
		user  *domain.User
		isNew bool
	)
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		user, err = s.users.MarkGoogleVerified(ctx, existing.User.ID, profile.FirstName, profile.LastName)
		if err != nil {
			s.log.Error("update google user", zap.Error(err))
			return failure(MsgGoogleFailed)
		}
	case errors.Is(err, repository.ErrNotFound):
		now := s.now()
		creds := &domain.Credentials{
			User: domain.User{
				Email:             email,
				FirstName:         profile.FirstName,
				LastName:          profile.LastName,
				PreferredServices: []string{},
				MembershipTier:    domain.DefaultTier,
				IsVerified:        true,
				LastLoginAt:       &now,
			},
			PasswordHash: GooglePasswordPrefix + profile.ExternalID,
		}
		if err := s.users.Create(ctx, creds); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return failure(MsgGoogleEmailConflict)
			}
			s.log.Error("create google user", zap.Error(err))
			return failure(MsgGoogleFailed)
		}
		user = &creds.User
		isNew = true
	default:
		s.log.Error("lookup google user", zap.Error(err))
		return failure(MsgGoogleFailed)
	}

	token, err := s.startSession(ctx, *user)
	if err != nil {
		s.log.Error("start session after google login", zap.String("user_id", user.ID.String()), zap.Error(err))
		return failure(MsgGoogleFailed)
	}

	action, msg := tracking.ActionGoogleLogin, MsgGoogleLogin
	if isNew {
		action, msg = tracking.ActionGoogleSignup, MsgGoogleCreated
	}
	s.tracker.Track(ctx, tracking.Event{
		Action:   action,
		Category: tracking.CategoryAuthentication,
		Label:    "Google OAuth",
		UserID:   user.ID.String(),
		Email:    user.Email,
	})
	return domain.AuthResponse{Success: true, User: user, Token: token, Message: msg}
}

// ValidateSession fails closed. Expired or forged tokens are rejected before
// any cache or store access.
func (s *AuthService) ValidateSession(ctx context.Context, token string) *domain.User {
	ctx, span := s.tracer.Start(ctx, "auth.ValidateSession")
	defer span.End()

	if token == "" {
		return nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	userID := claims.UserUUID()

	if s.cache != nil {
		if cached, ok := s.cache.Get(userID); ok && cached.Token == token {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			user := cached.User
			return &user
		}
	}

	user, err := s.sessions.FindUserByTokenHash(ctx, security.HashToken(token), s.now())
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error("validate session", zap.Error(err))
		}
		return nil
	}
	if user.ID != userID {
		return nil
	}

	if s.cache != nil {
		s.cache.Set(*user, token)
	}
	return user
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd domain.ProfileUpdate) bool {
	ctx, span := s.tracer.Start(ctx, "auth.UpdateProfile")
	defer span.End()

	if s.cache != nil {
		s.cache.Delete(userID)
	}
	if upd.Empty() {
		return true
	}
	if err := s.users.UpdateProfile(ctx, userID, upd); err != nil {
		s.log.Error("update profile", zap.String("user_id", userID.String()), zap.Error(err))
		return false
	}
	return true
}

// Logout is idempotent: an unknown or already removed token is not an error.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, token string) {
	ctx, span := s.tracer.Start(ctx, "auth.Logout")
	defer span.End()

	if s.cache != nil {
		s.cache.Delete(userID)
	}
	if token != "" {
		if err := s.sessions.DeleteByTokenHash(ctx, userID, security.HashToken(token)); err != nil {
			s.log.Warn("delete session", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	s.tracker.Track(ctx, tracking.Event{
		Action:   tracking.ActionUserLogout,
		Category: tracking.CategoryAuthentication,
		UserID:   userID.String(),
	})
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) *domain.User {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error("get user", zap.String("user_id", userID.String()), zap.Error(err))
		}
		return nil
	}
	return user
}

func (s *AuthService) startSession(ctx context.Context, user domain.User) (string, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", err
	}

	session := &domain.Session{
		UserID:    user.ID,
		TokenHash: security.HashToken(token),
		ExpiresAt: expiresAt,
	}
	if info := ClientInfoFrom(ctx); info != (domain.ClientInfo{}) {
		if info.IPAddress != "" {
			session.IPAddress = &info.IPAddress
		}
		if info.UserAgent != "" {
			session.UserAgent = &info.UserAgent
		}
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}

	if s.cache != nil {
		s.cache.Set(user, token)
	}
	return token, nil
}

// burnVerify spends the same hashing time as a real check so that response
// latency does not reveal whether an email is registered.
func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("rm-timing-equaliser")
	})
	if s.dummyHash != "" {
		s.hasher.Verify(s.dummyHash, password)
	}
}

func failure(msg string) domain.AuthResponse {
	return domain.AuthResponse{Success: false, Message: msg}
}

var _ AuthUseCase = (*AuthService)(nil)
