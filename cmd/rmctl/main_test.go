package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/Domenick1991/rmtravel/internal/service/auth"
	"github.com/Domenick1991/rmtravel/internal/service/booking"
	"github.com/Domenick1991/rmtravel/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend accepts one account and one live token at a time.
type fakeBackend struct {
	user   domain.User
	pw     string
	tokens map[string]bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		user:   domain.User{ID: uuid.New(), Email: "ada@example.com", FirstName: "Ada", MembershipTier: domain.TierBronze},
		pw:     "password123",
		tokens: map[string]bool{},
	}
}

func (f *fakeBackend) Register(ctx context.Context, in auth.RegisterInput) domain.AuthResponse {
	return domain.AuthResponse{Message: auth.MsgEmailExists}
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) domain.AuthResponse {
	if email != f.user.Email || password != f.pw {
		return domain.AuthResponse{Message: auth.MsgInvalidCredentials}
	}
	token := uuid.NewString()
	f.tokens[token] = true
	u := f.user
	return domain.AuthResponse{Success: true, User: &u, Token: token, Message: auth.MsgLoginSuccess}
}

func (f *fakeBackend) LoginWithGoogle(ctx context.Context, p auth.GoogleProfile) domain.AuthResponse {
	return domain.AuthResponse{Message: auth.MsgGoogleFailed}
}

func (f *fakeBackend) ValidateSession(ctx context.Context, token string) *domain.User {
	if !f.tokens[token] {
		return nil
	}
	u := f.user
	return &u
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) bool {
	upd.Apply(&f.user)
	return true
}

func (f *fakeBackend) Logout(ctx context.Context, id uuid.UUID, token string) {
	delete(f.tokens, token)
}

func (f *fakeBackend) GetUserByID(ctx context.Context, id uuid.UUID) *domain.User {
	u := f.user
	return &u
}

type fakeBookings struct {
	created []booking.CreateBookingInput
}

func (f *fakeBookings) CreateBooking(ctx context.Context, in booking.CreateBookingInput) (*domain.Booking, error) {
	f.created = append(f.created, in)
	return &domain.Booking{ID: uuid.New(), UserID: in.UserID, ServiceType: in.ServiceType, Status: domain.BookingStatusPending}, nil
}

func (f *fakeBookings) GetUserBookings(ctx context.Context, id uuid.UUID) ([]domain.Booking, error) {
	return []domain.Booking{}, nil
}

// newApp simulates a fresh process sharing the persisted token store.
func newApp(backend *fakeBackend, tokens session.TokenStore, bookings *fakeBookings) (*app, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &app{session: session.New(backend, tokens), bookings: bookings, out: out}, out
}

func TestRun_SessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	tokens := session.NewMemoryTokenStore()
	bookings := &fakeBookings{}

	a, out := newApp(backend, tokens, bookings)
	require.NoError(t, a.run(ctx, []string{"login", "-email", "ada@example.com", "-password", "password123"}))
	assert.Contains(t, out.String(), auth.MsgLoginSuccess)

	a, out = newApp(backend, tokens, bookings)
	require.NoError(t, a.run(ctx, []string{"whoami"}))
	assert.Contains(t, out.String(), "ada@example.com")

	a, _ = newApp(backend, tokens, bookings)
	require.NoError(t, a.run(ctx, []string{"book", "-type", "Flights", "-amount", "1500", "-travel-date", "2025-11-02"}))
	require.Len(t, bookings.created, 1)
	assert.Equal(t, backend.user.ID, bookings.created[0].UserID)
	require.NotNil(t, bookings.created[0].TravelDate)

	a, out = newApp(backend, tokens, bookings)
	require.NoError(t, a.run(ctx, []string{"profile", "-first", "Adaeze"}))
	assert.Contains(t, out.String(), "Adaeze")

	a, _ = newApp(backend, tokens, bookings)
	require.NoError(t, a.run(ctx, []string{"logout"}))

	a, _ = newApp(backend, tokens, bookings)
	assert.EqualError(t, a.run(ctx, []string{"whoami"}), "Not authenticated")
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad password", []string{"login", "-email", "ada@example.com", "-password", "nope"}, auth.MsgInvalidCredentials},
		{"password mismatch", []string{"register", "-email", "x@example.com", "-password", "password123", "-confirm", "password321"}, "Passwords do not match."},
		{"book anonymous", []string{"book", "-type", "Visa"}, "Not authenticated"},
		{"bookings anonymous", []string{"bookings"}, "Not authenticated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newApp(newFakeBackend(), session.NewMemoryTokenStore(), &fakeBookings{})
			assert.EqualError(t, a.run(ctx, tt.args), tt.want)
		})
	}

	a, _ := newApp(newFakeBackend(), session.NewMemoryTokenStore(), &fakeBookings{})
	assert.ErrorIs(t, a.run(ctx, nil), errUsage)
	assert.ErrorIs(t, a.run(ctx, []string{"fly"}), errUsage)
}
