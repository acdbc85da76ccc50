package booking

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/Domenick1991/rmtravel/internal/repository"
	"github.com/Domenick1991/rmtravel/internal/tracking"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrServiceTypeRequired = errors.New("service type is required")
	ErrNegativeAmount      = errors.New("total amount must not be negative")
	ErrInvalidDetails      = errors.New("service details must be valid JSON")
	ErrDuplicateSubmission = errors.New("booking is already being submitted")
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
}

// SubmitGuard rejects identical submissions that arrive within ttl.
type SubmitGuard interface {
	AcquireSubmit(ctx context.Context, userID uuid.UUID, fingerprint string, ttl time.Duration) (bool, error)
	ReleaseSubmit(ctx context.Context, userID uuid.UUID, fingerprint string) error
}

type BookingService struct {
	bookings repository.BookingRepository
	guard    SubmitGuard
	guardTTL time.Duration
	tracker  tracking.Tracker
	log      *zap.Logger
	tracer   trace.Tracer
}

type CreateBookingInput struct {
	UserID         uuid.UUID       `json:"user_id"`
	ServiceType    string          `json:"service_type"`
	ServiceDetails json.RawMessage `json:"service_details"`
	TotalAmount    float64         `json:"total_amount"`
	Currency       string          `json:"currency"`
	TravelDate     *time.Time      `json:"travel_date"`
}

type BookingServiceOption func(*BookingService)

func WithSubmitGuard(guard SubmitGuard, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.guard = guard
		s.guardTTL = ttl
	}
}

func WithTracker(t tracking.Tracker) BookingServiceOption {
	return func(s *BookingService) {
		s.tracker = t
	}
}

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

func NewBookingService(bookings repository.BookingRepository, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		bookings: bookings,
		tracker:  tracking.Nop{},
		log:      zap.NewNop(),
		tracer:   otel.Tracer("github.com/Domenick1991/rmtravel/internal/service/booking"),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking stores a pending booking. The details payload is opaque and
// kept verbatim.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Create")
	defer span.End()

	serviceType := strings.TrimSpace(input.ServiceType)
	if serviceType == "" {
		return nil, ErrServiceTypeRequired
	}
	if input.TotalAmount < 0 {
		return nil, ErrNegativeAmount
	}
	details := bytes.TrimSpace(input.ServiceDetails)
	if len(details) == 0 || bytes.Equal(details, []byte("null")) {
		details = []byte("{}")
	}
	if !json.Valid(details) {
		return nil, ErrInvalidDetails
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	booking := &domain.Booking{
		UserID:         input.UserID,
		ServiceType:    serviceType,
		ServiceDetails: json.RawMessage(details),
		Status:         domain.BookingStatusPending,
		TotalAmount:    input.TotalAmount,
		Currency:       currency,
		PaymentStatus:  domain.PaymentStatusPending,
		TravelDate:     input.TravelDate,
	}

	fingerprint := ""
	if s.guard != nil && s.guardTTL > 0 {
		fingerprint = submissionFingerprint(booking)
		ok, err := s.guard.AcquireSubmit(ctx, input.UserID, fingerprint, s.guardTTL)
		switch {
		case err != nil:
			s.log.Warn("submit guard unavailable", zap.Error(err))
			fingerprint = ""
		case !ok:
			return nil, ErrDuplicateSubmission
		}
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		if fingerprint != "" {
			_ = s.guard.ReleaseSubmit(ctx, input.UserID, fingerprint)
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	span.SetAttributes(attribute.String("booking.id", booking.ID.String()))
	s.tracker.Track(ctx, tracking.Event{
		Action:   tracking.ActionBookingCreated,
		Category: tracking.CategoryBookings,
		Label:    booking.ServiceType,
		Value:    booking.TotalAmount,
		UserID:   booking.UserID.String(),
	})
	return booking, nil
}

// GetUserBookings lists most recent first. No bookings is an empty slice.
func (s *BookingService) GetUserBookings(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.ListByUser")
	defer span.End()

	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, nil
}

func submissionFingerprint(b *domain.Booking) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%.2f|", b.ServiceType, b.Currency, b.TotalAmount)
	h.Write(b.ServiceDetails)
	if b.TravelDate != nil {
		h.Write([]byte(b.TravelDate.UTC().Format(time.DateOnly)))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

var _ BookingUseCase = (*BookingService)(nil)
