package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// listBookingsQuery returns newest first. Rows inserted in the same
// transaction share created_at, so booking_date breaks the tie.
const listBookingsQuery = `SELECT id, user_id, service_type, service_details, status, total_amount, currency,
		payment_status, booking_date, travel_date, created_at, updated_at
		FROM bookings WHERE user_id=$1 ORDER BY created_at DESC, booking_date DESC`

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings
		(user_id, service_type, service_details, status, total_amount, currency, payment_status, travel_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, booking_date, created_at, updated_at`,
		b.UserID, b.ServiceType, b.ServiceDetails, b.Status, b.TotalAmount, b.Currency, b.PaymentStatus, b.TravelDate).
		Scan(&b.ID, &b.BookingDate, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, listBookingsQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.ServiceType, &b.ServiceDetails, &b.Status, &b.TotalAmount, &b.Currency,
			&b.PaymentStatus, &b.BookingDate, &b.TravelDate, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
