package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

const DefaultCurrency = "NGN"

type Booking struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"userId"`
	ServiceType    string          `json:"serviceType"`
	ServiceDetails json.RawMessage `json:"serviceDetails"`
	Status         BookingStatus   `json:"status"`
	TotalAmount    float64         `json:"totalAmount"`
	Currency       string          `json:"currency"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	BookingDate    time.Time       `json:"bookingDate"`
	TravelDate     *time.Time      `json:"travelDate,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
