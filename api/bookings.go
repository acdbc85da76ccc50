package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/Domenick1991/rmtravel/internal/service/booking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service booking.BookingUseCase
	log     *zap.Logger
}

type createBookingRequest struct {
	ServiceType    string          `json:"service_type"`
	ServiceDetails json.RawMessage `json:"service_details"`
	TotalAmount    float64         `json:"total_amount"`
	Currency       string          `json:"currency"`
	TravelDate     string          `json:"travel_date"`
}

type bookingResponse struct {
	ID             string          `json:"id"`
	ServiceType    string          `json:"service_type"`
	ServiceDetails json.RawMessage `json:"service_details"`
	Status         string          `json:"status"`
	TotalAmount    float64         `json:"total_amount"`
	Currency       string          `json:"currency"`
	PaymentStatus  string          `json:"payment_status"`
	BookingDate    string          `json:"booking_date"`
	TravelDate     *string         `json:"travel_date,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

func NewBookingHandler(service booking.BookingUseCase, log *zap.Logger) *BookingHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingHandler{service: service, log: log}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
}

func (h *BookingHandler) create(c *gin.Context) {
	user, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": MsgNotAuthenticated})
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := booking.CreateBookingInput{
		UserID:         user.ID,
		ServiceType:    req.ServiceType,
		ServiceDetails: req.ServiceDetails,
		TotalAmount:    req.TotalAmount,
		Currency:       req.Currency,
	}
	if req.TravelDate != "" {
		travel, err := time.Parse(time.DateOnly, req.TravelDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "travel_date must be YYYY-MM-DD"})
			return
		}
		input.TravelDate = &travel
	}

	b, err := h.service.CreateBooking(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrServiceTypeRequired),
			errors.Is(err, booking.ErrNegativeAmount),
			errors.Is(err, booking.ErrInvalidDetails):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, booking.ErrDuplicateSubmission):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.log.Error("create booking", zap.String("user_id", user.ID.String()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create booking"})
		}
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(*b))
}

func (h *BookingHandler) list(c *gin.Context) {
	user, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": MsgNotAuthenticated})
		return
	}

	bookings, err := h.service.GetUserBookings(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error("list bookings", zap.String("user_id", user.ID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load bookings"})
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, toBookingResponse(b))
	}
	c.JSON(http.StatusOK, resp)
}

func toBookingResponse(b domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:             b.ID.String(),
		ServiceType:    b.ServiceType,
		ServiceDetails: b.ServiceDetails,
		Status:         string(b.Status),
		TotalAmount:    b.TotalAmount,
		Currency:       b.Currency,
		PaymentStatus:  string(b.PaymentStatus),
		BookingDate:    b.BookingDate.Format(time.RFC3339),
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
	}
	if b.TravelDate != nil {
		travel := b.TravelDate.Format(time.DateOnly)
		resp.TravelDate = &travel
	}
	return resp
}
