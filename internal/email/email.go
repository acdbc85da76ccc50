package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/rmtravel/internal/kafka"
	"github.com/Domenick1991/rmtravel/internal/tracking"
	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender turns tracking events into customer notifications. Delivery is a
// structured log line until a mail relay is configured.
type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{log: log}
}

// Compose picks the notification for an event. Events that don't warrant
// one return false.
func Compose(event kafka.TrackingEvent) (Message, bool) {
	switch event.Action {
	case tracking.ActionUserRegistration, tracking.ActionGoogleSignup:
		if event.Email == "" {
			return Message{}, false
		}
		return Message{
			To:      event.Email,
			Subject: "Welcome to RM Groups",
			Body:    "Your account is ready. Start planning your next trip.",
		}, true
	case tracking.ActionBookingCreated:
		if event.Email == "" && event.UserID == "" {
			return Message{}, false
		}
		to := event.Email
		if to == "" {
			to = "user:" + event.UserID
		}
		return Message{
			To:      to,
			Subject: fmt.Sprintf("We received your %s booking", event.Label),
			Body:    fmt.Sprintf("Your %s booking for %.2f is pending confirmation.", event.Label, event.Value),
		}, true
	default:
		return Message{}, false
	}
}

func (s *Sender) Send(ctx context.Context, event kafka.TrackingEvent) error {
	msg, ok := Compose(event)
	if !ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info("send email",
		zap.String("event_id", event.ID),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
