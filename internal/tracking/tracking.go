// Package tracking forwards analytics events to a sink without ever failing
// the caller.
package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/rmtravel/internal/kafka"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

const (
	ActionUserRegistration = "user_registration"
	ActionUserLogin        = "user_login"
	ActionGoogleSignup     = "google_signup"
	ActionGoogleLogin      = "google_login"
	ActionUserLogout       = "user_logout"
	ActionBookingCreated   = "booking_created"
	ActionSessionRestored  = "session_restored"
	ActionLoginSuccess     = "user_login_success"
	ActionLoginFailed      = "user_login_failed"
	ActionProfileUpdated   = "profile_updated"

	CategoryAuthentication = "Authentication"
	CategoryBookings       = "Bookings"
	CategoryProfile        = "Profile"
)

type Event struct {
	Action   string
	Category string
	Label    string
	Value    float64
	UserID   string
	Email    string
}

// Tracker records an event. Implementations must not block the caller on
// sink failures.
type Tracker interface {
	Track(ctx context.Context, ev Event)
}

type Publisher interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

const (
	DefaultBufferSize = 256
	defaultTimeout    = 5 * time.Second
	defaultRetries    = 3
)

// KafkaTracker queues events on a bounded buffer drained by one background
// goroutine. Track never waits on the broker; a full buffer drops the event.
type KafkaTracker struct {
	publisher Publisher
	topic     string
	log       *zap.Logger
	timeout   time.Duration
	retries   int
	now       func() time.Time

	events    chan kafka.TrackingEvent
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

type KafkaTrackerOption func(*KafkaTracker)

func WithBufferSize(n int) KafkaTrackerOption {
	return func(t *KafkaTracker) {
		if n > 0 {
			t.events = make(chan kafka.TrackingEvent, n)
		}
	}
}

// WithDelivery bounds each event's publish attempts and their total time.
func WithDelivery(timeout time.Duration, retries int) KafkaTrackerOption {
	return func(t *KafkaTracker) {
		t.timeout = timeout
		t.retries = retries
	}
}

func NewKafkaTracker(publisher Publisher, topic string, log *zap.Logger, opts ...KafkaTrackerOption) *KafkaTracker {
	if log == nil {
		log = zap.NewNop()
	}
	t := &KafkaTracker{
		publisher: publisher,
		topic:     topic,
		log:       log,
		timeout:   defaultTimeout,
		retries:   defaultRetries,
		now:       time.Now,
		events:    make(chan kafka.TrackingEvent, DefaultBufferSize),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	go t.run()
	return t
}

func (t *KafkaTracker) Track(ctx context.Context, ev Event) {
	if t == nil || t.publisher == nil || t.topic == "" {
		return
	}

	msg := kafka.TrackingEvent{
		ID:         ksuid.New().String(),
		Action:     ev.Action,
		Category:   ev.Category,
		Label:      ev.Label,
		Value:      ev.Value,
		UserID:     ev.UserID,
		Email:      ev.Email,
		OccurredAt: t.now().UTC(),
	}

	select {
	case <-t.done:
		t.log.Warn("tracking event dropped, tracker closed", zap.String("action", ev.Action))
		return
	default:
	}

	select {
	case t.events <- msg:
	default:
		t.log.Warn("tracking event dropped, buffer full", zap.String("action", ev.Action))
	}
}

// Close stops accepting events and waits until the buffered ones are sent.
func (t *KafkaTracker) Close() error {
	if t == nil {
		return nil
	}
	t.closeOnce.Do(func() { close(t.done) })
	<-t.stopped
	return nil
}

func (t *KafkaTracker) run() {
	defer close(t.stopped)
	for {
		select {
		case msg := <-t.events:
			t.deliver(msg)
		case <-t.done:
			for {
				select {
				case msg := <-t.events:
					t.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (t *KafkaTracker) deliver(msg kafka.TrackingEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	key := msg.UserID
	if key == "" {
		key = msg.ID
	}
	if err := t.publisher.PublishWithRetry(ctx, t.topic, key, msg, t.retries); err != nil {
		t.log.Warn("tracking event dropped", zap.String("action", msg.Action), zap.String("id", msg.ID), zap.Error(err))
	}
}

type Nop struct{}

func (Nop) Track(context.Context, Event) {}

var (
	_ Tracker = (*KafkaTracker)(nil)
	_ Tracker = Nop{}
)
