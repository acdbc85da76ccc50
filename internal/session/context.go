package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/Domenick1991/rmtravel/internal/service/auth"
	"github.com/Domenick1991/rmtravel/internal/tracking"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type State int

const (
	StateUnknown State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Backend is the credential store the context dispatches to. Every call
// already returns a normalised result.
type Backend interface {
	Register(ctx context.Context, input auth.RegisterInput) domain.AuthResponse
	Login(ctx context.Context, email, password string) domain.AuthResponse
	LoginWithGoogle(ctx context.Context, profile auth.GoogleProfile) domain.AuthResponse
	ValidateSession(ctx context.Context, token string) *domain.User
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd domain.ProfileUpdate) bool
	Logout(ctx context.Context, userID uuid.UUID, token string)
	GetUserByID(ctx context.Context, userID uuid.UUID) *domain.User
}

// Snapshot is what subscribers render from.
type Snapshot struct {
	State           State
	User            *domain.User
	IsAuthenticated bool
	IsLoading       bool
	IsSubmitting    bool
}

// Context holds who is logged in for the life of the application. Restore
// runs once at startup; later operations only toggle the submitting flag.
type Context struct {
	backend Backend
	tokens  TokenStore
	tracker tracking.Tracker
	log     *zap.Logger

	mu          sync.Mutex
	state       State
	user        *domain.User
	token       string
	submitting  bool
	subscribers []func(Snapshot)
}

type Option func(*Context)

func WithTracker(t tracking.Tracker) Option {
	return func(c *Context) {
		c.tracker = t
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Context) {
		c.log = log
	}
}

func New(backend Backend, tokens TokenStore, opts ...Option) *Context {
	c := &Context{
		backend: backend,
		tokens:  tokens,
		tracker: tracking.Nop{},
		log:     zap.NewNop(),
		state:   StateUnknown,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Context) State() State {
	return c.Snapshot().State
}

func (c *Context) User() *domain.User {
	return c.Snapshot().User
}

func (c *Context) IsAuthenticated() bool {
	return c.Snapshot().IsAuthenticated
}

func (c *Context) IsLoading() bool {
	return c.Snapshot().IsLoading
}

func (c *Context) IsSubmitting() bool {
	return c.Snapshot().IsSubmitting
}

func (c *Context) snapshotLocked() Snapshot {
	var user *domain.User
	if c.user != nil {
		u := *c.user
		user = &u
	}
	return Snapshot{
		State:           c.state,
		User:            user,
		IsAuthenticated: c.state == StateAuthenticated && c.user != nil,
		IsLoading:       c.state == StateLoading,
		IsSubmitting:    c.submitting,
	}
}

// update mutates state under the lock and notifies subscribers outside it.
func (c *Context) update(fn func()) {
	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	subs := append(([]func(Snapshot))(nil), c.subscribers...)
	c.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

// Restore resolves the persisted token into a user. It only acts from
// Unknown and always settles in Authenticated or Anonymous, even if the
// backend panics.
func (c *Context) Restore(ctx context.Context) (err error) {
	c.mu.Lock()
	if c.state != StateUnknown {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	c.update(func() { c.state = StateLoading })

	settled := false
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("restore session: %v", r)
		}
		if !settled {
			c.clearPersisted(ctx)
			c.update(func() {
				c.state = StateAnonymous
				c.user = nil
				c.token = ""
			})
		}
	}()

	token, userID, ok, err := c.tokens.Load(ctx)
	if err != nil {
		c.log.Warn("load persisted token", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	user := c.backend.ValidateSession(ctx, token)
	if user == nil {
		return nil
	}
	if user.ID != userID {
		c.log.Warn("persisted user id does not match session owner",
			zap.Stringer("persisted", userID), zap.Stringer("owner", user.ID))
		return nil
	}

	settled = true
	c.update(func() {
		c.state = StateAuthenticated
		c.user = user
		c.token = token
	})
	c.tracker.Track(ctx, tracking.Event{
		Action:   tracking.ActionSessionRestored,
		Category: tracking.CategoryAuthentication,
		Label:    "Auto Login",
		UserID:   user.ID.String(),
	})
	return nil
}

func (c *Context) Login(ctx context.Context, email, password string) domain.AuthResponse {
	resp := c.submit(ctx, func() domain.AuthResponse {
		return c.backend.Login(ctx, email, password)
	})

	ev := tracking.Event{Category: tracking.CategoryAuthentication}
	if resp.Success && resp.User != nil {
		ev.Action, ev.Label, ev.UserID = tracking.ActionLoginSuccess, "Login Success", resp.User.ID.String()
	} else {
		ev.Action, ev.Label = tracking.ActionLoginFailed, "Login Failed"
	}
	c.tracker.Track(ctx, ev)
	return resp
}

func (c *Context) Register(ctx context.Context, input auth.RegisterInput) domain.AuthResponse {
	return c.submit(ctx, func() domain.AuthResponse {
		return c.backend.Register(ctx, input)
	})
}

func (c *Context) LoginWithGoogle(ctx context.Context, profile auth.GoogleProfile) domain.AuthResponse {
	return c.submit(ctx, func() domain.AuthResponse {
		return c.backend.LoginWithGoogle(ctx, profile)
	})
}

// submit runs an authenticating call with the submitting flag raised and
// adopts its session on success.
func (c *Context) submit(ctx context.Context, call func() domain.AuthResponse) domain.AuthResponse {
	c.update(func() { c.submitting = true })
	resp := call()

	if resp.Success && resp.User != nil {
		if err := c.tokens.Save(ctx, resp.Token, resp.User.ID); err != nil {
			c.log.Warn("persist token", zap.Error(err))
		}
	}
	c.update(func() {
		c.submitting = false
		if resp.Success && resp.User != nil {
			u := *resp.User
			c.user = &u
			c.token = resp.Token
			c.state = StateAuthenticated
		}
	})
	return resp
}

func (c *Context) Logout(ctx context.Context) {
	c.mu.Lock()
	user, token := c.user, c.token
	c.mu.Unlock()

	if user != nil {
		c.backend.Logout(ctx, user.ID, token)
	}
	c.clearPersisted(ctx)
	c.update(func() {
		c.user = nil
		c.token = ""
		c.state = StateAnonymous
	})
}

// UpdateProfile forwards to the backend and re-reads the user on success.
func (c *Context) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) bool {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()
	if user == nil {
		return false
	}

	c.update(func() { c.submitting = true })
	ok := c.backend.UpdateProfile(ctx, user.ID, upd)
	c.update(func() { c.submitting = false })
	if !ok {
		return false
	}

	// Apply locally first so a failed re-read still shows the accepted edit.
	c.update(func() {
		if c.user != nil && c.user.ID == user.ID {
			u := *c.user
			upd.Apply(&u)
			c.user = &u
		}
	})
	c.tracker.Track(ctx, tracking.Event{
		Action:   tracking.ActionProfileUpdated,
		Category: tracking.CategoryProfile,
		UserID:   user.ID.String(),
	})
	c.RefreshUser(ctx)
	return true
}

// RefreshUser replaces the local user with the store's canonical record.
func (c *Context) RefreshUser(ctx context.Context) {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()
	if user == nil {
		return
	}

	fresh := c.backend.GetUserByID(ctx, user.ID)
	if fresh == nil {
		return
	}
	c.update(func() {
		if c.user != nil && c.user.ID == fresh.ID {
			c.user = fresh
		}
	})
}

// Token returns the current bearer token, empty when anonymous.
func (c *Context) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Context) clearPersisted(ctx context.Context) {
	if err := c.tokens.Clear(ctx); err != nil {
		c.log.Warn("clear persisted token", zap.Error(err))
	}
}
