// Package mock is the developer-mode backend: users, sessions, orders and
// forum data kept in the local store under the same keys the site uses.
//
// It is a simulation. Tokens are not cryptographically strong, sessions
// never expire and only one session exists at a time. Never serve it from a
// production build.
package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/heartofacheron/site/internal/logging"
	"github.com/heartofacheron/site/internal/store"
)

var (
	ErrDuplicateEmail     = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoUser             = errors.New("no user for token")
	ErrValidation         = errors.New("missing required field")
	ErrNotFound           = errors.New("not found")
	ErrUnsupported        = errors.New("not supported in developer mode")
)

// The fixed developer identity every seeded record and every mock-created
// topic or post is attributed to.
const (
	DevUserID        = "mock_user_12345"
	DevEmail         = "developer@example.com"
	DevCharacterName = "TestCharacter"
	DevDisplayName   = "Test Player"
	DevSteamID       = "76561198000000000"
)

// state is shared by the services so that every read-modify-write of the
// store happens under one lock.
type state struct {
	store store.Store
	log   logging.Logger
	now   func() time.Time
	mu    sync.Mutex
}

// Backend bundles the mock services over one store.
type Backend struct {
	Auth     *Auth
	Commerce *Commerce
	Forum    *Forum

	st *state
}

type Option func(*state)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *state) { s.now = now }
}

// WithLogger sets the logger. The default drops everything.
func WithLogger(log logging.Logger) Option {
	return func(s *state) { s.log = log }
}

func New(s store.Store, opts ...Option) *Backend {
	st := &state{store: s, log: logging.Discard(), now: time.Now}
	for _, o := range opts {
		o(st)
	}
	return &Backend{
		Auth:     &Auth{st: st},
		Commerce: &Commerce{st: st},
		Forum:    &Forum{st: st},
		st:       st,
	}
}

// Clear removes every mock record. The auth token and dev-mode flag stay.
func (b *Backend) Clear(ctx context.Context) error {
	b.st.mu.Lock()
	defer b.st.mu.Unlock()

	keys := []string{store.KeyMockOrders, store.KeyMockUsers, store.KeyMockSession}
	for _, prefix := range []string{store.PrefixForumTopics, store.PrefixForumPosts} {
		found, err := b.st.store.Keys(ctx, prefix)
		if err != nil {
			return fmt.Errorf("list %s keys: %w", prefix, err)
		}
		keys = append(keys, found...)
	}
	for _, k := range keys {
		if err := b.st.store.Delete(ctx, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	b.st.log.Info(ctx, "all mock data cleared", "keys", len(keys))
	return nil
}

// newID builds "<prefix><unix millis>", adding a counter when that id is
// already taken so two records created in the same millisecond stay distinct.
func (s *state) newID(prefix string, taken func(string) bool) string {
	id := fmt.Sprintf("%s%d", prefix, s.now().UnixMilli())
	if !taken(id) {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", id, n)
		if !taken(candidate) {
			return candidate
		}
	}
}

func ptr[T any](v T) *T { return &v }
