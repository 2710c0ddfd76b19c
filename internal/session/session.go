// Package session tracks who is signed in to the site. It keeps the token
// in the store, validates it against the backend (or the mock backend in
// developer mode, or when the backend is down) and tells listeners when the
// signed-in user changes.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/heartofacheron/site/internal/api"
	"github.com/heartofacheron/site/internal/devmode"
	"github.com/heartofacheron/site/internal/logging"
	"github.com/heartofacheron/site/internal/mock"
	"github.com/heartofacheron/site/internal/models"
	"github.com/heartofacheron/site/internal/store"
)

const DefaultProbeTimeout = 2 * time.Second

// Pages that handle sign-in themselves; logging out there does not redirect.
var authPages = []string{"login.html", "register.html"}

// HomePage is where Logout sends the visitor.
const HomePage = "index.html"

// Backend is the part of the API client the manager needs.
type Backend interface {
	Probe(ctx context.Context, timeout time.Duration) bool
	Me(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error)
}

// MockAuth is the developer-mode account service.
type MockAuth interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.User, error)
	Login(ctx context.Context, email, password string) (string, models.User, error)
	CurrentUser(ctx context.Context, token string) (models.User, error)
	Logout(ctx context.Context) error
}

// Manager holds the current user and token. It is driven from one goroutine.
type Manager struct {
	store        store.Store
	flag         *devmode.Flag
	backend      Backend
	mock         MockAuth
	log          logging.Logger
	probeTimeout time.Duration

	token     string
	user      *models.User
	listeners []func(*models.User)
	unsub     func()
}

type Option func(*Manager)

func WithProbeTimeout(d time.Duration) Option {
	return func(m *Manager) { m.probeTimeout = d }
}

func WithLogger(log logging.Logger) Option {
	return func(m *Manager) { m.log = log }
}

func NewManager(s store.Store, flag *devmode.Flag, backend Backend, mockAuth MockAuth, opts ...Option) *Manager {
	m := &Manager{
		store:        s,
		flag:         flag,
		backend:      backend,
		mock:         mockAuth,
		log:          logging.Discard(),
		probeTimeout: DefaultProbeTimeout,
	}
	for _, o := range opts {
		o(m)
	}
	m.unsub = flag.Subscribe(func(bool) {
		// The backend that vouched for the token just changed.
		m.Init(context.Background())
	})
	return m
}

// Close stops following dev-mode changes.
func (m *Manager) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

// OnChange registers fn to run whenever the signed-in user changes. fn
// receives nil after a logout or a failed validation.
func (m *Manager) OnChange(fn func(*models.User)) {
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) setUser(u *models.User) {
	m.user = u
	for _, fn := range m.listeners {
		fn(u)
	}
}

// Init loads the persisted token and validates it. It reports whether a
// user is signed in; failures of any kind mean "not signed in".
func (m *Manager) Init(ctx context.Context) bool {
	token, err := store.GetString(ctx, m.store, store.KeyAuthToken)
	if err != nil {
		m.log.Warn(ctx, "read auth token", "err", err)
		m.setUser(nil)
		return false
	}
	m.token = token
	if token == "" {
		m.setUser(nil)
		return false
	}

	user, ok := m.validate(ctx, token)
	m.setUser(user)
	return ok
}

func (m *Manager) validate(ctx context.Context, token string) (*models.User, bool) {
	if m.flag.IsEnabled(ctx) {
		u, err := m.mock.CurrentUser(ctx, token)
		if err != nil {
			m.log.Info(ctx, "mock session rejected token", "err", err)
			m.clearToken(ctx)
			return nil, false
		}
		return &u, true
	}

	if !m.backend.Probe(ctx, m.probeTimeout) {
		// Backend is down: fall back to the mock session without discarding
		// a token the real backend may still accept later.
		m.log.Warn(ctx, "backend unreachable, validating against mock session")
		u, err := m.mock.CurrentUser(ctx, token)
		if err != nil {
			return nil, false
		}
		return &u, true
	}

	u, err := m.backend.Me(ctx, token)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			// Any answer other than 2xx means the token is not usable.
			m.log.Info(ctx, "backend rejected token", "status", apiErr.Status)
			m.clearToken(ctx)
		} else {
			m.log.Warn(ctx, "checking auth state", "err", err)
		}
		return nil, false
	}
	return u, true
}

func (m *Manager) clearToken(ctx context.Context) {
	m.token = ""
	if err := m.store.Delete(ctx, store.KeyAuthToken); err != nil {
		m.log.Warn(ctx, "clear auth token", "err", err)
	}
}

// SetToken persists token; remember is kept for the "stay signed in" box.
func (m *Manager) SetToken(ctx context.Context, token string, remember bool) error {
	if err := m.store.Set(ctx, store.KeyAuthToken, []byte(token)); err != nil {
		return err
	}
	if remember {
		if err := m.store.Set(ctx, store.KeyRememberMe, []byte("true")); err != nil {
			return err
		}
	}
	m.token = token
	return nil
}

// Login signs in against the mock backend in developer mode and the real
// one otherwise.
func (m *Manager) Login(ctx context.Context, email, password string, remember bool) (*models.User, error) {
	var (
		token string
		user  *models.User
	)
	if m.flag.IsEnabled(ctx) {
		t, u, err := m.mock.Login(ctx, email, password)
		if err != nil {
			return nil, err
		}
		token, user = t, &u
	} else {
		resp, err := m.backend.Login(ctx, email, password)
		if err != nil {
			return nil, err
		}
		if resp.Token == "" || resp.User == nil {
			return nil, errors.New("login response carried no session")
		}
		token, user = resp.Token, resp.User
	}

	if err := m.SetToken(ctx, token, remember); err != nil {
		return nil, err
	}
	m.setUser(user)
	return user, nil
}

// Register creates an account. It does not sign the new user in.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if m.flag.IsEnabled(ctx) {
		u, err := m.mock.Register(ctx, req)
		if err != nil {
			return nil, err
		}
		return &u, nil
	}
	resp, err := m.backend.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Logout clears local session state and returns the page to go to, or ""
// when page already is a sign-in page. The backend is told on a best-effort
// basis.
func (m *Manager) Logout(ctx context.Context, page string) string {
	token := m.Token(ctx)
	if token != "" && !m.flag.IsEnabled(ctx) {
		if err := m.backend.Logout(ctx, token); err != nil {
			m.log.Warn(ctx, "logout error", "err", err)
		}
	}

	for _, k := range []string{store.KeyAuthToken, store.KeyRememberMe} {
		if err := m.store.Delete(ctx, k); err != nil {
			m.log.Warn(ctx, "clear session key", "key", k, "err", err)
		}
	}
	if err := m.mock.Logout(ctx); err != nil {
		m.log.Warn(ctx, "clear mock session", "err", err)
	}
	m.token = ""
	m.setUser(nil)

	for _, p := range authPages {
		if strings.Contains(page, p) {
			return ""
		}
	}
	return HomePage
}

// CurrentUser is the signed-in user, nil when there is none.
func (m *Manager) CurrentUser() *models.User { return m.user }

// Token is the in-memory token, falling back to the persisted one.
func (m *Manager) Token(ctx context.Context) string {
	if m.token != "" {
		return m.token
	}
	t, err := store.GetString(ctx, m.store, store.KeyAuthToken)
	if err != nil {
		return ""
	}
	return t
}

func (m *Manager) IsAuthenticated() bool {
	return m.user != nil && m.token != ""
}

var _ MockAuth = (*mock.Auth)(nil)
var _ Backend = (*api.Client)(nil)
