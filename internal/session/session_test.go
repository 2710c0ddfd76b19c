package session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartofacheron/site/internal/api"
	"github.com/heartofacheron/site/internal/devmode"
	"github.com/heartofacheron/site/internal/logging"
	"github.com/heartofacheron/site/internal/mock"
	"github.com/heartofacheron/site/internal/models"
	"github.com/heartofacheron/site/internal/store"
)

// fakeBackend records calls and returns canned answers.
type fakeBackend struct {
	up        bool
	meUser    *models.User
	meErr     error
	logoutErr error
	loginResp models.AuthResponse
	loginErr  error

	meCalls     int
	logoutCalls []string
}

func (f *fakeBackend) Probe(context.Context, time.Duration) bool { return f.up }

func (f *fakeBackend) Me(_ context.Context, token string) (*models.User, error) {
	f.meCalls++
	return f.meUser, f.meErr
}

func (f *fakeBackend) Logout(_ context.Context, token string) error {
	f.logoutCalls = append(f.logoutCalls, token)
	return f.logoutErr
}

func (f *fakeBackend) Login(context.Context, string, string) (models.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeBackend) Register(_ context.Context, req models.RegisterRequest) (models.AuthResponse, error) {
	return models.AuthResponse{Success: true, User: &models.User{Email: req.Email}}, nil
}

type fixture struct {
	store   store.Store
	flag    *devmode.Flag
	backend *fakeBackend
	mock    *mock.Backend
	mgr     *Manager
}

func newFixture(t *testing.T, dev bool) *fixture {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	if dev {
		require.NoError(t, s.Set(ctx, store.KeyDevModeEnabled, []byte("true")))
	}
	flag, err := devmode.Load(ctx, s, logging.Discard())
	require.NoError(t, err)
	b := &fakeBackend{up: true}
	m := mock.New(s)
	mgr := NewManager(s, flag, b, m.Auth)
	t.Cleanup(mgr.Close)
	return &fixture{store: s, flag: flag, backend: b, mock: m, mgr: mgr}
}

func (f *fixture) mockLogin(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	_, err := f.mock.Auth.Register(ctx, models.RegisterRequest{Email: "hero@example.com", Password: "pw", CharacterName: "Hero1"})
	require.NoError(t, err)
	token, _, err := f.mock.Auth.Login(ctx, "hero@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, f.store.Set(ctx, store.KeyAuthToken, []byte(token)))
	return token
}

func TestInit_NoToken(t *testing.T) {
	f := newFixture(t, false)
	assert.False(t, f.mgr.Init(context.Background()))
	assert.False(t, f.mgr.IsAuthenticated())
	assert.Zero(t, f.backend.meCalls)
}

func TestInit_DevModeUsesMockSession(t *testing.T) {
	f := newFixture(t, true)
	f.mockLogin(t)

	require.True(t, f.mgr.Init(context.Background()))
	assert.True(t, f.mgr.IsAuthenticated())
	assert.Equal(t, "Hero1", f.mgr.CurrentUser().CharacterName)
	assert.Zero(t, f.backend.meCalls)
}

func TestInit_DevModeUnknownTokenIsCleared(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	require.NoError(t, f.store.Set(ctx, store.KeyAuthToken, []byte("stale")))

	assert.False(t, f.mgr.Init(ctx))
	tok, _ := store.GetString(ctx, f.store, store.KeyAuthToken)
	assert.Empty(t, tok)
}

func TestInit_RealBackend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.store.Set(ctx, store.KeyAuthToken, []byte("real")))
	f.backend.meUser = &models.User{UserID: "u1", DisplayName: "Real"}

	require.True(t, f.mgr.Init(ctx))
	assert.Equal(t, "Real", f.mgr.CurrentUser().Label())
	assert.Equal(t, 1, f.backend.meCalls)
}

func TestInit_RealBackendRejectsToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.store.Set(ctx, store.KeyAuthToken, []byte("expired")))
	f.backend.meErr = &api.Error{Status: http.StatusUnauthorized, Message: "invalid token"}

	assert.False(t, f.mgr.Init(ctx))
	tok, _ := store.GetString(ctx, f.store, store.KeyAuthToken)
	assert.Empty(t, tok)
}

func TestInit_ServerErrorClearsToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.store.Set(ctx, store.KeyAuthToken, []byte("real")))
	f.backend.meErr = &api.Error{Status: http.StatusInternalServerError, Message: "database down"}

	assert.False(t, f.mgr.Init(ctx))
	tok, _ := store.GetString(ctx, f.store, store.KeyAuthToken)
	assert.Empty(t, tok)
}

func TestInit_NetworkErrorMeansSignedOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.store.Set(ctx, store.KeyAuthToken, []byte("real")))
	f.backend.meErr = errors.Join(api.ErrUnavailable, errors.New("connection reset"))

	assert.False(t, f.mgr.Init(ctx))
	tok, _ := store.GetString(ctx, f.store, store.KeyAuthToken)
	assert.Equal(t, "real", tok)
}

func TestInit_BackendDownFallsBackToMock(t *testing.T) {
	f := newFixture(t, false)
	f.backend.up = false
	f.mockLogin(t)

	require.True(t, f.mgr.Init(context.Background()))
	assert.Equal(t, "hero@example.com", f.mgr.CurrentUser().Email)
	assert.Zero(t, f.backend.meCalls)
}

func TestLogin_DevMode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	_, err := f.mgr.Register(ctx, models.RegisterRequest{Email: "a@b.c", Password: "pw", CharacterName: "Ann"})
	require.NoError(t, err)

	var seen []*models.User
	f.mgr.OnChange(func(u *models.User) { seen = append(seen, u) })

	u, err := f.mgr.Login(ctx, "a@b.c", "pw", true)
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.CharacterName)
	assert.True(t, f.mgr.IsAuthenticated())
	remember, _ := store.GetString(ctx, f.store, store.KeyRememberMe)
	assert.Equal(t, "true", remember)
	require.Len(t, seen, 1)

	_, err = f.mgr.Login(ctx, "a@b.c", "nope", false)
	require.ErrorIs(t, err, mock.ErrInvalidCredentials)
}

func TestLogin_RealBackend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.backend.loginResp = models.AuthResponse{Success: true, Token: "jwt", User: &models.User{UserID: "u9"}}

	u, err := f.mgr.Login(ctx, "a@b.c", "pw", false)
	require.NoError(t, err)
	assert.Equal(t, "u9", u.UserID)
	assert.Equal(t, "jwt", f.mgr.Token(ctx))
}

func TestLogout_NotifiesBackendAndRedirects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.mgr.SetToken(ctx, "real", true))
	f.backend.logoutErr = errors.New("boom")

	var last *models.User = &models.User{}
	f.mgr.OnChange(func(u *models.User) { last = u })

	assert.Equal(t, HomePage, f.mgr.Logout(ctx, "/shop.html"))
	assert.Equal(t, []string{"real"}, f.backend.logoutCalls)
	assert.Nil(t, last)
	assert.False(t, f.mgr.IsAuthenticated())
	for _, k := range []string{store.KeyAuthToken, store.KeyRememberMe} {
		v, _ := store.GetString(ctx, f.store, k)
		assert.Empty(t, v, k)
	}
}

func TestLogout_OnAuthPageStays(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	token := f.mockLogin(t)
	require.True(t, f.mgr.Init(ctx))

	assert.Equal(t, "", f.mgr.Logout(ctx, "/login.html"))
	assert.Empty(t, f.backend.logoutCalls)

	_, err := f.mock.Auth.CurrentUser(ctx, token)
	require.ErrorIs(t, err, mock.ErrNoUser)
}

func TestDevModeToggleRevalidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.mockLogin(t)
	f.backend.meErr = &api.Error{Status: http.StatusUnauthorized}

	require.NoError(t, f.flag.Set(ctx, true))
	assert.True(t, f.mgr.IsAuthenticated())
	assert.Zero(t, f.backend.meCalls)
}
