package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/heartofacheron/site/internal/models"
	"github.com/heartofacheron/site/internal/store"
)

// Auth registers users and issues opaque bearer tokens.
type Auth struct {
	st *state
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Auth) users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if _, err := store.LoadJSON(ctx, a.st.store, store.KeyMockUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Register appends a user. The returned copy carries no password.
func (a *Auth) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" || strings.TrimSpace(req.CharacterName) == "" {
		return models.User{}, ErrValidation
	}

	a.st.mu.Lock()
	defer a.st.mu.Unlock()

	users, err := a.users(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if normalizeEmail(u.Email) == email {
			return models.User{}, ErrDuplicateEmail
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		UserID: a.st.newID("mock_user_", func(id string) bool {
			for _, u := range users {
				if u.UserID == id {
					return true
				}
			}
			return false
		}),
		Email:         email,
		Password:      string(hashed),
		CharacterName: strings.TrimSpace(req.CharacterName),
		SteamID:       strings.TrimSpace(req.SteamID),
		DisplayName:   strings.TrimSpace(req.DisplayName),
		CreatedAt:     a.st.now().UTC(),
	}
	users = append(users, user)
	if err := store.SaveJSON(ctx, a.st.store, store.KeyMockUsers, users); err != nil {
		return models.User{}, err
	}
	a.st.log.Info(ctx, "mock user registered", "user_id", user.UserID)
	return user.Sanitized(), nil
}

// Login checks the credentials and replaces the single mock session with a
// fresh token.
func (a *Auth) Login(ctx context.Context, email, password string) (string, models.User, error) {
	a.st.mu.Lock()
	defer a.st.mu.Unlock()

	users, err := a.users(ctx)
	if err != nil {
		return "", models.User{}, err
	}

	email = normalizeEmail(email)
	for i, u := range users {
		if normalizeEmail(u.Email) != email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
			continue
		}

		token := fmt.Sprintf("mock_token_%d_%s", a.st.now().UnixMilli(), uuid.NewString()[:8])
		sess := models.Session{Token: token, UserID: u.UserID, Email: u.Email}
		if err := store.SaveJSON(ctx, a.st.store, store.KeyMockSession, sess); err != nil {
			return "", models.User{}, err
		}

		users[i].LastLogin = a.st.now().UTC()
		if err := store.SaveJSON(ctx, a.st.store, store.KeyMockUsers, users); err != nil {
			return "", models.User{}, err
		}
		return token, users[i].Sanitized(), nil
	}
	return "", models.User{}, ErrInvalidCredentials
}

// CurrentUser resolves token to its user. Any mismatch is ErrNoUser.
func (a *Auth) CurrentUser(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrNoUser
	}

	a.st.mu.Lock()
	defer a.st.mu.Unlock()

	var sess models.Session
	found, err := store.LoadJSON(ctx, a.st.store, store.KeyMockSession, &sess)
	if err != nil {
		return models.User{}, err
	}
	if !found || sess.Token != token {
		return models.User{}, ErrNoUser
	}

	users, err := a.users(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.UserID == sess.UserID {
			return u.Sanitized(), nil
		}
	}
	return models.User{}, ErrNoUser
}

// Logout drops the mock session.
func (a *Auth) Logout(ctx context.Context) error {
	a.st.mu.Lock()
	defer a.st.mu.Unlock()
	return a.st.store.Delete(ctx, store.KeyMockSession)
}

// UserProfile is the fixed developer profile shown on the account page.
func (a *Auth) UserProfile() models.User {
	now := a.st.now().UTC()
	return models.User{
		UserID:        DevUserID,
		Email:         DevEmail,
		CharacterName: DevCharacterName,
		SteamID:       DevSteamID,
		DisplayName:   DevDisplayName,
		EmailVerified: true,
		CreatedAt:     now.Add(-30 * 24 * time.Hour),
		LastLogin:     now,
	}
}
