package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/heartofacheron/site/internal/logging"
	"github.com/heartofacheron/site/internal/middleware"
	"github.com/heartofacheron/site/internal/mock"
	"github.com/heartofacheron/site/internal/models"
	"github.com/heartofacheron/site/internal/respond"
)

// Accounts is the account and session backend the handlers serve.
type Accounts interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.User, error)
	Login(ctx context.Context, email, password string) (string, models.User, error)
	CurrentUser(ctx context.Context, token string) (models.User, error)
	Logout(ctx context.Context) error
}

var _ Accounts = (*mock.Auth)(nil)

// Handler holds auth-related HTTP handlers.
type Handler struct {
	accounts Accounts
	log      logging.Logger
}

func NewHandler(accounts Accounts, log logging.Logger) *Handler {
	return &Handler{accounts: accounts, log: log}
}

// Register creates a new account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	user, err := h.accounts.Register(r.Context(), req)
	switch {
	case errors.Is(err, mock.ErrValidation):
		respond.Error(w, http.StatusBadRequest, "email, password and characterName are required")
		return
	case errors.Is(err, mock.ErrDuplicateEmail):
		respond.Error(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.log.Error(r.Context(), "register", "err", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond.JSON(w, http.StatusCreated, models.AuthResponse{Success: true, User: &user})
}

// Login checks the credentials and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	token, user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, mock.ErrInvalidCredentials) {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.log.Error(r.Context(), "login", "err", err)
		respond.Error(w, http.StatusInternalServerError, "session creation failed")
		return
	}

	respond.JSON(w, http.StatusOK, models.AuthResponse{Success: true, Token: token, User: &user})
}

// Logout destroys the current session. It succeeds without a session too.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.BearerToken(r); token != "" {
		if _, err := h.accounts.CurrentUser(r.Context(), token); err == nil {
			if err := h.accounts.Logout(r.Context()); err != nil {
				h.log.Warn(r.Context(), "logout", "err", err)
			}
		}
	}
	respond.OK(w, http.StatusOK, map[string]any{"message": "logged out"})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.User(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	respond.JSON(w, http.StatusOK, models.AuthResponse{Success: true, User: &user})
}
