package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/heartofacheron/site/internal/models"
)

// Register calls POST /api/auth/register.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register", "", req, &out)
	return out, err
}

// Login calls POST /api/auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "",
		models.LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

// Me calls GET /api/auth/me.
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.User == nil {
		return nil, fmt.Errorf("GET /api/auth/me: no user in response")
	}
	return out.User, nil
}

// Logout calls POST /api/auth/logout.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, struct{}{}, nil)
}
