// Package api is the client for the site backend's JSON API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartofacheron/site/internal/models"
)

// ErrUnavailable wraps every transport failure: the backend could not be
// reached or did not answer in time.
var ErrUnavailable = errors.New("backend unavailable")

// RequestIDHeader carries a fresh id on every call so client and server
// logs can be matched up.
const RequestIDHeader = "X-Request-Id"

// Error is a non-2xx answer. Message comes from the {"error": "..."} body
// when the backend sent one.
type Error struct {
	Method    string
	Path      string
	Status    int
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 or 403 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
	}
	return false
}

// Client calls the site backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithHTTP lets tests and callers supply their own transport.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

func (c *Client) BaseURL() string { return c.baseURL }

// checkResp returns an *Error when the status is not 2xx.
func checkResp(resp *http.Response, method, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(body))
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
		msg = parsed.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &Error{Method: method, Path: path, Status: resp.StatusCode, Message: msg}
}

// do sends body (if any) as JSON with an optional bearer token and decodes
// the answer into out (if any).
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkResp(resp, method, path); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			apiErr.RequestID = reqID
		}
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

// Probe reports whether GET /health answers within timeout.
func (c *Client) Probe(ctx context.Context, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Health(ctx) == nil
}

// Contact calls POST /api/contact after checking the required fields.
func (c *Client) Contact(ctx context.Context, req models.ContactRequest) error {
	req, err := NormalizeContact(req)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/contact", "", req, nil)
}

// ErrContactIncomplete is returned when name, email or message is blank.
var ErrContactIncomplete = errors.New("please fill in all required fields")

// NormalizeContact trims the form and defaults the subject.
func NormalizeContact(req models.ContactRequest) (models.ContactRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Message == "" {
		return req, ErrContactIncomplete
	}
	if req.Subject == "" {
		req.Subject = "No subject"
	}
	return req, nil
}

func escape(id string) string { return url.PathEscape(id) }
