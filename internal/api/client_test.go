package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartofacheron/site/internal/models"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestHealthAndProbe(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"ok"}`))
	})
	require.NoError(t, c.Health(context.Background()))
	assert.True(t, c.Probe(context.Background(), time.Second))
}

func TestProbe_TimesOut(t *testing.T) {
	release := make(chan struct{})
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	start := time.Now()
	assert.False(t, c.Probe(context.Background(), 50*time.Millisecond))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url)
	err := c.Health(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestErrorBodyIsParsed(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid token"}`))
	})

	_, err := c.Me(context.Background(), "tok")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid token", apiErr.Message)
	assert.True(t, IsUnauthorized(err))
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestRequestIDOnEveryCall(t *testing.T) {
	var seen []string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get(RequestIDHeader))
		if r.URL.Path == "/health" {
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	require.NoError(t, c.Health(context.Background()))
	_, err := c.Me(context.Background(), "tok")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)

	require.Len(t, seen, 2)
	for _, id := range seen {
		_, perr := uuid.Parse(id)
		assert.NoError(t, perr)
	}
	assert.NotEqual(t, seen[0], seen[1])
	assert.Equal(t, seen[1], apiErr.RequestID)
}

func TestMe_SendsBearer(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(models.AuthResponse{Success: true, User: &models.User{UserID: "u1", Email: "a@b.c"}})
	})

	u, err := c.Me(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
}

func TestTopics_OptionalBearerAndEscaping(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/forum/topics/off-topic", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(models.TopicsResponse{Success: true, Topics: []models.ForumTopic{{TopicID: "t1", Title: "Hi"}}})
	})

	topics, err := c.Topics(context.Background(), "", "off-topic")
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "Hi", topics[0].Title)
}

func TestCreatePost_SendsJSON(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req models.CreatePostRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "t1", req.TopicID)
		assert.Equal(t, "hello", req.Content)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.PostResponse{Success: true, Post: &models.ForumPost{PostID: "p1"}})
	})

	p, err := c.CreatePost(context.Background(), "tok", models.CreatePostRequest{TopicID: "t1", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.PostID)
}

func TestEditAndDeletePost(t *testing.T) {
	var calls []string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Write([]byte(`{"success":true}`))
	})

	require.NoError(t, c.EditPost(context.Background(), "tok", "p1", "new"))
	require.NoError(t, c.DeletePost(context.Background(), "tok", "p1"))
	assert.Equal(t, []string{"PUT /api/forum/post/p1", "DELETE /api/forum/post/p1"}, calls)
}

func TestPaymentEndpoints(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/create-payment-intent":
			var req models.PaymentIntentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(2500), req.Amount)
			w.Write([]byte(`{"clientSecret":"pi_1_secret"}`))
		case "/api/create-paypal-order":
			w.Write([]byte(`{"orderId":"PP-1"}`))
		case "/api/capture-paypal-order":
			w.Write([]byte(`{"success":true,"captureId":"CAP-1"}`))
		case "/api/google-pay/process-payment":
			w.Write([]byte(`{"success":true,"paymentIntentId":"pi_g"}`))
		case "/api/apple-pay/validate-merchant":
			w.Write([]byte(`{"merchantSessionIdentifier":"m"}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	intent, err := c.CreatePaymentIntent(ctx, models.PaymentIntentRequest{Amount: 2500, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)

	id, err := c.CreatePayPalOrder(ctx, models.PayPalOrderRequest{Amount: "25.00"})
	require.NoError(t, err)
	assert.Equal(t, "PP-1", id)

	capture, err := c.CapturePayPalOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "CAP-1", capture.CaptureID)

	g, err := c.ProcessGooglePay(ctx, models.GooglePayRequest{Amount: "25.00"})
	require.NoError(t, err)
	assert.Equal(t, "pi_g", g.PaymentIntentID)

	session, err := c.ValidateApplePayMerchant(ctx, "https://apple.example/validate")
	require.NoError(t, err)
	assert.Equal(t, "m", session["merchantSessionIdentifier"])
}

func TestContact(t *testing.T) {
	var got models.ContactRequest
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true}`))
	})

	err := c.Contact(context.Background(), models.ContactRequest{Name: " Ann ", Email: "a@b.c", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, "No subject", got.Subject)

	err = c.Contact(context.Background(), models.ContactRequest{Name: "Ann", Email: "a@b.c"})
	require.ErrorIs(t, err, ErrContactIncomplete)
}
