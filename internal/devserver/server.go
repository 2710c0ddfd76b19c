// Package devserver is a local stand-in for the site backend. It answers the
// same HTTP API from the mock services, so the site and the CLI can run
// end to end without the real backend, payment providers or database.
package devserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/heartofacheron/site/internal/auth"
	"github.com/heartofacheron/site/internal/devmode"
	"github.com/heartofacheron/site/internal/logging"
	"github.com/heartofacheron/site/internal/middleware"
	"github.com/heartofacheron/site/internal/mock"
	"github.com/heartofacheron/site/internal/store"
)

// Server holds the dev backend's handlers.
type Server struct {
	mock  *mock.Backend
	flag  *devmode.Flag
	store store.Store
	log   logging.Logger
	now   func() time.Time

	mu      sync.Mutex
	pending map[string]pendingPayPal // PayPal orders created but not captured

	contactMu sync.Mutex
}

type Option func(*Server)

func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

func New(s store.Store, m *mock.Backend, flag *devmode.Flag, log logging.Logger, opts ...Option) *Server {
	srv := &Server{
		mock:    m,
		flag:    flag,
		store:   s,
		log:     log,
		now:     time.Now,
		pending: make(map[string]pendingPayPal),
	}
	for _, o := range opts {
		o(srv)
	}
	return srv
}

// Router builds the chi router with the site's middleware stack.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	authHandler := auth.NewHandler(s.mock.Auth, s.log)
	requireAuth := middleware.RequireAuth(s.mock.Auth)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.Health)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(requireAuth).Get("/me", authHandler.Me)
	})

	r.Route("/api/forum", func(r chi.Router) {
		r.Get("/categories", s.Categories)
		r.Get("/topics/{categoryId}", s.Topics)
		r.Get("/topic/{topicId}", s.Topic)
		r.With(requireAuth).Post("/topic", s.CreateTopic)
		r.With(requireAuth).Post("/post", s.CreatePost)
		r.With(requireAuth).Put("/post/{postId}", s.EditPost)
		r.With(requireAuth).Delete("/post/{postId}", s.DeletePost)
	})

	r.Post("/api/create-payment-intent", s.CreatePaymentIntent)
	r.Post("/api/create-paypal-order", s.CreatePayPalOrder)
	r.Post("/api/capture-paypal-order", s.CapturePayPalOrder)
	r.Post("/api/apple-pay/validate-merchant", s.ValidateApplePayMerchant)
	r.Post("/api/google-pay/process-payment", s.ProcessGooglePay)
	r.Get("/api/orders", s.Orders)

	r.Get("/api/dev-mode", s.DevMode)
	r.Post("/api/dev-mode", s.SetDevMode)
	r.Post("/api/contact", s.Contact)

	return r
}

// userID is the caller's id when a valid bearer token came along, and the
// developer identity otherwise.
func (s *Server) userID(r *http.Request) string {
	if token := middleware.BearerToken(r); token != "" {
		if u, err := s.mock.Auth.CurrentUser(r.Context(), token); err == nil {
			return u.UserID
		}
	}
	return mock.DevUserID
}
