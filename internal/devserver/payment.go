package devserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/heartofacheron/site/internal/models"
	"github.com/heartofacheron/site/internal/respond"
)

type pendingPayPal struct {
	req   models.PayPalOrderRequest
	price float64
}

func (s *Server) record(r *http.Request, provider, intentID, productID string, price float64, md models.PaymentMetadata) (models.Order, error) {
	return s.mock.Commerce.AddOrder(r.Context(), models.Order{
		CustomerEmail:   md.Email,
		SteamID:         md.SteamID,
		CharacterName:   md.CharacterName,
		ProductID:       productID,
		ProductName:     md.ProductName,
		Price:           price,
		PaymentProvider: provider,
		PaymentIntentID: intentID,
		Status:          models.OrderDelivered,
	})
}

// CreatePaymentIntent issues a fake client secret and records the order
// straight away; there is no card to confirm.
func (s *Server) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentIntentRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if req.Amount <= 0 {
		respond.Error(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if req.Metadata.CharacterName == "" {
		respond.Error(w, http.StatusBadRequest, "character name is required")
		return
	}

	intentID := fmt.Sprintf("pi_dev_%d", s.now().UnixMilli())
	if _, err := s.record(r, models.ProviderStripe, intentID, req.ProductID, float64(req.Amount)/100, req.Metadata); err != nil {
		s.log.Error(r.Context(), "record stripe order", "err", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create payment intent")
		return
	}
	respond.JSON(w, http.StatusOK, models.PaymentIntentResponse{
		ClientSecret:    intentID + "_secret_" + uuid.NewString()[:8],
		PaymentIntentID: intentID,
	})
}

func (s *Server) CreatePayPalOrder(w http.ResponseWriter, r *http.Request) {
	var req models.PayPalOrderRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	price, err := strconv.ParseFloat(req.Amount, 64)
	if err != nil || price <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid amount")
		return
	}

	id := "PAYPAL-DEV-" + uuid.NewString()[:8]
	s.mu.Lock()
	s.pending[id] = pendingPayPal{req: req, price: price}
	s.mu.Unlock()
	respond.JSON(w, http.StatusOK, models.PayPalOrderResponse{OrderID: id})
}

func (s *Server) CapturePayPalOrder(w http.ResponseWriter, r *http.Request) {
	var req models.PayPalCaptureRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	p, ok := s.pending[req.OrderID]
	delete(s.pending, req.OrderID)
	s.mu.Unlock()
	if !ok {
		respond.Error(w, http.StatusNotFound, "paypal order not found")
		return
	}

	captureID := "CAPTURE-DEV-" + uuid.NewString()[:8]
	if _, err := s.record(r, models.ProviderPayPal, captureID, p.req.ProductID, p.price, p.req.Metadata); err != nil {
		s.log.Error(r.Context(), "record paypal order", "err", err)
		respond.Error(w, http.StatusInternalServerError, "failed to capture order")
		return
	}
	respond.JSON(w, http.StatusOK, models.PayPalCaptureResponse{Success: true, CaptureID: captureID, OrderID: req.OrderID})
}

func (s *Server) ValidateApplePayMerchant(w http.ResponseWriter, r *http.Request) {
	var req models.ApplePayValidateRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if req.ValidationURL == "" {
		respond.Error(w, http.StatusBadRequest, "validationURL is required")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"merchantSessionIdentifier": "dev_session_" + uuid.NewString()[:8],
		"displayName":               "Heart of Acheron",
		"epochTimestamp":            s.now().UnixMilli(),
	})
}

func (s *Server) ProcessGooglePay(w http.ResponseWriter, r *http.Request) {
	var req models.GooglePayRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	price, err := strconv.ParseFloat(req.Amount, 64)
	if err != nil || price <= 0 || len(req.PaymentData) == 0 {
		respond.Error(w, http.StatusBadRequest, "invalid google pay request")
		return
	}

	intentID := fmt.Sprintf("pi_dev_google_%d", s.now().UnixMilli())
	if _, err := s.record(r, models.ProviderGooglePay, intentID, req.ProductID, price, req.Metadata); err != nil {
		s.log.Error(r.Context(), "record google pay order", "err", err)
		respond.Error(w, http.StatusInternalServerError, "payment failed")
		return
	}
	respond.JSON(w, http.StatusOK, models.GooglePayResponse{Success: true, PaymentIntentID: intentID})
}

func (s *Server) Orders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.mock.Commerce.Orders(r.Context())
	if err != nil {
		s.log.Error(r.Context(), "list orders", "err", err)
		respond.Error(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	respond.JSON(w, http.StatusOK, models.OrdersResponse{Success: true, Orders: orders})
}
