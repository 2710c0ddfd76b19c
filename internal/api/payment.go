package api

import (
	"context"
	"net/http"

	"github.com/heartofacheron/site/internal/models"
)

// CreatePaymentIntent calls POST /api/create-payment-intent.
func (c *Client) CreatePaymentIntent(ctx context.Context, req models.PaymentIntentRequest) (models.PaymentIntentResponse, error) {
	var out models.PaymentIntentResponse
	err := c.do(ctx, http.MethodPost, "/api/create-payment-intent", "", req, &out)
	return out, err
}

// CreatePayPalOrder calls POST /api/create-paypal-order and returns the
// PayPal order id.
func (c *Client) CreatePayPalOrder(ctx context.Context, req models.PayPalOrderRequest) (string, error) {
	var out models.PayPalOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/create-paypal-order", "", req, &out); err != nil {
		return "", err
	}
	return out.OrderID, nil
}

// CapturePayPalOrder calls POST /api/capture-paypal-order.
func (c *Client) CapturePayPalOrder(ctx context.Context, orderID string) (models.PayPalCaptureResponse, error) {
	var out models.PayPalCaptureResponse
	err := c.do(ctx, http.MethodPost, "/api/capture-paypal-order", "",
		models.PayPalCaptureRequest{OrderID: orderID}, &out)
	return out, err
}

// ValidateApplePayMerchant calls POST /api/apple-pay/validate-merchant and
// returns the opaque merchant session.
func (c *Client) ValidateApplePayMerchant(ctx context.Context, validationURL string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPost, "/api/apple-pay/validate-merchant", "",
		models.ApplePayValidateRequest{ValidationURL: validationURL}, &out)
	return out, err
}

// ProcessGooglePay calls POST /api/google-pay/process-payment.
func (c *Client) ProcessGooglePay(ctx context.Context, req models.GooglePayRequest) (models.GooglePayResponse, error) {
	var out models.GooglePayResponse
	err := c.do(ctx, http.MethodPost, "/api/google-pay/process-payment", "", req, &out)
	return out, err
}

// Orders calls GET /api/orders.
func (c *Client) Orders(ctx context.Context, token string) ([]models.Order, error) {
	var out models.OrdersResponse
	if err := c.do(ctx, http.MethodGet, "/api/orders", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}
