package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/heartofacheron/site/internal/api"
	"github.com/heartofacheron/site/internal/models"
)

var ErrPaymentFailed = errors.New("payment failed")

// Confirmer is the provider SDK side of a live payment: the card element,
// the PayPal approval popup, and the wallet sheets.
type Confirmer interface {
	// ConfirmCard confirms a Stripe payment intent and returns its id.
	ConfirmCard(ctx context.Context, clientSecret string, c CustomerInfo) (string, error)
	// ApprovePayPal waits for the buyer to approve the PayPal order.
	ApprovePayPal(ctx context.Context, orderID string) error
	// AppleValidationURL starts an Apple Pay session and returns the URL the
	// merchant must be validated against.
	AppleValidationURL(ctx context.Context, amount string) (string, error)
	// CompleteAppleValidation hands the merchant session back to the sheet.
	CompleteAppleValidation(ctx context.Context, session map[string]any) error
	// GooglePayData shows the Google Pay sheet and returns its payment data.
	GooglePayData(ctx context.Context, amount string) (map[string]any, error)
}

// APIGateway charges through the backend's payment endpoints.
type APIGateway struct {
	client  *api.Client
	confirm Confirmer
}

func NewAPIGateway(client *api.Client, confirm Confirmer) *APIGateway {
	return &APIGateway{client: client, confirm: confirm}
}

var _ Gateway = (*APIGateway)(nil)

func metadata(c Charge) models.PaymentMetadata {
	return models.PaymentMetadata{
		CharacterName: c.Customer.CharacterName,
		SteamID:       c.Customer.SteamID,
		Email:         c.Customer.Email,
		ProductName:   c.Product.Title,
	}
}

func (g *APIGateway) Charge(ctx context.Context, c Charge) (string, error) {
	switch c.Method {
	case Stripe:
		return g.card(ctx, c)
	case PayPal:
		return g.paypal(ctx, c)
	case ApplePay:
		return g.apple(ctx, c)
	case GooglePay:
		return g.google(ctx, c)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, c.Method)
}

func (g *APIGateway) card(ctx context.Context, c Charge) (string, error) {
	intent, err := g.client.CreatePaymentIntent(ctx, models.PaymentIntentRequest{
		Amount:    Cents(c.Amount),
		Currency:  "usd",
		ProductID: c.ProductID,
		Metadata:  metadata(c),
	})
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	id, err := g.confirm.ConfirmCard(ctx, intent.ClientSecret, c.Customer)
	if err != nil {
		return "", fmt.Errorf("confirm card: %w", err)
	}
	return id, nil
}

func (g *APIGateway) paypal(ctx context.Context, c Charge) (string, error) {
	orderID, err := g.client.CreatePayPalOrder(ctx, models.PayPalOrderRequest{
		Amount:    fmt.Sprintf("%.2f", c.Amount),
		Currency:  "USD",
		ProductID: c.ProductID,
		Metadata:  metadata(c),
	})
	if err != nil {
		return "", fmt.Errorf("create paypal order: %w", err)
	}
	if err := g.confirm.ApprovePayPal(ctx, orderID); err != nil {
		return "", fmt.Errorf("approve paypal order: %w", err)
	}
	capture, err := g.client.CapturePayPalOrder(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("capture paypal order: %w", err)
	}
	if !capture.Success {
		return "", ErrPaymentFailed
	}
	if capture.CaptureID != "" {
		return capture.CaptureID, nil
	}
	return orderID, nil
}

func (g *APIGateway) apple(ctx context.Context, c Charge) (string, error) {
	amount := fmt.Sprintf("%.2f", c.Amount)
	url, err := g.confirm.AppleValidationURL(ctx, amount)
	if err != nil {
		return "", fmt.Errorf("apple pay session: %w", err)
	}
	session, err := g.client.ValidateApplePayMerchant(ctx, url)
	if err != nil {
		return "", fmt.Errorf("validate apple pay merchant: %w", err)
	}
	if err := g.confirm.CompleteAppleValidation(ctx, session); err != nil {
		return "", fmt.Errorf("complete apple pay validation: %w", err)
	}
	return g.card(ctx, c)
}

func (g *APIGateway) google(ctx context.Context, c Charge) (string, error) {
	amount := fmt.Sprintf("%.2f", c.Amount)
	data, err := g.confirm.GooglePayData(ctx, amount)
	if err != nil {
		return "", fmt.Errorf("google pay sheet: %w", err)
	}
	res, err := g.client.ProcessGooglePay(ctx, models.GooglePayRequest{
		PaymentData: data,
		Amount:      amount,
		Currency:    "USD",
		ProductID:   c.ProductID,
		Metadata:    metadata(c),
	})
	if err != nil {
		return "", fmt.Errorf("process google pay: %w", err)
	}
	if !res.Success {
		return "", ErrPaymentFailed
	}
	return res.PaymentIntentID, nil
}
