package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/heartofacheron/site/internal/payment"
)

var errDeclined = errors.New("payment cancelled")

const appleSessionURL = "https://apple-pay-gateway.apple.com/paymentservices/startSession"

// terminalConfirmer stands in for the provider widgets: every confirmation
// becomes a yes/no question on the terminal.
type terminalConfirmer struct {
	app *App
}

func (c terminalConfirmer) ask(label string) error {
	if !confirm(c.app.in, c.app.out, label) {
		return errDeclined
	}
	return nil
}

// ConfirmCard returns the payment intent id embedded in a Stripe client
// secret ("pi_..._secret_...").
func (c terminalConfirmer) ConfirmCard(_ context.Context, clientSecret string, info payment.CustomerInfo) (string, error) {
	if err := c.ask(fmt.Sprintf("Charge the card of %s", info.Name)); err != nil {
		return "", err
	}
	id, _, _ := strings.Cut(clientSecret, "_secret_")
	return id, nil
}

func (c terminalConfirmer) ApprovePayPal(_ context.Context, orderID string) error {
	return c.ask("Approve PayPal order " + orderID)
}

func (c terminalConfirmer) AppleValidationURL(_ context.Context, amount string) (string, error) {
	if err := c.ask("Pay $" + amount + " with Apple Pay"); err != nil {
		return "", err
	}
	return appleSessionURL, nil
}

func (c terminalConfirmer) CompleteAppleValidation(ctx context.Context, session map[string]any) error {
	c.app.log.Debug(ctx, "apple pay merchant validated", "session", session["merchantSessionIdentifier"])
	return nil
}

func (c terminalConfirmer) GooglePayData(_ context.Context, amount string) (map[string]any, error) {
	if err := c.ask("Pay $" + amount + " with Google Pay"); err != nil {
		return nil, err
	}
	return map[string]any{
		"paymentMethodData": map[string]any{
			"type":             "CARD",
			"tokenizationData": map[string]any{"type": "PAYMENT_GATEWAY", "token": "cli_" + uuid.NewString()},
		},
	}, nil
}

var _ payment.Confirmer = terminalConfirmer{}
