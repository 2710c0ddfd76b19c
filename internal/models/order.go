package models

import "time"

const (
	OrderProcessing = "processing"
	OrderDelivered  = "delivered"
)

// Payment provider names as recorded on orders.
const (
	ProviderStripe    = "stripe"
	ProviderPayPal    = "paypal"
	ProviderApplePay  = "apple_pay"
	ProviderGooglePay = "google_pay"
)

// Order is one purchase in the transaction ledger.
type Order struct {
	OrderID         string     `json:"order_id"`
	CustomerEmail   string     `json:"customer_email"`
	SteamID         string     `json:"steam_id,omitempty"`
	CharacterName   string     `json:"character_name"`
	ProductID       string     `json:"product_id"`
	ProductName     string     `json:"product_name"`
	Price           float64    `json:"price"`
	PaymentProvider string     `json:"payment_provider"`
	PaymentIntentID string     `json:"payment_intent_id"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
}

// PaymentMetadata travels with every live payment request so the backend can
// deliver the items in game.
type PaymentMetadata struct {
	CharacterName string `json:"character_name"`
	SteamID       string `json:"steam_id,omitempty"`
	Email         string `json:"email"`
	ProductName   string `json:"product_name"`
}

// PaymentIntentRequest is the JSON body for POST /api/create-payment-intent.
// Amount is in cents.
type PaymentIntentRequest struct {
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	ProductID string          `json:"product_id"`
	Metadata  PaymentMetadata `json:"metadata"`
}

type PaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
}

// PayPalOrderRequest is the JSON body for POST /api/create-paypal-order.
// Amount is a decimal string such as "25.00".
type PayPalOrderRequest struct {
	Amount    string          `json:"amount"`
	Currency  string          `json:"currency"`
	ProductID string          `json:"product_id"`
	Metadata  PaymentMetadata `json:"metadata"`
}

type PayPalOrderResponse struct {
	OrderID string `json:"orderId"`
}

type PayPalCaptureRequest struct {
	OrderID string `json:"orderId"`
}

type PayPalCaptureResponse struct {
	Success   bool   `json:"success"`
	CaptureID string `json:"captureId,omitempty"`
	OrderID   string `json:"orderId,omitempty"`
}

type ApplePayValidateRequest struct {
	ValidationURL string `json:"validationURL"`
}

// GooglePayRequest is the JSON body for POST /api/google-pay/process-payment.
// PaymentData is the opaque token produced by the Google Pay sheet.
type GooglePayRequest struct {
	PaymentData map[string]any  `json:"paymentData"`
	Amount      string          `json:"amount"`
	Currency    string          `json:"currency"`
	ProductID   string          `json:"product_id"`
	Metadata    PaymentMetadata `json:"metadata"`
}

type GooglePayResponse struct {
	Success         bool   `json:"success"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type OrdersResponse struct {
	Success bool    `json:"success"`
	Orders  []Order `json:"orders"`
}

// ContactRequest is the JSON body for POST /api/contact.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}
