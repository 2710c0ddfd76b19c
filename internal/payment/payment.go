// Package payment drives the checkout: choosing among the four payment
// methods, validating the customer form, and either simulating the payment
// (developer mode, localhost, or no provider credentials) or handing it to
// the live gateway.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/heartofacheron/site/internal/devmode"
	"github.com/heartofacheron/site/internal/logging"
	"github.com/heartofacheron/site/internal/models"
)

// SimulatedDelay is how long a simulated payment "processes".
const SimulatedDelay = 1500 * time.Millisecond

const placeholderPayPalID = "YOUR_PAYPAL_CLIENT_ID"

var (
	ErrNoProduct     = errors.New("no product selected")
	ErrUnknownMethod = errors.New("unknown payment method")
	ErrBusy          = errors.New("a payment is already in progress")
	ErrBadPrice      = errors.New("unparseable price")
)

// Method is one of the four checkout options.
type Method string

const (
	Stripe    Method = "stripe"
	PayPal    Method = "paypal"
	ApplePay  Method = "applepay"
	GooglePay Method = "googlepay"
)

// Methods lists every method in display order.
var Methods = []Method{Stripe, PayPal, ApplePay, GooglePay}

func ParseMethod(s string) (Method, error) {
	for _, m := range Methods {
		if string(m) == strings.ToLower(strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Provider is the name recorded on orders paid with m.
func (m Method) Provider() string {
	switch m {
	case PayPal:
		return models.ProviderPayPal
	case ApplePay:
		return models.ProviderApplePay
	case GooglePay:
		return models.ProviderGooglePay
	}
	return models.ProviderStripe
}

func (m Method) simulatedIntentPrefix() string {
	switch m {
	case PayPal:
		return "dev_mode_paypal_"
	case ApplePay:
		return "dev_mode_apple_"
	case GooglePay:
		return "dev_mode_google_"
	}
	return "dev_mode_"
}

// Product is the item being bought. Price is display text such as "$25.00".
type Product struct {
	ID    string
	Title string
	Price string
	Image string
}

// CustomerInfo is the customer form.
type CustomerInfo struct {
	Name          string
	Email         string
	Phone         string
	CharacterName string
	SteamID       string
	CreateAccount bool
}

// ValidationError lists the form fields that failed, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range []string{"name", "email", "characterName"} {
		if msg, ok := e.Fields[f]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

// Validate trims the form and checks the required fields.
func (c CustomerInfo) Validate() (CustomerInfo, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.CharacterName = strings.TrimSpace(c.CharacterName)
	c.SteamID = strings.TrimSpace(c.SteamID)

	fields := map[string]string{}
	if c.Name == "" {
		fields["name"] = "Name is required"
	}
	if c.Email == "" {
		fields["email"] = "Email is required"
	} else if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
		// Only a bare address is kept on the order.
		fields["email"] = "Email is not valid"
	}
	if c.CharacterName == "" {
		fields["characterName"] = "Character name is required for delivery"
	}
	if len(fields) > 0 {
		return c, &ValidationError{Fields: fields}
	}
	return c, nil
}

// Receipt is what the success confirmation shows.
type Receipt struct {
	Method        Method
	OrderID       string
	CharacterName string
	Simulated     bool
	Message       string
}

// SuccessMessage is the confirmation text for a delivered purchase.
func SuccessMessage(characterName, orderID string) string {
	msg := fmt.Sprintf("Thank you for your purchase! Your items are being delivered to %s right now. "+
		"You will receive a confirmation email shortly.", characterName)
	if orderID != "" {
		msg += " Order ID: " + orderID
	}
	return msg
}

// AmountFromPrice parses "$25.00" into 25.
func AmountFromPrice(price string) (float64, error) {
	v, err := strconv.ParseFloat(amountText(price), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadPrice, price)
	}
	return v, nil
}

// Cents converts a dollar amount to whole cents.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func amountText(price string) string {
	return strings.TrimSpace(strings.Replace(price, "$", "", 1))
}

var productIDs = map[string]string{
	"Supporter Package":         "supporter",
	"Hero Package":              "hero",
	"Legend Package":            "legend",
	"Legendary Weapon":          "weapon",
	"Elite Armor Set":           "armor",
	"Resource Pack":             "resources",
	"VIP Status (1 Month)":      "vip",
	"Experience Boost (7 Days)": "boost",
	"Custom Name Color":         "custom",
}

// ProductIDFromTitle maps a store title to its product id.
func ProductIDFromTitle(title string) string {
	if id, ok := productIDs[title]; ok {
		return id
	}
	return strings.Join(strings.Fields(strings.ToLower(title)), "-")
}

// Credentials are the provider keys the site was deployed with, plus the
// host it is served from.
type Credentials struct {
	StripePublishableKey string
	PayPalClientID       string
	ApplePayMerchantID   string
	GooglePayMerchantID  string
	Host                 string
}

func (c Credentials) hasStripe() bool {
	return strings.HasPrefix(c.StripePublishableKey, "pk_")
}

func (c Credentials) hasPayPal() bool {
	return c.PayPalClientID != "" && c.PayPalClientID != placeholderPayPalID
}

func (c Credentials) isLocalhost() bool {
	host := c.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host == "localhost" || host == "127.0.0.1"
}

// Orders is where simulated purchases are recorded in developer mode.
type Orders interface {
	AddOrder(ctx context.Context, o models.Order) (models.Order, error)
}

// Charge is a live payment request.
type Charge struct {
	Method    Method
	Product   Product
	ProductID string
	Amount    float64
	Customer  CustomerInfo
}

// Gateway performs live payments and returns the provider's payment id.
type Gateway interface {
	Charge(ctx context.Context, c Charge) (string, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Controller is the checkout modal. It is driven from one goroutine.
type Controller struct {
	flag    *devmode.Flag
	orders  Orders
	gateway Gateway
	creds   Credentials
	log     logging.Logger
	delay   time.Duration
	sleep   Sleeper
	now     func() time.Time

	method  Method
	product *Product
	busy    bool
}

type Option func(*Controller)

func WithLogger(log logging.Logger) Option { return func(c *Controller) { c.log = log } }

// WithDelay replaces SimulatedDelay and the way it is waited out.
func WithDelay(d time.Duration, s Sleeper) Option {
	return func(c *Controller) { c.delay, c.sleep = d, s }
}

func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

func NewController(flag *devmode.Flag, orders Orders, gateway Gateway, creds Credentials, opts ...Option) *Controller {
	c := &Controller{
		flag:    flag,
		orders:  orders,
		gateway: gateway,
		creds:   creds,
		log:     logging.Discard(),
		delay:   SimulatedDelay,
		sleep:   sleep,
		now:     time.Now,
		method:  Stripe,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Simulated reports whether payments are faked right now.
func (c *Controller) Simulated(ctx context.Context) bool {
	return c.flag.IsEnabled(ctx) || c.creds.isLocalhost() || (!c.creds.hasStripe() && !c.creds.hasPayPal())
}

// Open starts a checkout for p with Stripe selected.
func (c *Controller) Open(p *Product) error {
	if p == nil {
		return ErrNoProduct
	}
	cp := *p
	c.product = &cp
	c.method = Stripe
	return nil
}

// Close abandons the checkout.
func (c *Controller) Close() {
	c.product = nil
	c.method = Stripe
}

func (c *Controller) Product() *Product { return c.product }

func (c *Controller) Method() Method { return c.method }

// Active reports whether m is the selected method.
func (c *Controller) Active(m Method) bool { return c.method == m }

// Select switches to m. Reselecting the current method changes nothing.
func (c *Controller) Select(m Method) error {
	if m == c.method {
		return nil
	}
	if _, err := ParseMethod(string(m)); err != nil {
		return err
	}
	c.method = m
	return nil
}

// Busy reports whether a payment is in flight (the pay button is disabled).
func (c *Controller) Busy() bool { return c.busy }

// Pay runs the selected method for the open product. A form that fails
// validation returns a *ValidationError and changes nothing.
func (c *Controller) Pay(ctx context.Context, info CustomerInfo) (Receipt, error) {
	if c.product == nil {
		return Receipt{}, ErrNoProduct
	}
	if c.busy {
		return Receipt{}, ErrBusy
	}
	info, err := info.Validate()
	if err != nil {
		return Receipt{}, err
	}

	c.busy = true
	defer func() { c.busy = false }()

	if c.Simulated(ctx) {
		return c.simulate(ctx, info)
	}
	return c.live(ctx, info)
}

func (c *Controller) productID(fallback string) string {
	if c.product.ID != "" {
		return c.product.ID
	}
	return fallback
}

func (c *Controller) simulate(ctx context.Context, info CustomerInfo) (Receipt, error) {
	dev := c.flag.IsEnabled(ctx)
	c.log.Info(ctx, "simulating payment", "method", c.method, "dev_mode", dev, "product", c.product.Title)

	if err := c.sleep(ctx, c.delay); err != nil {
		return Receipt{}, err
	}

	orderID := fmt.Sprintf("test_order_%d", c.now().UnixMilli())
	if dev {
		price, err := AmountFromPrice(c.product.Price)
		if err != nil {
			return Receipt{}, err
		}
		order, err := c.orders.AddOrder(ctx, models.Order{
			CustomerEmail:   info.Email,
			SteamID:         info.SteamID,
			CharacterName:   info.CharacterName,
			ProductID:       c.productID("mock_product"),
			ProductName:     c.product.Title,
			Price:           price,
			PaymentProvider: c.method.Provider(),
			PaymentIntentID: fmt.Sprintf("%s%d", c.method.simulatedIntentPrefix(), c.now().UnixMilli()),
			Status:          models.OrderDelivered,
		})
		if err != nil {
			return Receipt{}, fmt.Errorf("record mock order: %w", err)
		}
		orderID = order.OrderID
	}

	return Receipt{
		Method:        c.method,
		OrderID:       orderID,
		CharacterName: info.CharacterName,
		Simulated:     true,
		Message:       SuccessMessage(info.CharacterName, orderID),
	}, nil
}

func (c *Controller) live(ctx context.Context, info CustomerInfo) (Receipt, error) {
	amount, err := AmountFromPrice(c.product.Price)
	if err != nil {
		return Receipt{}, err
	}
	id, err := c.gateway.Charge(ctx, Charge{
		Method:    c.method,
		Product:   *c.product,
		ProductID: c.productID(ProductIDFromTitle(c.product.Title)),
		Amount:    amount,
		Customer:  info,
	})
	if err != nil {
		c.log.Error(ctx, "payment error", "method", c.method, "err", err)
		return Receipt{}, err
	}
	return Receipt{
		Method:        c.method,
		OrderID:       id,
		CharacterName: info.CharacterName,
		Message:       SuccessMessage(info.CharacterName, id),
	}, nil
}
