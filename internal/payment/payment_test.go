package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartofacheron/site/internal/api"
	"github.com/heartofacheron/site/internal/devmode"
	"github.com/heartofacheron/site/internal/logging"
	"github.com/heartofacheron/site/internal/mock"
	"github.com/heartofacheron/site/internal/models"
	"github.com/heartofacheron/site/internal/store"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

type fakeGateway struct {
	charges []Charge
	id      string
	err     error
}

func (g *fakeGateway) Charge(_ context.Context, c Charge) (string, error) {
	g.charges = append(g.charges, c)
	return g.id, g.err
}

type fixture struct {
	flag    *devmode.Flag
	mock    *mock.Backend
	gateway *fakeGateway
	sleeper *recordingSleeper
	ctrl    *Controller
}

func newFixture(t *testing.T, dev bool, creds Credentials) *fixture {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	flag, err := devmode.Load(ctx, s, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, flag.Set(ctx, dev))

	clock := func() time.Time { return fixedNow }
	m := mock.New(s, mock.WithClock(clock))
	f := &fixture{flag: flag, mock: m, gateway: &fakeGateway{id: "pi_live_1"}, sleeper: &recordingSleeper{}}
	f.ctrl = NewController(flag, m.Commerce, f.gateway, creds,
		WithDelay(SimulatedDelay, f.sleeper.sleep), WithClock(clock))
	return f
}

var liveCreds = Credentials{StripePublishableKey: "pk_live_abc", PayPalClientID: "real-id", Host: "heartofacheron.com"}

var hero = &Product{Title: "Hero Package", Price: "$25.00"}

var hero1 = CustomerInfo{Name: "Ann", Email: "ann@example.com", CharacterName: "Hero1"}

func TestDevModeStripePurchase(t *testing.T) {
	f := newFixture(t, true, liveCreds)
	ctx := context.Background()
	require.NoError(t, f.ctrl.Open(hero))

	r, err := f.ctrl.Pay(ctx, hero1)
	require.NoError(t, err)

	assert.True(t, r.Simulated)
	assert.Equal(t, Stripe, r.Method)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, f.sleeper.waits)
	assert.Contains(t, r.Message, "Hero1")
	assert.Contains(t, r.Message, r.OrderID)
	assert.Empty(t, f.gateway.charges)
	assert.False(t, f.ctrl.Busy())

	orders, err := f.mock.Commerce.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 4)
	last := orders[3]
	assert.Equal(t, r.OrderID, last.OrderID)
	assert.Equal(t, "stripe", last.PaymentProvider)
	assert.Equal(t, "Hero1", last.CharacterName)
	assert.Equal(t, "Hero Package", last.ProductName)
	assert.Equal(t, "mock_product", last.ProductID)
	assert.InDelta(t, 25.0, last.Price, 0.001)
	assert.Equal(t, "dev_mode_1740830400000", last.PaymentIntentID)
	assert.Equal(t, models.OrderDelivered, last.Status)
}

func TestDevModeProviderPerMethod(t *testing.T) {
	cases := []struct {
		method   Method
		provider string
		prefix   string
	}{
		{PayPal, "paypal", "dev_mode_paypal_"},
		{ApplePay, "apple_pay", "dev_mode_apple_"},
		{GooglePay, "google_pay", "dev_mode_google_"},
	}
	for _, tc := range cases {
		t.Run(string(tc.method), func(t *testing.T) {
			f := newFixture(t, true, liveCreds)
			ctx := context.Background()
			require.NoError(t, f.ctrl.Open(&Product{ID: "legend", Title: "Legend Package", Price: "$50.00"}))
			require.NoError(t, f.ctrl.Select(tc.method))

			_, err := f.ctrl.Pay(ctx, hero1)
			require.NoError(t, err)

			orders, err := f.mock.Commerce.Orders(ctx)
			require.NoError(t, err)
			last := orders[len(orders)-1]
			assert.Equal(t, tc.provider, last.PaymentProvider)
			assert.Equal(t, "legend", last.ProductID)
			assert.Equal(t, tc.prefix+"1740830400000", last.PaymentIntentID)
		})
	}
}

func TestSimulatedOutsideDevModeRecordsNothing(t *testing.T) {
	f := newFixture(t, false, Credentials{Host: "localhost:3000", StripePublishableKey: "pk_test_x"})
	ctx := context.Background()
	require.True(t, f.ctrl.Simulated(ctx))
	require.NoError(t, f.ctrl.Open(hero))

	r, err := f.ctrl.Pay(ctx, hero1)
	require.NoError(t, err)
	assert.Equal(t, "test_order_1740830400000", r.OrderID)
	assert.True(t, r.Simulated)

	orders, err := f.mock.Commerce.Orders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestSimulated(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name  string
		dev   bool
		creds Credentials
		want  bool
	}{
		{"live", false, liveCreds, false},
		{"dev mode", true, liveCreds, true},
		{"localhost", false, Credentials{StripePublishableKey: "pk_live", Host: "localhost"}, true},
		{"loopback with port", false, Credentials{StripePublishableKey: "pk_live", Host: "127.0.0.1:8080"}, true},
		{"no keys", false, Credentials{Host: "example.com"}, true},
		{"placeholder paypal", false, Credentials{PayPalClientID: placeholderPayPalID, Host: "example.com"}, true},
		{"paypal only", false, Credentials{PayPalClientID: "abc", Host: "example.com"}, false},
		{"stripe only", false, Credentials{StripePublishableKey: "pk_test_1", Host: "example.com"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.dev, tc.creds)
			assert.Equal(t, tc.want, f.ctrl.Simulated(ctx))
		})
	}
}

func TestLivePaymentUsesGateway(t *testing.T) {
	f := newFixture(t, false, liveCreds)
	ctx := context.Background()
	require.NoError(t, f.ctrl.Open(hero))
	require.NoError(t, f.ctrl.Select(PayPal))

	r, err := f.ctrl.Pay(ctx, hero1)
	require.NoError(t, err)
	assert.False(t, r.Simulated)
	assert.Equal(t, "pi_live_1", r.OrderID)
	assert.Empty(t, f.sleeper.waits)

	require.Len(t, f.gateway.charges, 1)
	c := f.gateway.charges[0]
	assert.Equal(t, PayPal, c.Method)
	assert.Equal(t, "hero", c.ProductID)
	assert.InDelta(t, 25.0, c.Amount, 0.001)
	assert.Equal(t, "Hero1", c.Customer.CharacterName)
}

func TestLivePaymentFailureKeepsModalUsable(t *testing.T) {
	f := newFixture(t, false, liveCreds)
	f.gateway.err = errors.New("card declined")
	require.NoError(t, f.ctrl.Open(hero))

	_, err := f.ctrl.Pay(context.Background(), hero1)
	require.EqualError(t, err, "card declined")
	assert.False(t, f.ctrl.Busy())
	assert.NotNil(t, f.ctrl.Product())
}

func TestPayValidation(t *testing.T) {
	f := newFixture(t, true, liveCreds)
	ctx := context.Background()
	require.NoError(t, f.ctrl.Open(hero))

	_, err := f.ctrl.Pay(ctx, CustomerInfo{Name: "Ann", Email: "ann@example.com", CharacterName: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "characterName")
	assert.Contains(t, err.Error(), "Character name is required")

	_, err = f.ctrl.Pay(ctx, CustomerInfo{Email: "not-an-email", CharacterName: "X"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")

	_, err = f.ctrl.Pay(ctx, CustomerInfo{Name: "Ann", Email: "Ann <ann@example.com>", CharacterName: "X"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"email": "Email is not valid"}, verr.Fields)

	assert.Empty(t, f.sleeper.waits)
	orders, err := f.mock.Commerce.Orders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestDevModeToggleSwitchesBranchPerCall(t *testing.T) {
	f := newFixture(t, false, liveCreds)
	ctx := context.Background()
	require.NoError(t, f.ctrl.Open(hero))

	r, err := f.ctrl.Pay(ctx, hero1)
	require.NoError(t, err)
	assert.False(t, r.Simulated)
	require.Len(t, f.gateway.charges, 1)

	require.NoError(t, f.flag.Set(ctx, true))
	r, err = f.ctrl.Pay(ctx, hero1)
	require.NoError(t, err)
	assert.True(t, r.Simulated)
	assert.Len(t, f.gateway.charges, 1)
	orders, err := f.mock.Commerce.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 4)

	require.NoError(t, f.flag.Set(ctx, false))
	r, err = f.ctrl.Pay(ctx, hero1)
	require.NoError(t, err)
	assert.False(t, r.Simulated)
	assert.Len(t, f.gateway.charges, 2)
	assert.Len(t, f.sleeper.waits, 1)
	orders, err = f.mock.Commerce.Orders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 4)
}

func TestPayWithoutProduct(t *testing.T) {
	f := newFixture(t, true, liveCreds)
	_, err := f.ctrl.Pay(context.Background(), hero1)
	assert.ErrorIs(t, err, ErrNoProduct)
	assert.ErrorIs(t, f.ctrl.Open(nil), ErrNoProduct)
}

func TestPayWhileBusy(t *testing.T) {
	f := newFixture(t, true, liveCreds)
	require.NoError(t, f.ctrl.Open(hero))

	var inner error
	f.ctrl.sleep = func(ctx context.Context, d time.Duration) error {
		_, inner = f.ctrl.Pay(ctx, hero1)
		return nil
	}
	_, err := f.ctrl.Pay(context.Background(), hero1)
	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrBusy)
}

func TestPayCancelled(t *testing.T) {
	f := newFixture(t, true, liveCreds)
	require.NoError(t, f.ctrl.Open(hero))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.ctrl.Pay(ctx, hero1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.ctrl.Busy())
}

func TestSelect(t *testing.T) {
	f := newFixture(t, false, liveCreds)
	assert.True(t, f.ctrl.Active(Stripe))

	require.NoError(t, f.ctrl.Select(Stripe))
	assert.Equal(t, Stripe, f.ctrl.Method())

	require.NoError(t, f.ctrl.Select(GooglePay))
	assert.True(t, f.ctrl.Active(GooglePay))
	assert.False(t, f.ctrl.Active(Stripe))

	assert.ErrorIs(t, f.ctrl.Select("bitcoin"), ErrUnknownMethod)
	assert.Equal(t, GooglePay, f.ctrl.Method())

	require.NoError(t, f.ctrl.Open(hero))
	assert.Equal(t, Stripe, f.ctrl.Method())
	f.ctrl.Close()
	assert.Nil(t, f.ctrl.Product())
}

func TestAmountFromPrice(t *testing.T) {
	v, err := AmountFromPrice("$25.00")
	require.NoError(t, err)
	assert.InDelta(t, 25.0, v, 0.0001)
	assert.Equal(t, int64(2500), Cents(v))
	assert.Equal(t, int64(1999), Cents(19.99))

	_, err = AmountFromPrice("free")
	assert.ErrorIs(t, err, ErrBadPrice)
}

func TestProductIDFromTitle(t *testing.T) {
	assert.Equal(t, "supporter", ProductIDFromTitle("Supporter Package"))
	assert.Equal(t, "vip", ProductIDFromTitle("VIP Status (1 Month)"))
	assert.Equal(t, "boost", ProductIDFromTitle("Experience Boost (7 Days)"))
	assert.Equal(t, "mystery-box", ProductIDFromTitle("Mystery  Box"))
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" PayPal ")
	require.NoError(t, err)
	assert.Equal(t, PayPal, m)
	_, err = ParseMethod("cash")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

type fakeConfirmer struct {
	approved []string
	session  map[string]any
}

func (c *fakeConfirmer) ConfirmCard(_ context.Context, secret string, _ CustomerInfo) (string, error) {
	return "pi_from_" + secret, nil
}

func (c *fakeConfirmer) ApprovePayPal(_ context.Context, orderID string) error {
	c.approved = append(c.approved, orderID)
	return nil
}

func (c *fakeConfirmer) AppleValidationURL(context.Context, string) (string, error) {
	return "https://apple-pay-gateway.apple.com/paymentservices/startSession", nil
}

func (c *fakeConfirmer) CompleteAppleValidation(_ context.Context, session map[string]any) error {
	c.session = session
	return nil
}

func (c *fakeConfirmer) GooglePayData(context.Context, string) (map[string]any, error) {
	return map[string]any{"token": "gp"}, nil
}

func newGatewayServer(t *testing.T) (*APIGateway, *fakeConfirmer, map[string]map[string]any) {
	t.Helper()
	bodies := map[string]map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies[r.URL.Path] = body
		switch r.URL.Path {
		case "/api/create-payment-intent":
			w.Write([]byte(`{"clientSecret":"secret_1"}`))
		case "/api/create-paypal-order":
			w.Write([]byte(`{"orderId":"PP-1"}`))
		case "/api/capture-paypal-order":
			w.Write([]byte(`{"success":true,"captureId":"CAP-1"}`))
		case "/api/apple-pay/validate-merchant":
			w.Write([]byte(`{"merchantSessionIdentifier":"m1"}`))
		case "/api/google-pay/process-payment":
			w.Write([]byte(`{"success":true,"paymentIntentId":"pi_gp"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	conf := &fakeConfirmer{}
	return NewAPIGateway(api.NewClient(srv.URL), conf), conf, bodies
}

func TestAPIGateway(t *testing.T) {
	ctx := context.Background()
	charge := Charge{Product: *hero, ProductID: "hero", Amount: 25, Customer: hero1}

	t.Run("stripe", func(t *testing.T) {
		g, _, bodies := newGatewayServer(t)
		charge.Method = Stripe
		id, err := g.Charge(ctx, charge)
		require.NoError(t, err)
		assert.Equal(t, "pi_from_secret_1", id)
		body := bodies["/api/create-payment-intent"]
		assert.EqualValues(t, 2500, body["amount"])
		assert.Equal(t, "usd", body["currency"])
		assert.Equal(t, "Hero1", body["metadata"].(map[string]any)["character_name"])
	})

	t.Run("paypal", func(t *testing.T) {
		g, conf, bodies := newGatewayServer(t)
		charge.Method = PayPal
		id, err := g.Charge(ctx, charge)
		require.NoError(t, err)
		assert.Equal(t, "CAP-1", id)
		assert.Equal(t, []string{"PP-1"}, conf.approved)
		assert.Equal(t, "25.00", bodies["/api/create-paypal-order"]["amount"])
		assert.Equal(t, "PP-1", bodies["/api/capture-paypal-order"]["orderId"])
	})

	t.Run("apple pay", func(t *testing.T) {
		g, conf, _ := newGatewayServer(t)
		charge.Method = ApplePay
		id, err := g.Charge(ctx, charge)
		require.NoError(t, err)
		assert.Equal(t, "pi_from_secret_1", id)
		assert.Equal(t, "m1", conf.session["merchantSessionIdentifier"])
	})

	t.Run("google pay", func(t *testing.T) {
		g, _, bodies := newGatewayServer(t)
		charge.Method = GooglePay
		id, err := g.Charge(ctx, charge)
		require.NoError(t, err)
		assert.Equal(t, "pi_gp", id)
		assert.Equal(t, "gp", bodies["/api/google-pay/process-payment"]["paymentData"].(map[string]any)["token"])
	})
}

func TestCatalog(t *testing.T) {
	for _, p := range Catalog() {
		assert.Equal(t, p.ID, ProductIDFromTitle(p.Title), p.Title)
		_, err := AmountFromPrice(p.Price)
		assert.NoError(t, err, p.Title)
	}

	p, ok := FindProduct("hero package")
	require.True(t, ok)
	assert.Equal(t, "hero", p.ID)
	p, ok = FindProduct("VIP")
	require.True(t, ok)
	assert.Equal(t, "VIP Status (1 Month)", p.Title)
	_, ok = FindProduct("castle")
	assert.False(t, ok)
}
