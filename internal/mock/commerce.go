package mock

import (
	"context"
	"time"

	"github.com/heartofacheron/site/internal/models"
	"github.com/heartofacheron/site/internal/store"
)

// Commerce is the append-only order ledger.
type Commerce struct {
	st *state
}

func (c *Commerce) sampleOrders() []models.Order {
	now := c.st.now().UTC()
	day := 24 * time.Hour
	return []models.Order{
		{
			OrderID:         "mock_order_001",
			CustomerEmail:   DevEmail,
			SteamID:         DevSteamID,
			CharacterName:   DevCharacterName,
			ProductID:       "weapon",
			ProductName:     "Legendary Weapon",
			Price:           5.00,
			PaymentProvider: models.ProviderStripe,
			PaymentIntentID: "pi_mock_001",
			Status:          models.OrderDelivered,
			CreatedAt:       now.Add(-2 * day),
			DeliveredAt:     ptr(now.Add(-2*day + 5*time.Minute)),
		},
		{
			OrderID:         "mock_order_002",
			CustomerEmail:   DevEmail,
			SteamID:         DevSteamID,
			CharacterName:   DevCharacterName,
			ProductID:       "armor",
			ProductName:     "Elite Armor Set",
			Price:           8.00,
			PaymentProvider: models.ProviderPayPal,
			PaymentIntentID: "paypal_mock_002",
			Status:          models.OrderDelivered,
			CreatedAt:       now.Add(-5 * day),
			DeliveredAt:     ptr(now.Add(-5*day + 3*time.Minute)),
		},
		{
			OrderID:         "mock_order_003",
			CustomerEmail:   DevEmail,
			SteamID:         DevSteamID,
			CharacterName:   DevCharacterName,
			ProductID:       "vip",
			ProductName:     "VIP Status (1 Month)",
			Price:           15.00,
			PaymentProvider: models.ProviderStripe,
			PaymentIntentID: "pi_mock_003",
			Status:          models.OrderProcessing,
			CreatedAt:       now.Add(-1 * time.Hour),
		},
	}
}

// orders must be called with the lock held.
func (c *Commerce) orders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if _, err := store.LoadJSON(ctx, c.st.store, store.KeyMockOrders, &orders); err != nil {
		return nil, err
	}
	if len(orders) > 0 {
		return orders, nil
	}

	orders = c.sampleOrders()
	if err := store.SaveJSON(ctx, c.st.store, store.KeyMockOrders, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Orders lists the ledger, seeding three sample orders when it is empty.
func (c *Commerce) Orders(ctx context.Context) ([]models.Order, error) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	return c.orders(ctx)
}

// AddOrder appends o. Missing id, status and delivery time get defaults;
// the creation time is always now. No duplicate or payment checks happen.
func (c *Commerce) AddOrder(ctx context.Context, o models.Order) (models.Order, error) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()

	orders, err := c.orders(ctx)
	if err != nil {
		return models.Order{}, err
	}

	now := c.st.now().UTC()
	if o.OrderID == "" {
		o.OrderID = c.st.newID("mock_order_", func(id string) bool {
			for _, existing := range orders {
				if existing.OrderID == id {
					return true
				}
			}
			return false
		})
	}
	if o.Status == "" {
		o.Status = models.OrderDelivered
	}
	if o.DeliveredAt == nil {
		o.DeliveredAt = ptr(now)
	}
	o.CreatedAt = now

	orders = append(orders, o)
	if err := store.SaveJSON(ctx, c.st.store, store.KeyMockOrders, orders); err != nil {
		return models.Order{}, err
	}
	c.st.log.Info(ctx, "mock order created", "order_id", o.OrderID, "provider", o.PaymentProvider)
	return o, nil
}
