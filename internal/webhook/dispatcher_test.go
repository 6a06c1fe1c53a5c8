package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepulse/internal/domain"
	"storepulse/internal/events"
	"storepulse/internal/ingest"
	"storepulse/internal/store"
	"storepulse/internal/tenant"
)

const (
	orderJSON = `{
		"id": 1001,
		"email": "ana@example.com",
		"total_price": "25.00",
		"financial_status": "paid",
		"created_at": "2024-03-01T10:00:00Z",
		"customer": {"id": 501, "first_name": "Ana", "last_name": "Silva", "email": "ana@example.com"},
		"line_items": [{"product_id": 77, "title": "Mug", "quantity": 2, "price": "12.50"}]
	}`
	customerJSON = `{"id": 502, "first_name": "Bo", "email": "bo@example.com", "orders_count": 0, "total_spent": "0.00"}`
	productJSON  = `{"id": 77, "title": "Mug", "product_type": "Kitchen", "variants": [{"price": "12.50", "inventory_quantity": 9}]}`
)

type fixture struct {
	store *store.Store
	d     *Dispatcher
	dedup *MemoryIdempotencyStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := store.NewMemory()
	_, err := s.Tenants().Create(context.Background(), domain.Tenant{ID: "tenant-001", Name: "Demo", Domain: "demo-store.myshopify.com"})
	require.NoError(t, err)
	dedup := NewMemoryIdempotencyStore()
	d := NewDispatcher(tenant.NewResolver(s.Tenants(), nil), s, ingest.New(nil), events.NewTracker(nil, nil, nil), nil, Options{Dedup: dedup})
	return fixture{store: s, d: d, dedup: dedup}
}

func (f fixture) events(t *testing.T) []domain.CustomEvent {
	t.Helper()
	evs, err := f.store.Tenant("tenant-001").ListEvents(context.Background(), domain.EventFilter{})
	require.NoError(t, err)
	return evs
}

func TestDispatchOrderCreateUpsertsAndTracksCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.d.Dispatch(ctx, Notification{Topic: TopicOrdersCreate, ShopDomain: "demo-store.myshopify.com", Data: json.RawMessage(orderJSON)})
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, out)

	orders, err := f.store.Tenant("tenant-001").ListOrders(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "1001", orders[0].ExternalID)
	assert.Equal(t, domain.OrderProcessing, orders[0].Status)
	assert.Equal(t, "25", orders[0].Total.String())
	assert.NotEmpty(t, orders[0].CustomerID)

	customers, err := f.store.Tenant("tenant-001").ListCustomers(ctx, domain.CustomerFilter{})
	require.NoError(t, err)
	require.Len(t, customers, 1)

	evs := f.events(t)
	require.Len(t, evs, 1)
	assert.Equal(t, domain.EventCheckoutStarted, evs[0].Kind)
	assert.Equal(t, "order-1001", evs[0].SessionID)
	assert.Equal(t, orders[0].CustomerID, evs[0].UserID)
	payload, ok := evs[0].Payload.(domain.CheckoutStarted)
	require.True(t, ok)
	assert.Equal(t, "initiated", payload.CheckoutStep)
	require.Len(t, payload.CartItems, 1)
	assert.Equal(t, 2, payload.CartItems[0].Quantity)
}

func TestDispatchOrderUpdatedDoesNotTrack(t *testing.T) {
	f := newFixture(t)
	_, err := f.d.Dispatch(context.Background(), Notification{Topic: TopicOrdersUpdated, ShopDomain: "demo-store.myshopify.com", Data: json.RawMessage(orderJSON)})
	require.NoError(t, err)
	assert.Empty(t, f.events(t))
}

func TestDispatchCustomerCreateTracksRegistration(t *testing.T) {
	f := newFixture(t)
	_, err := f.d.Dispatch(context.Background(), Notification{ID: "wh-1", Topic: TopicCustomersCreate, ShopDomain: "DEMO-STORE.myshopify.com", Data: json.RawMessage(customerJSON)})
	require.NoError(t, err)

	evs := f.events(t)
	require.Len(t, evs, 1)
	assert.Equal(t, domain.EventUserRegistered, evs[0].Kind)
	assert.Equal(t, "webhook-wh-1", evs[0].SessionID)
	assert.Equal(t, domain.UserRegistered{RegistrationMethod: "email", UserRole: "customer"}, evs[0].Payload)
}

func TestDispatchUpdateTopics(t *testing.T) {
	cases := []struct {
		topic string
		data  string
	}{
		{topic: "products/updated", data: productJSON},
		{topic: "products/update", data: productJSON},
		{topic: "customers/updated", data: customerJSON},
		{topic: "customers/update", data: customerJSON},
	}
	for _, tc := range cases {
		t.Run(tc.topic, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			outcome, err := f.d.Dispatch(ctx, Notification{Topic: tc.topic, ShopDomain: "demo-store.myshopify.com", Data: json.RawMessage(tc.data)})
			require.NoError(t, err)
			assert.Equal(t, OutcomeProcessed, outcome)

			scope := f.store.Tenant("tenant-001")
			products, err := scope.ListProducts(ctx, domain.ProductFilter{})
			require.NoError(t, err)
			customers, err := scope.ListCustomers(ctx, domain.CustomerFilter{})
			require.NoError(t, err)
			assert.Equal(t, 1, len(products)+len(customers))
			if len(products) == 1 {
				assert.Equal(t, 9, products[0].Stock)
			}
			assert.Empty(t, f.events(t))
		})
	}
}

func TestDispatchCartWithRecoveryURL(t *testing.T) {
	f := newFixture(t)
	cart := `{"token": "c1", "abandoned_checkout_url": "https://demo/recover/c1", "updated_at": "2024-03-02T08:00:00Z",
		"line_items": [{"product_id": 77, "title": "Mug", "quantity": 3, "price": "2.00"}]}`
	_, err := f.d.Dispatch(context.Background(), Notification{Topic: TopicCartsUpdate, ShopDomain: "demo-store.myshopify.com", Data: json.RawMessage(cart)})
	require.NoError(t, err)

	evs := f.events(t)
	require.Len(t, evs, 1)
	p, ok := evs[0].Payload.(domain.CartAbandoned)
	require.True(t, ok)
	assert.Equal(t, "6", p.CartValue.String())
	assert.Equal(t, "https://demo/recover/c1", p.PageURL)
	assert.Equal(t, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), p.AbandonedAt)
	assert.Equal(t, "cart-c1", evs[0].SessionID)
}

func TestDispatchCartWithoutRecoveryURL(t *testing.T) {
	f := newFixture(t)
	out, err := f.d.Dispatch(context.Background(), Notification{Topic: TopicCartsUpdate, ShopDomain: "demo-store.myshopify.com", Data: json.RawMessage(`{"token":"c2","line_items":[]}`)})
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, out)
	assert.Empty(t, f.events(t))
}

func TestDispatchUnknownTopicIsNoop(t *testing.T) {
	f := newFixture(t)
	out, err := f.d.Dispatch(context.Background(), Notification{Topic: "app/uninstalled", ShopDomain: "demo-store.myshopify.com", Data: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)
	assert.Empty(t, f.events(t))
}

func TestDispatchUnknownShop(t *testing.T) {
	f := newFixture(t)
	_, err := f.d.Dispatch(context.Background(), Notification{Topic: TopicOrdersCreate, ShopDomain: "nobody.myshopify.com", Data: json.RawMessage(orderJSON)})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, IsClientError(err))
}

func TestDispatchMalformedPayloadWritesNothing(t *testing.T) {
	f := newFixture(t)
	_, err := f.d.Dispatch(context.Background(), Notification{ID: "wh-bad", Topic: TopicOrdersCreate, ShopDomain: "demo-store.myshopify.com", Data: json.RawMessage(`{"id": 5, "total_price": "abc"}`)})
	require.ErrorIs(t, err, domain.ErrMalformedRecord)
	assert.Empty(t, f.events(t))

	done, err := f.dedup.IsProcessed(context.Background(), "wh-bad")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestDispatchDuplicateDeliverySkipped(t *testing.T) {
	f := newFixture(t)
	n := Notification{ID: "wh-7", Topic: TopicOrdersCreate, ShopDomain: "demo-store.myshopify.com", Data: json.RawMessage(orderJSON)}

	out, err := f.d.Dispatch(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, out)

	out, err = f.d.Dispatch(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, out)
	assert.Len(t, f.events(t), 1)
}

func TestDispatchRedeliveryIsIdempotent(t *testing.T) {
	f := newFixture(t)
	d := NewDispatcher(tenant.NewResolver(f.store.Tenants(), nil), f.store, ingest.New(nil), events.NewTracker(nil, nil, nil), nil, Options{})
	n := Notification{Topic: TopicOrdersUpdated, ShopDomain: "demo-store.myshopify.com", Data: json.RawMessage(orderJSON)}
	for i := 0; i < 2; i++ {
		_, err := d.Dispatch(context.Background(), n)
		require.NoError(t, err)
	}
	orders, err := f.store.Tenant("tenant-001").ListOrders(context.Background(), domain.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestIsClientError(t *testing.T) {
	assert.False(t, IsClientError(errors.New("connection reset")))
	assert.True(t, IsClientError(domain.ErrMalformedRecord))
}
