package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storepulse/internal/analytics"
	"storepulse/internal/domain"
	"storepulse/internal/events"
	"storepulse/internal/ingest"
	"storepulse/internal/metrics"
	analyticssvc "storepulse/internal/service/analytics"
	customersvc "storepulse/internal/service/customer"
	eventsvc "storepulse/internal/service/event"
	ordersvc "storepulse/internal/service/order"
	productsvc "storepulse/internal/service/product"
	tenantsvc "storepulse/internal/service/tenant"
	"storepulse/internal/store"
	"storepulse/internal/tenant"
	"storepulse/internal/webhook"
)

var nopLogger = zap.NewNop()

type testAPI struct {
	handler http.Handler
	store   *store.Store
}

func newTestAPI(t *testing.T, mutate func(*Deps)) testAPI {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemory()
	for _, tn := range []domain.Tenant{
		{ID: "tenant-001", Name: "Demo Store", Domain: "demo-store.myshopify.com"},
		{ID: "tenant-002", Name: "Tech Store", Domain: "tech-store.myshopify.com"},
	} {
		_, err := s.Tenants().Create(ctx, tn)
		require.NoError(t, err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	tracker := events.NewTracker(nil, m, nil)
	deps := Deps{
		Tenants:   tenantsvc.New(s.Tenants(), nil),
		Products:  productsvc.New(s, nil, nil),
		Customers: customersvc.New(s, 5),
		Orders:    ordersvc.New(s, nil),
		Analytics: analyticssvc.New(s, analytics.Options{}, m),
		Events:    eventsvc.New(s, tracker),
		Webhooks: webhook.NewDispatcher(tenant.NewResolver(s.Tenants(), nil), s, ingest.New(nil), tracker, nil,
			webhook.Options{Dedup: webhook.NewMemoryIdempotencyStore(), Metrics: m}),
		Gatherer: reg,
	}
	if mutate != nil {
		mutate(&deps)
	}
	return testAPI{handler: New(":0", nil, deps).Handler(), store: s}
}

func (a testAPI) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t, nil)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/readyz", nil).Code)

	api.do(t, http.MethodGet, "/api/v1/tenants/tenant-001/analytics", nil)
	rec := api.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storepulse_analytics_compute_duration_seconds")
}

func TestUnknownTenantRendersErrorShape(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodGet, "/api/v1/tenants/ghost/products", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body errorBody
	decodeBody(t, rec, &body)
	assert.Equal(t, "not_found", body.Error.Code)
	assert.NotEmpty(t, body.Error.Message)
}

func TestRegisterTenant(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodPost, "/api/v1/tenants", map[string]any{"name": "Books", "domain": "books.myshopify.com", "accessToken": "shpat_secret"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "shpat_secret")

	var tn domain.Tenant
	decodeBody(t, rec, &tn)
	assert.Equal(t, "books.myshopify.com", tn.Domain)

	rec = api.do(t, http.MethodPost, "/api/v1/tenants", map[string]any{"name": "Dup", "domain": "books.myshopify.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPatch, "/api/v1/tenants/"+tn.ID+"/settings", map[string]any{"theme": "dark"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &tn)
	assert.Equal(t, "dark", tn.Settings.Theme)

	rec = api.do(t, http.MethodPatch, "/api/v1/tenants/"+tn.ID+"/status", map[string]any{"status": "inactive"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProductCRUDAndIsolation(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodPost, "/api/v1/tenants/tenant-001/products", map[string]any{"name": "Mug", "category": "Kitchen", "price": "12.50", "stock": 4})
	require.Equal(t, http.StatusCreated, rec.Code)
	var p domain.Product
	decodeBody(t, rec, &p)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("12.5")))

	rec = api.do(t, http.MethodGet, "/api/v1/tenants/tenant-002/products/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPatch, "/api/v1/tenants/tenant-001/products/"+p.ID, map[string]any{"stock": 9})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &p)
	assert.Equal(t, 9, p.Stock)

	rec = api.do(t, http.MethodGet, "/api/v1/tenants/tenant-001/products?category=Kitchen", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Results []domain.Product `json:"results"`
		Count   int              `json:"count"`
	}
	decodeBody(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/api/v1/tenants/tenant-002/products/"+p.ID, nil).Code)
	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/api/v1/tenants/tenant-001/products/"+p.ID, nil).Code)

	rec = api.do(t, http.MethodPost, "/api/v1/tenants/tenant-001/products", map[string]any{"price": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/tenants/tenant-001/products?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderStatusTransitions(t *testing.T) {
	api := newTestAPI(t, nil)
	items := []domain.OrderItem{{ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(5)}}
	o, err := api.store.Tenant("tenant-001").CreateOrder(context.Background(), domain.Order{
		Items: items, Total: domain.ComputeTotal(items), Status: domain.OrderPending, OrderDate: time.Now().UTC(),
	})
	require.NoError(t, err)

	rec := api.do(t, http.MethodPatch, "/api/v1/tenants/tenant-001/orders/"+o.ID+"/status", map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPatch, "/api/v1/tenants/tenant-001/orders/"+o.ID+"/status", map[string]any{"status": "shipped"})
	require.Equal(t, http.StatusConflict, rec.Code)
	var body errorBody
	decodeBody(t, rec, &body)
	assert.Equal(t, "invalid_transition", body.Error.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/tenants/tenant-001/orders?status=cancelled&from=2000-01-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), o.ID)

	rec = api.do(t, http.MethodGet, "/api/v1/tenants/tenant-001/orders?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomersAndAnalytics(t *testing.T) {
	api := newTestAPI(t, nil)
	ctx := context.Background()
	for _, c := range []domain.Customer{
		{ID: "c1", Name: "Ann", TotalSpent: decimal.NewFromInt(100), TotalOrders: 3},
		{ID: "c2", Name: "Bo", TotalSpent: decimal.NewFromInt(100), TotalOrders: 5},
	} {
		_, err := api.store.Tenant("tenant-001").CreateCustomer(ctx, c)
		require.NoError(t, err)
	}

	rec := api.do(t, http.MethodGet, "/api/v1/tenants/tenant-001/customers/top?n=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var top struct {
		Results []domain.Customer `json:"results"`
	}
	decodeBody(t, rec, &top)
	require.Len(t, top.Results, 1)
	assert.Equal(t, "c2", top.Results[0].ID)

	rec = api.do(t, http.MethodGet, "/api/v1/tenants/tenant-001/customers/c1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/tenants/tenant-002/analytics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var a analytics.Analytics
	decodeBody(t, rec, &a)
	assert.Zero(t, a.TotalOrders)
	assert.Len(t, a.OrderStatusDistribution, 5)
}

func TestEventsEndpoints(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodPost, "/api/v1/tenants/tenant-001/events", map[string]any{
		"type": "product_viewed", "sessionId": "s1", "data": map[string]any{"productId": "p1", "productName": "Mug", "productPrice": "3"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/tenants/tenant-001/events", map[string]any{"type": "page_scrolled", "sessionId": "s1", "data": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/tenants/tenant-001/events?type=product_viewed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"product_viewed"`)
}

func TestWebhookEndpoint(t *testing.T) {
	api := newTestAPI(t, nil)
	order := map[string]any{
		"id": 1001, "total_price": "20.00", "financial_status": "paid", "created_at": "2024-03-01T10:00:00Z",
		"line_items": []map[string]any{{"product_id": 7, "title": "Mug", "quantity": 2, "price": "10.00"}},
	}

	rec := api.do(t, http.MethodPost, "/webhooks/shopify", map[string]any{"topic": "inventory/levels", "shop_domain": "demo-store.myshopify.com", "data": map[string]any{}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")

	rec = api.do(t, http.MethodPost, "/webhooks/shopify", map[string]any{"topic": "orders/create", "shop_domain": "nobody.myshopify.com", "data": order})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/webhooks/shopify", map[string]any{"topic": "orders/create", "shop_domain": "demo-store.myshopify.com", "data": map[string]any{"id": 5, "total_price": "x"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(t, http.MethodPost, "/webhooks/shopify", "not json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(t, http.MethodPost, "/webhooks/shopify", order,
		headerTopic, "orders/create", headerShopDomain, "demo-store.myshopify.com", headerWebhookID, "wh-1")
	require.Equal(t, http.StatusOK, rec.Code)
	orders, err := api.store.Tenant("tenant-001").ListOrders(context.Background(), domain.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	rec = api.do(t, http.MethodPost, "/webhooks/shopify", order,
		headerTopic, "orders/create", headerShopDomain, "demo-store.myshopify.com", headerWebhookID, "wh-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate")
}

func TestWebhookSignature(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) { d.WebhookSecret = "s3cret" })
	body := `{"topic":"app/uninstalled","shop_domain":"demo-store.myshopify.com","data":{}}`

	rec := api.do(t, http.MethodPost, "/webhooks/shopify", body, headerHmac, "bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/webhooks/shopify", body, headerHmac, webhook.Sign("s3cret", []byte(body)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSyncEndpointsWithoutScheduler(t *testing.T) {
	api := newTestAPI(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, api.do(t, http.MethodGet, "/api/v1/sync/status", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, api.do(t, http.MethodPost, "/api/v1/sync/run", nil).Code)
}
