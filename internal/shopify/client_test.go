package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepulse/internal/domain"
)

func testClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		APIVersion:    "2023-10",
		BaseURL:       baseURL,
		Timeout:       2 * time.Second,
		RatePerSecond: 1000,
		Burst:         100,
		MaxPages:      5,
	}, nil, nil)
}

func TestFetchProductsFollowsPagination(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shpat_token", r.Header.Get("X-Shopify-Access-Token"))
		assert.Equal(t, "/admin/api/2023-10/products.json", r.URL.Path)
		if r.URL.Query().Get("page_info") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2023-10/products.json?limit=250&page_info=p2>; rel="next"`, srv.URL))
			fmt.Fprint(w, `{"products":[{"id":1},{"id":2}]}`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2023-10/products.json?limit=250&page_info=p1>; rel="previous"`, srv.URL))
		fmt.Fprint(w, `{"products":[{"id":3}]}`)
	}))
	defer srv.Close()

	records, err := testClient(srv.URL).FetchProducts(context.Background(), domain.Tenant{ID: "t1", Domain: "demo.myshopify.com", AccessToken: "shpat_token"})
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestFetchOrdersAsksForAllStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "any", r.URL.Query().Get("status"))
		fmt.Fprint(w, `{"orders":[]}`)
	}))
	defer srv.Close()

	records, err := testClient(srv.URL).FetchOrders(context.Background(), domain.Tenant{ID: "t1", AccessToken: "x"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNon2xxIsUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchCustomers(context.Background(), domain.Tenant{ID: "t1", AccessToken: "x"})
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestMissingTokenIsUpstreamUnavailable(t *testing.T) {
	_, err := testClient("http://127.0.0.1:1").FetchProducts(context.Background(), domain.Tenant{ID: "t1"})
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	tenant := domain.Tenant{ID: "t1", Domain: "flaky.myshopify.com", AccessToken: "x"}
	for i := 0; i < 7; i++ {
		_, err := c.FetchProducts(context.Background(), tenant)
		require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))
}

func TestPushProduct(t *testing.T) {
	var got map[string]map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/admin/api/2023-10/products/632910392.json", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		fmt.Fprint(w, `{"product":{}}`)
	}))
	defer srv.Close()

	name := "Renamed"
	patch, err := ToExternalPatch(KindProduct, "632910392", domain.ProductPatch{Name: &name})
	require.NoError(t, err)
	require.NoError(t, testClient(srv.URL).PushProduct(context.Background(), domain.Tenant{ID: "t1", AccessToken: "x"}, patch))
	assert.Equal(t, "Renamed", got["product"]["title"])
	assert.Equal(t, "632910392", got["product"]["id"])
}

func TestNextPageURL(t *testing.T) {
	link := `<https://s.myshopify.com/a?page_info=1>; rel="previous", <https://s.myshopify.com/a?page_info=2>; rel="next"`
	assert.Equal(t, "https://s.myshopify.com/a?page_info=2", nextPageURL(link))
	assert.Equal(t, "", nextPageURL(""))
}
