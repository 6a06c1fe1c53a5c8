package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"storepulse/internal/domain"
	"storepulse/internal/metrics"
)

const pageSize = 250

// ClientConfig configures Client.
type ClientConfig struct {
	APIVersion string
	// AccessToken is the fallback for tenants without their own token.
	AccessToken string
	// BaseURL replaces https://{store domain} when set.
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MaxPages      int
}

// Client talks to the platform's Admin REST API. Requests to each store are
// rate limited and guarded by a per-store circuit breaker.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewClient(cfg ClientConfig, logger *zap.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2023-10"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 20
	}
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
		metrics:  m,
		limiters: map[string]*rate.Limiter{},
		breakers: map[string]*gobreaker.CircuitBreaker{},
	}
}

// FetchProducts returns every product of the tenant's store as raw JSON.
func (c *Client) FetchProducts(ctx context.Context, t domain.Tenant) ([]json.RawMessage, error) {
	return c.fetchAll(ctx, t, "products", nil)
}

// FetchCustomers returns every customer of the tenant's store as raw JSON.
func (c *Client) FetchCustomers(ctx context.Context, t domain.Tenant) ([]json.RawMessage, error) {
	return c.fetchAll(ctx, t, "customers", nil)
}

// FetchOrders returns every order, open or closed, as raw JSON.
func (c *Client) FetchOrders(ctx context.Context, t domain.Tenant) ([]json.RawMessage, error) {
	return c.fetchAll(ctx, t, "orders", url.Values{"status": {"any"}})
}

// PushProduct sends a product patch to the store.
func (c *Client) PushProduct(ctx context.Context, t domain.Tenant, patch ExternalPatch) error {
	if patch.Kind != KindProduct {
		return fmt.Errorf("%w: cannot push %s records", domain.ErrInvalid, patch.Kind)
	}
	fields := map[string]any{"id": patch.ExternalID}
	for k, v := range patch.Fields {
		fields[k] = v
	}
	body, err := json.Marshal(map[string]any{"product": fields})
	if err != nil {
		return err
	}
	u := c.baseURL(t) + "/admin/api/" + c.cfg.APIVersion + "/products/" + url.PathEscape(patch.ExternalID) + ".json"
	_, _, err = c.do(ctx, t, "products", http.MethodPut, u, body)
	return err
}

func (c *Client) fetchAll(ctx context.Context, t domain.Tenant, resource string, extra url.Values) ([]json.RawMessage, error) {
	q := url.Values{"limit": {fmt.Sprint(pageSize)}}
	for k, v := range extra {
		q[k] = v
	}
	next := c.baseURL(t) + "/admin/api/" + c.cfg.APIVersion + "/" + resource + ".json?" + q.Encode()

	var records []json.RawMessage
	for page := 0; next != "" && page < c.cfg.MaxPages; page++ {
		body, header, err := c.do(ctx, t, resource, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		var envelope map[string][]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("%w: decode %s page: %v", domain.ErrUpstreamUnavailable, resource, err)
		}
		records = append(records, envelope[resource]...)
		next = nextPageURL(header.Get("Link"))
	}
	if next != "" {
		c.logger.Warn("shopify client: page limit reached", zap.String("tenant_id", t.ID), zap.String("resource", resource), zap.Int("max_pages", c.cfg.MaxPages))
	}
	c.logger.Debug("shopify client: fetched", zap.String("tenant_id", t.ID), zap.String("resource", resource), zap.Int("count", len(records)))
	return records, nil
}

func (c *Client) do(ctx context.Context, t domain.Tenant, resource, method, target string, body []byte) ([]byte, http.Header, error) {
	token := t.AccessToken
	if token == "" {
		token = c.cfg.AccessToken
	}
	if token == "" {
		return nil, nil, fmt.Errorf("%w: no access token for %s", domain.ErrUpstreamUnavailable, t.Domain)
	}

	limiter, breaker := c.guards(t.Domain)
	if err := limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrUpstreamUnavailable, err)
	}

	type response struct {
		body   []byte
		header http.Header
	}
	out, err := breaker.Execute(func() (interface{}, error) {
		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(reqCtx, method, target, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Shopify-Access-Token", token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%s %s: status %d", method, resource, resp.StatusCode)
		}
		return response{body: payload, header: resp.Header}, nil
	})
	if err != nil {
		c.metrics.Upstream(resource, "error")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("shopify client: circuit open", zap.String("tenant_id", t.ID), zap.String("domain", t.Domain))
		} else {
			c.logger.Error("shopify client: request failed", zap.String("tenant_id", t.ID), zap.String("resource", resource), zap.Error(err))
		}
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	c.metrics.Upstream(resource, "ok")
	res := out.(response)
	return res.body, res.header, nil
}

func (c *Client) guards(storeDomain string) (*rate.Limiter, *gobreaker.CircuitBreaker) {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[storeDomain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(c.cfg.RatePerSecond), c.cfg.Burst)
		c.limiters[storeDomain] = limiter
	}
	breaker, ok := c.breakers[storeDomain]
	if !ok {
		breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "shopify-" + storeDomain,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Info("shopify client: circuit breaker state changed",
					zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
			},
		})
		c.breakers[storeDomain] = breaker
	}
	return limiter, breaker
}

func (c *Client) baseURL(t domain.Tenant) string {
	if c.cfg.BaseURL != "" {
		return strings.TrimRight(c.cfg.BaseURL, "/")
	}
	return "https://" + domain.NormalizeDomain(t.Domain)
}

// nextPageURL extracts the rel="next" target of a Link header.
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, attr := range segments[1:] {
			if strings.ReplaceAll(strings.TrimSpace(attr), " ", "") == `rel="next"` {
				return strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">")
			}
		}
	}
	return ""
}
