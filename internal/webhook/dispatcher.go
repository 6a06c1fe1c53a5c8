// Package webhook applies commerce platform notifications to the owning
// tenant's data and derives behavioral events from them.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storepulse/internal/domain"
	"storepulse/internal/events"
	"storepulse/internal/ingest"
	"storepulse/internal/metrics"
	"storepulse/internal/shopify"
	"storepulse/internal/store"
)

const (
	TopicOrdersCreate    = "orders/create"
	TopicOrdersUpdated   = "orders/updated"
	TopicOrdersPaid      = "orders/paid"
	TopicOrdersFulfilled = "orders/fulfilled"
	TopicOrdersCancelled = "orders/cancelled"
	TopicCustomersCreate = "customers/create"
	TopicCustomersUpdate = "customers/updated"
	TopicProductsCreate  = "products/create"
	TopicProductsUpdate  = "products/updated"
	TopicCartsUpdate     = "carts/update"

	// The platform spells some update topics without the trailing "d".
	topicCustomersUpdateAlias = "customers/update"
	topicProductsUpdateAlias  = "products/update"
)

const (
	defaultDedupTTL       = 24 * time.Hour
	checkoutStepInitiated = "initiated"
)

// Outcome reports what Dispatch did with a notification.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDuplicate Outcome = "duplicate"
)

// Notification is one inbound webhook delivery.
type Notification struct {
	ID         string          `json:"-"`
	Topic      string          `json:"topic"`
	ShopDomain string          `json:"shop_domain"`
	Data       json.RawMessage `json:"data"`
}

// Resolver maps a shop domain to its tenant.
type Resolver interface {
	Resolve(ctx context.Context, externalDomain string) (*domain.Tenant, error)
}

// Scoper hands out tenant-bound store handles, satisfied by *store.Store.
type Scoper interface {
	Tenant(tenantID string) *store.Tenant
}

// Tracker records derived events without failing the caller.
type Tracker interface {
	Track(ctx context.Context, tenant events.Appender, sessionID, userID string, payload domain.EventPayload)
}

type Options struct {
	// Dedup is optional; without it every delivery is processed.
	Dedup    IdempotencyStore
	DedupTTL time.Duration
	Metrics  *metrics.Metrics
}

type Dispatcher struct {
	resolver Resolver
	store    Scoper
	ingester *ingest.Ingester
	tracker  Tracker
	dedup    IdempotencyStore
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewDispatcher(resolver Resolver, s Scoper, ingester *ingest.Ingester, tracker Tracker, logger *zap.Logger, opts Options) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.DedupTTL
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &Dispatcher{
		resolver: resolver,
		store:    s,
		ingester: ingester,
		tracker:  tracker,
		dedup:    opts.Dedup,
		ttl:      ttl,
		metrics:  opts.Metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch resolves the tenant, applies the notification and records the
// derived event after the repository mutation succeeded. Unknown topics
// are ignored without error.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) (Outcome, error) {
	outcome, err := d.dispatch(ctx, n)
	if err != nil {
		d.metrics.Webhook(n.Topic, "error")
		d.logger.Warn("webhook: dispatch failed",
			zap.String("topic", n.Topic),
			zap.String("shop_domain", n.ShopDomain),
			zap.String("webhook_id", n.ID),
			zap.Error(err))
		return "", err
	}
	d.metrics.Webhook(n.Topic, string(outcome))
	return outcome, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, n Notification) (Outcome, error) {
	if n.ID != "" && d.dedup != nil {
		done, err := d.dedup.IsProcessed(ctx, n.ID)
		if err != nil {
			d.logger.Warn("webhook: dedup lookup failed", zap.String("webhook_id", n.ID), zap.Error(err))
		} else if done {
			return OutcomeDuplicate, nil
		}
	}

	t, err := d.resolver.Resolve(ctx, n.ShopDomain)
	if err != nil {
		return "", err
	}
	scope := d.store.Tenant(t.ID)

	outcome := OutcomeProcessed
	switch n.Topic {
	case TopicOrdersCreate, TopicOrdersUpdated, TopicOrdersPaid, TopicOrdersFulfilled, TopicOrdersCancelled:
		err = d.order(ctx, scope, n)
	case TopicCustomersCreate, TopicCustomersUpdate, topicCustomersUpdateAlias:
		err = d.customer(ctx, scope, n)
	case TopicProductsCreate, TopicProductsUpdate, topicProductsUpdateAlias:
		_, err = d.ingester.Product(ctx, scope, n.Data)
	case TopicCartsUpdate:
		err = d.cart(ctx, scope, n)
	default:
		d.logger.Debug("webhook: topic ignored", zap.String("topic", n.Topic), zap.String("tenant_id", t.ID))
		outcome = OutcomeIgnored
	}
	if err != nil {
		return "", err
	}

	if n.ID != "" && d.dedup != nil {
		if _, err := d.dedup.MarkProcessed(ctx, n.ID, d.ttl); err != nil {
			d.logger.Warn("webhook: dedup mark failed", zap.String("webhook_id", n.ID), zap.Error(err))
		}
	}
	return outcome, nil
}

func (d *Dispatcher) order(ctx context.Context, scope *store.Tenant, n Notification) error {
	o, err := d.ingester.Order(ctx, scope, n.Data)
	if err != nil {
		return err
	}
	if n.Topic != TopicOrdersCreate {
		return nil
	}
	items := make([]domain.CartItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, domain.CartItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}
	d.tracker.Track(ctx, scope, sessionID(n, "order-"+o.ExternalID), o.CustomerID, domain.CheckoutStarted{
		CartItems:    items,
		CartValue:    o.Total,
		CheckoutStep: checkoutStepInitiated,
	})
	return nil
}

func (d *Dispatcher) customer(ctx context.Context, scope *store.Tenant, n Notification) error {
	c, err := d.ingester.Customer(ctx, scope, n.Data)
	if err != nil {
		return err
	}
	if n.Topic != TopicCustomersCreate {
		return nil
	}
	d.tracker.Track(ctx, scope, sessionID(n, "customer-"+c.ExternalID), c.ID, domain.UserRegistered{
		RegistrationMethod: "email",
		UserRole:           "customer",
	})
	return nil
}

// cart emits cart_abandoned when the platform attached a recovery URL.
// Carts are never stored.
func (d *Dispatcher) cart(ctx context.Context, scope *store.Tenant, n Notification) error {
	var c shopify.Cart
	if err := json.Unmarshal(n.Data, &c); err != nil {
		return fmt.Errorf("%w: cart: %v", domain.ErrMalformedRecord, err)
	}
	if c.AbandonedCheckoutURL == "" {
		return nil
	}
	items, value, err := shopify.CartItems(c.LineItems)
	if err != nil {
		return err
	}
	abandonedAt := c.UpdatedAt.Time
	if abandonedAt.IsZero() {
		abandonedAt = d.now()
	}
	key := c.Token
	if key == "" {
		key = string(c.ID)
	}
	d.tracker.Track(ctx, scope, sessionID(n, "cart-"+key), "", domain.CartAbandoned{
		CartItems:   items,
		CartValue:   value,
		AbandonedAt: abandonedAt.UTC(),
		PageURL:     c.AbandonedCheckoutURL,
	})
	return nil
}

func sessionID(n Notification, fallback string) string {
	if n.ID != "" {
		return "webhook-" + n.ID
	}
	return fallback
}

// IsClientError reports whether err was caused by the notification itself
// rather than by storage or the platform.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrMalformedRecord) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalid) ||
		errors.Is(err, domain.ErrUnauthorized)
}
