// Package ingest maps platform records and upserts them for one tenant.
// Webhooks and the periodic sweep share it.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"storepulse/internal/domain"
	"storepulse/internal/shopify"
)

// Writer is the tenant-bound upsert surface, satisfied by *store.Tenant.
type Writer interface {
	ID() string
	UpsertProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpsertCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	UpsertOrder(ctx context.Context, o domain.Order) (*domain.Order, error)
}

// Result counts the outcome of a batch.
type Result struct {
	Kind     shopify.Kind `json:"kind"`
	Upserted int          `json:"upserted"`
	Failed   int          `json:"failed"`
}

type Ingester struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{logger: logger}
}

// Product maps raw and upserts it by external id.
func (i *Ingester) Product(ctx context.Context, w Writer, raw json.RawMessage) (*domain.Product, error) {
	rec, err := shopify.ToCanonical(shopify.KindProduct, raw)
	if err != nil {
		return nil, err
	}
	p, err := w.UpsertProduct(ctx, *rec.Product)
	if err != nil {
		return nil, fmt.Errorf("upsert product %s: %w", rec.Product.ExternalID, err)
	}
	return p, nil
}

// Customer maps raw and upserts it by external id.
func (i *Ingester) Customer(ctx context.Context, w Writer, raw json.RawMessage) (*domain.Customer, error) {
	rec, err := shopify.ToCanonical(shopify.KindCustomer, raw)
	if err != nil {
		return nil, err
	}
	c, err := w.UpsertCustomer(ctx, *rec.Customer)
	if err != nil {
		return nil, fmt.Errorf("upsert customer %s: %w", rec.Customer.ExternalID, err)
	}
	return c, nil
}

// Order maps raw, upserts the embedded customer first so the order can
// reference its internal id, then upserts the order.
func (i *Ingester) Order(ctx context.Context, w Writer, raw json.RawMessage) (*domain.Order, error) {
	rec, err := shopify.ToCanonical(shopify.KindOrder, raw)
	if err != nil {
		return nil, err
	}
	order := *rec.Order
	if rec.Customer != nil {
		c, err := w.UpsertCustomer(ctx, *rec.Customer)
		if err != nil {
			return nil, fmt.Errorf("upsert customer %s of order %s: %w", rec.Customer.ExternalID, order.ExternalID, err)
		}
		order.CustomerID = c.ID
		if order.CustomerName == "" {
			order.CustomerName = c.Name
		}
	}
	o, err := w.UpsertOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("upsert order %s: %w", order.ExternalID, err)
	}
	return o, nil
}

// Batch ingests records of one kind. A failing record is logged and
// counted; the rest of the batch continues.
func (i *Ingester) Batch(ctx context.Context, w Writer, kind shopify.Kind, records []json.RawMessage) Result {
	res := Result{Kind: kind}
	for _, raw := range records {
		if ctx.Err() != nil {
			res.Failed += len(records) - res.Upserted - res.Failed
			break
		}
		var err error
		switch kind {
		case shopify.KindProduct:
			_, err = i.Product(ctx, w, raw)
		case shopify.KindCustomer:
			_, err = i.Customer(ctx, w, raw)
		case shopify.KindOrder:
			_, err = i.Order(ctx, w, raw)
		default:
			err = fmt.Errorf("%w: unknown record kind %q", domain.ErrMalformedRecord, kind)
		}
		if err != nil {
			res.Failed++
			i.logger.Warn("ingest: record skipped", zap.String("tenant_id", w.ID()), zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		res.Upserted++
	}
	return res
}
