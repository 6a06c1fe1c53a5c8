package product

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepulse/internal/domain"
	"storepulse/internal/shopify"
	"storepulse/internal/store"
)

type stubPusher struct {
	pushed []shopify.ExternalPatch
	tenant domain.Tenant
	err    error
}

func (s *stubPusher) PushProduct(_ context.Context, t domain.Tenant, patch shopify.ExternalPatch) error {
	s.tenant = t
	s.pushed = append(s.pushed, patch)
	return s.err
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.NewMemory()
	_, err := s.Tenants().Create(context.Background(), domain.Tenant{ID: "tenant-001", Name: "Demo", Domain: "demo-store.myshopify.com"})
	require.NoError(t, err)
	return s
}

func strPtr(s string) *string { return &s }

func TestCreateDefaultsStatus(t *testing.T) {
	svc := New(newStore(t), nil, nil)
	p, err := svc.Create(context.Background(), "tenant-001", domain.Product{Name: "Mug", Price: decimal.NewFromInt(12)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, p.Status)
	assert.Equal(t, "tenant-001", p.TenantID)

	_, err = svc.Create(context.Background(), "tenant-001", domain.Product{Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, domain.ErrInvalid)
}

func TestUpdatePushesSyncedProducts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	pusher := &stubPusher{}
	svc := New(s, pusher, nil)

	synced, err := s.Tenant("tenant-001").UpsertProduct(ctx, domain.Product{ExternalID: "77", Name: "Mug", Price: decimal.NewFromInt(10), Status: domain.StatusActive})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "tenant-001", synced.ID, domain.ProductPatch{Name: strPtr("Big Mug")})
	require.NoError(t, err)
	assert.Equal(t, "Big Mug", updated.Name)
	require.Len(t, pusher.pushed, 1)
	assert.Equal(t, "77", pusher.pushed[0].ExternalID)
	assert.Equal(t, "Big Mug", pusher.pushed[0].Fields["title"])
	assert.Equal(t, "demo-store.myshopify.com", pusher.tenant.Domain)
}

func TestUpdateKeepsLocalEditWhenPushFails(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	svc := New(s, &stubPusher{err: errors.New("platform down")}, nil)

	synced, err := s.Tenant("tenant-001").UpsertProduct(ctx, domain.Product{ExternalID: "77", Name: "Mug", Price: decimal.NewFromInt(10), Status: domain.StatusActive})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "tenant-001", synced.ID, domain.ProductPatch{Category: strPtr("Kitchen")})
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", updated.Category)
}

func TestUpdateSkipsPushForLocalProductsAndPriceOnlyEdits(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	pusher := &stubPusher{}
	svc := New(s, pusher, nil)

	local, err := svc.Create(ctx, "tenant-001", domain.Product{Name: "Local", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	_, err = svc.Update(ctx, "tenant-001", local.ID, domain.ProductPatch{Name: strPtr("Renamed")})
	require.NoError(t, err)

	synced, err := s.Tenant("tenant-001").UpsertProduct(ctx, domain.Product{ExternalID: "78", Name: "Lamp", Price: decimal.NewFromInt(10), Status: domain.StatusActive})
	require.NoError(t, err)
	price := decimal.NewFromInt(20)
	_, err = svc.Update(ctx, "tenant-001", synced.ID, domain.ProductPatch{Price: &price})
	require.NoError(t, err)

	assert.Empty(t, pusher.pushed)
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.Tenants().Create(ctx, domain.Tenant{ID: "tenant-002", Name: "Tech", Domain: "tech-store.myshopify.com"})
	require.NoError(t, err)
	svc := New(s, nil, nil)

	p, err := svc.Create(ctx, "tenant-001", domain.Product{Name: "Mug", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "tenant-002", p.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Update(ctx, "tenant-002", p.ID, domain.ProductPatch{Name: strPtr("x")})
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, "tenant-002", p.ID), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "tenant-001", p.ID))
}
