package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepulse/internal/domain"
	"storepulse/internal/repository/pgtest"
)

func TestPostgres_TenantLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	repo := NewPostgres(pool, nil)

	created, err := repo.Create(ctx, domain.Tenant{ID: "tenant-001", Name: "Demo", Domain: "Demo-Store.myshopify.com", Settings: domain.DefaultTenantSettings(), AccessToken: "shpat_x"})
	require.NoError(t, err)
	assert.Equal(t, "demo-store.myshopify.com", created.Domain)
	assert.Equal(t, "shpat_x", created.AccessToken)

	_, err = repo.Create(ctx, domain.Tenant{Name: "Dup", Domain: "demo-store.myshopify.com"})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	byDomain, err := repo.GetByDomain(ctx, "https://demo-store.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "tenant-001", byDomain.ID)

	settings := created.Settings
	settings.Theme = "dark"
	updated, err := repo.UpdateSettings(ctx, "tenant-001", settings)
	require.NoError(t, err)
	assert.Equal(t, "dark", updated.Settings.Theme)

	_, err = repo.SetStatus(ctx, "tenant-001", domain.StatusInactive)
	require.NoError(t, err)
	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
