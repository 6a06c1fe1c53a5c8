package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storepulse/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const selectColumns = `id, name, domain, settings, status, access_token, created_at`

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var (
		t        domain.Tenant
		settings []byte
		status   string
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Domain, &settings, &status, &t.AccessToken, &t.CreatedAt); err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &t.Settings); err != nil {
			return nil, fmt.Errorf("decode tenant settings: %w", err)
		}
	}
	t.Status = domain.Status(status)
	return &t, nil
}

func (r *postgresRepo) Create(ctx context.Context, t domain.Tenant) (*domain.Tenant, error) {
	if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Domain) == "" {
		return nil, fmt.Errorf("%w: tenant name and domain are required", domain.ErrInvalid)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = domain.StatusActive
	}
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO tenants (id, name, domain, settings, status, access_token)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + selectColumns
	out, err := scanTenant(r.pool.QueryRow(ctx, q, t.ID, t.Name, domain.NormalizeDomain(t.Domain), settings, string(t.Status), t.AccessToken))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("tenant repo: create", zap.String("domain", t.Domain), zap.Error(err))
		return nil, err
	}
	r.logger.Info("tenant repo: created", zap.String("tenant_id", out.ID), zap.String("domain", out.Domain))
	return out, nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresRepo) GetByDomain(ctx context.Context, storeDomain string) (*domain.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM tenants WHERE domain = $1`, domain.NormalizeDomain(storeDomain)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Tenant, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM tenants ORDER BY created_at, id`)
}

func (r *postgresRepo) ListActive(ctx context.Context) ([]domain.Tenant, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM tenants WHERE status = 'active' ORDER BY created_at, id`)
}

func (r *postgresRepo) list(ctx context.Context, q string) ([]domain.Tenant, error) {
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("tenant repo: list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

func (r *postgresRepo) UpdateSettings(ctx context.Context, id string, settings domain.TenantSettings) (*domain.Tenant, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}
	t, err := scanTenant(r.pool.QueryRow(ctx, `UPDATE tenants SET settings = $2 WHERE id = $1 RETURNING `+selectColumns, id, raw))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("tenant repo: update settings", zap.String("tenant_id", id), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (r *postgresRepo) SetStatus(ctx context.Context, id string, status domain.Status) (*domain.Tenant, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown tenant status %q", domain.ErrInvalid, status)
	}
	t, err := scanTenant(r.pool.QueryRow(ctx, `UPDATE tenants SET status = $2 WHERE id = $1 RETURNING `+selectColumns, id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("tenant repo: set status", zap.String("tenant_id", id), zap.Error(err))
		return nil, err
	}
	r.logger.Info("tenant repo: status changed", zap.String("tenant_id", id), zap.String("status", string(status)))
	return t, nil
}
