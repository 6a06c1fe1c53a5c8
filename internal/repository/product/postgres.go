package product

import (
	"context"
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

const selectColumns = `id, tenant_id, COALESCE(external_id, ''), name, category, price::text, stock, sales, rating, image, status, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p      domain.Product
		status string
	)
	if err := row.Scan(&p.ID, &p.TenantID, &p.ExternalID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.Sales, &p.Rating, &p.Image, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = domain.Status(status)
	return &p, nil
}

func (r *postgresRepo) List(ctx context.Context, tenantID string, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		where = []string{"tenant_id = $1"}
		args  = []any{tenantID}
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	q := `SELECT ` + selectColumns + ` FROM products WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("product repo: list", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("product repo: list rows", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.String("tenant_id", tenantID), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) Get(ctx context.Context, tenantID, id string) (*domain.Product, error) {
	q := `SELECT ` + selectColumns + ` FROM products WHERE tenant_id = $1 AND id = $2`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get", zap.String("tenant_id", tenantID), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, tenantID string, product domain.Product) (*domain.Product, error) {
	product.TenantID = tenantID
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if product.Status == "" {
		product.Status = domain.StatusActive
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	q := `
INSERT INTO products (id, tenant_id, external_id, name, category, price, stock, sales, rating, image, status)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6::numeric, $7, $8, $9, $10, $11)
RETURNING ` + selectColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q,
		product.ID, tenantID, product.ExternalID, product.Name, product.Category, product.Price.String(),
		product.Stock, product.Sales, product.Rating, product.Image, string(product.Status),
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("product repo: create", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: created", zap.String("tenant_id", tenantID), zap.String("id", p.ID))
	return p, nil
}

func (r *postgresRepo) Update(ctx context.Context, tenantID, id string, patch domain.ProductPatch) (*domain.Product, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := scanProduct(tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM products WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	current.Apply(patch)
	if err := current.Validate(); err != nil {
		return nil, err
	}

	q := `
UPDATE products SET name = $3, category = $4, price = $5::numeric, stock = $6, sales = $7, rating = $8, image = $9, status = $10, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + selectColumns
	updated, err := scanProduct(tx.QueryRow(ctx, q,
		tenantID, id, current.Name, current.Category, current.Price.String(),
		current.Stock, current.Sales, current.Rating, current.Image, string(current.Status),
	))
	if err != nil {
		r.logger.Error("product repo: update", zap.String("tenant_id", tenantID), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *postgresRepo) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		r.logger.Error("product repo: delete", zap.String("tenant_id", tenantID), zap.String("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpsertByExternalID(ctx context.Context, tenantID string, product domain.Product) (*domain.Product, error) {
	if product.ExternalID == "" {
		return nil, fmt.Errorf("%w: product external id is required for upsert", domain.ErrInvalid)
	}
	product.TenantID = tenantID
	if product.Status == "" {
		product.Status = domain.StatusActive
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	q := `
INSERT INTO products (id, tenant_id, external_id, name, category, price, stock, sales, rating, image, status)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11)
ON CONFLICT (tenant_id, external_id) WHERE external_id IS NOT NULL DO UPDATE SET
    name = EXCLUDED.name,
    category = EXCLUDED.category,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock,
    image = EXCLUDED.image,
    status = EXCLUDED.status,
    updated_at = now()
RETURNING ` + selectColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q,
		uuid.NewString(), tenantID, product.ExternalID, product.Name, product.Category, product.Price.String(),
		product.Stock, product.Sales, product.Rating, product.Image, string(product.Status),
	))
	if err != nil {
		r.logger.Error("product repo: upsert", zap.String("tenant_id", tenantID), zap.String("external_id", product.ExternalID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: upserted", zap.String("tenant_id", tenantID), zap.String("external_id", p.ExternalID), zap.String("id", p.ID))
	return p, nil
}
