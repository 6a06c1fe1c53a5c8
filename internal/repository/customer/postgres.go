package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storepulse/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Postgres-backed customer repository.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const selectColumns = `id, tenant_id, COALESCE(external_id, ''), name, email, phone, total_orders, total_spent::text, join_date, status, created_at, updated_at`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		c      domain.Customer
		status string
	)
	if err := row.Scan(&c.ID, &c.TenantID, &c.ExternalID, &c.Name, &c.Email, &c.Phone, &c.TotalOrders, &c.TotalSpent, &c.JoinDate, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = domain.Status(status)
	return &c, nil
}

func (r *postgresRepo) List(ctx context.Context, tenantID string, filter domain.CustomerFilter) ([]domain.Customer, error) {
	var (
		where = []string{"tenant_id = $1"}
		args  = []any{tenantID}
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	order := "created_at DESC, id"
	if filter.Sort == domain.CustomerSortSpent {
		order = "total_spent DESC, total_orders DESC, id"
	}
	q := `SELECT ` + selectColumns + ` FROM customers WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + order
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("customer repo: list", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("customer repo: list", zap.String("tenant_id", tenantID), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) Get(ctx context.Context, tenantID, id string) (*domain.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM customers WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("customer repo: get", zap.String("tenant_id", tenantID), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) Create(ctx context.Context, tenantID string, c domain.Customer) (*domain.Customer, error) {
	prepare(&c, tenantID)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	q := `
INSERT INTO customers (id, tenant_id, external_id, name, email, phone, total_orders, total_spent, join_date, status)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8::numeric, $9, $10)
RETURNING ` + selectColumns
	out, err := scanCustomer(r.pool.QueryRow(ctx, q,
		c.ID, tenantID, c.ExternalID, c.Name, c.Email, c.Phone, c.TotalOrders, c.TotalSpent.String(), c.JoinDate, string(c.Status),
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("customer repo: create", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpsertByExternalID(ctx context.Context, tenantID string, c domain.Customer) (*domain.Customer, error) {
	if c.ExternalID == "" {
		return nil, fmt.Errorf("%w: customer external id is required for upsert", domain.ErrInvalid)
	}
	prepare(&c, tenantID)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	q := `
INSERT INTO customers (id, tenant_id, external_id, name, email, phone, total_orders, total_spent, join_date, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10)
ON CONFLICT (tenant_id, external_id) WHERE external_id IS NOT NULL DO UPDATE SET
    name = EXCLUDED.name,
    email = EXCLUDED.email,
    phone = EXCLUDED.phone,
    total_orders = EXCLUDED.total_orders,
    total_spent = EXCLUDED.total_spent,
    join_date = EXCLUDED.join_date,
    status = EXCLUDED.status,
    updated_at = now()
RETURNING ` + selectColumns
	out, err := scanCustomer(r.pool.QueryRow(ctx, q,
		uuid.NewString(), tenantID, c.ExternalID, c.Name, c.Email, c.Phone, c.TotalOrders, c.TotalSpent.String(), c.JoinDate, string(c.Status),
	))
	if err != nil {
		r.logger.Error("customer repo: upsert", zap.String("tenant_id", tenantID), zap.String("external_id", c.ExternalID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("customer repo: upserted", zap.String("tenant_id", tenantID), zap.String("id", out.ID))
	return out, nil
}

func (r *postgresRepo) RecordCompletedOrder(ctx context.Context, tenantID, id string, amount decimal.Decimal) (*domain.Customer, error) {
	q := `
UPDATE customers SET total_orders = total_orders + 1, total_spent = total_spent + $3::numeric, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + selectColumns
	out, err := scanCustomer(r.pool.QueryRow(ctx, q, tenantID, id, amount.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("customer repo: record order", zap.String("tenant_id", tenantID), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func prepare(c *domain.Customer, tenantID string) {
	c.TenantID = tenantID
	if c.Status == "" {
		c.Status = domain.StatusActive
	}
	if c.JoinDate.IsZero() {
		c.JoinDate = time.Now().UTC()
	}
}
