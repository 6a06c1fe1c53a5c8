package order

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

const selectColumns = `id, tenant_id, COALESCE(external_id, ''), customer_id, customer_name, customer_email, items, total::text, status, order_date, shipping_address, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		items  []byte
		status string
	)
	if err := row.Scan(&o.ID, &o.TenantID, &o.ExternalID, &o.CustomerID, &o.CustomerName, &o.CustomerEmail, &items, &o.Total, &status, &o.OrderDate, &o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func (r *postgresRepo) List(ctx context.Context, tenantID string, filter domain.OrderFilter) ([]domain.Order, error) {
	var (
		where = []string{"tenant_id = $1"}
		args  = []any{tenantID}
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where = append(where, fmt.Sprintf("order_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where = append(where, fmt.Sprintf("order_date < $%d", len(args)))
	}
	q := `SELECT ` + selectColumns + ` FROM orders WHERE ` + strings.Join(where, " AND ") + ` ORDER BY order_date DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("order repo: list", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("order repo: list", zap.String("tenant_id", tenantID), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) Get(ctx context.Context, tenantID, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM orders WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("order repo: get", zap.String("tenant_id", tenantID), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) Create(ctx context.Context, tenantID string, o domain.Order) (*domain.Order, error) {
	o.TenantID = tenantID
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = domain.OrderPending
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO orders (id, tenant_id, external_id, customer_id, customer_name, customer_email, items, total, status, order_date, shipping_address)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8::numeric, $9, $10, $11)
RETURNING ` + selectColumns
	out, err := scanOrder(r.pool.QueryRow(ctx, q,
		o.ID, tenantID, o.ExternalID, o.CustomerID, o.CustomerName, o.CustomerEmail, items, o.Total.String(), string(o.Status), o.OrderDate, o.ShippingAddress,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("order repo: create", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, tenantID, id string, patch domain.OrderPatch) (*domain.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := scanOrder(tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM orders WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	current.Apply(patch)
	if !current.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrInvalid, current.Status)
	}

	q := `
UPDATE orders SET status = $3, shipping_address = $4, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + selectColumns
	out, err := scanOrder(tx.QueryRow(ctx, q, tenantID, id, string(current.Status), current.ShippingAddress))
	if err != nil {
		r.logger.Error("order repo: update", zap.String("tenant_id", tenantID), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Transition(ctx context.Context, tenantID, id string, next domain.OrderStatus) (*domain.Order, domain.OrderStatus, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, "", err
	}
	defer tx.Rollback(ctx)

	current, err := scanOrder(tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM orders WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", err
	}
	from := current.Status
	if from == next {
		return current, from, nil
	}
	if !from.CanTransitionTo(next) {
		return nil, from, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, next)
	}

	q := `
UPDATE orders SET status = $3, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + selectColumns
	out, err := scanOrder(tx.QueryRow(ctx, q, tenantID, id, string(next)))
	if err != nil {
		r.logger.Error("order repo: transition", zap.String("tenant_id", tenantID), zap.String("id", id), zap.Error(err))
		return nil, from, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, from, err
	}
	return out, from, nil
}

func (r *postgresRepo) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpsertByExternalID(ctx context.Context, tenantID string, o domain.Order) (*domain.Order, error) {
	if o.ExternalID == "" {
		return nil, fmt.Errorf("%w: order external id is required for upsert", domain.ErrInvalid)
	}
	o.TenantID = tenantID
	if o.Status == "" {
		o.Status = domain.OrderPending
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, err
	}
	// Status merge mirrors domain.MergeOrderStatus.
	q := `
INSERT INTO orders (id, tenant_id, external_id, customer_id, customer_name, customer_email, items, total, status, order_date, shipping_address)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11)
ON CONFLICT (tenant_id, external_id) WHERE external_id IS NOT NULL DO UPDATE SET
    customer_id = EXCLUDED.customer_id,
    customer_name = EXCLUDED.customer_name,
    customer_email = EXCLUDED.customer_email,
    items = EXCLUDED.items,
    total = EXCLUDED.total,
    status = CASE
        WHEN EXCLUDED.status = 'cancelled' OR orders.status = 'cancelled' THEN 'cancelled'
        WHEN array_position(ARRAY['pending','processing','shipped','delivered'], EXCLUDED.status)
           > array_position(ARRAY['pending','processing','shipped','delivered'], orders.status) THEN EXCLUDED.status
        ELSE orders.status
    END,
    order_date = EXCLUDED.order_date,
    shipping_address = EXCLUDED.shipping_address,
    updated_at = now()
RETURNING ` + selectColumns
	out, err := scanOrder(r.pool.QueryRow(ctx, q,
		uuid.NewString(), tenantID, o.ExternalID, o.CustomerID, o.CustomerName, o.CustomerEmail, items, o.Total.String(), string(o.Status), o.OrderDate, o.ShippingAddress,
	))
	if err != nil {
		r.logger.Error("order repo: upsert", zap.String("tenant_id", tenantID), zap.String("external_id", o.ExternalID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("order repo: upserted", zap.String("tenant_id", tenantID), zap.String("id", out.ID), zap.String("status", string(out.Status)))
	return out, nil
}
