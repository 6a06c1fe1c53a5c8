package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
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

func (r *postgresRepo) Append(ctx context.Context, tenantID string, e domain.CustomEvent) (*domain.CustomEvent, error) {
	e.TenantID = tenantID
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO custom_events (id, tenant_id, kind, session_id, user_id, payload, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	if _, err := r.pool.Exec(ctx, q, e.ID, tenantID, string(e.Kind), e.SessionID, e.UserID, payload, e.Timestamp); err != nil {
		r.logger.Error("event repo: append", zap.String("tenant_id", tenantID), zap.String("kind", string(e.Kind)), zap.Error(err))
		return nil, err
	}
	return &e, nil
}

func (r *postgresRepo) List(ctx context.Context, tenantID string, filter domain.EventFilter) ([]domain.CustomEvent, error) {
	q := `
SELECT id, tenant_id, kind, session_id, user_id, payload, occurred_at
FROM custom_events
WHERE tenant_id = $1 AND ($2 = '' OR kind = $2)
ORDER BY occurred_at DESC, id`
	args := []any{tenantID, string(filter.Kind)}
	if filter.Limit > 0 {
		q += ` LIMIT $3`
		args = append(args, filter.Limit)
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("event repo: list", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.CustomEvent{}
	for rows.Next() {
		var (
			e       domain.CustomEvent
			kind    string
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &kind, &e.SessionID, &e.UserID, &payload, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Kind = domain.EventKind(kind)
		e.Payload, err = domain.DecodeEventPayload(e.Kind, payload)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", e.ID, err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
