package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type userSeed struct {
	ID       string
	TenantID string
	Name     string
	Email    string
	Role     string
}

var users = []userSeed{
	{ID: "user-001", TenantID: "tenant-001", Name: "Demo Admin", Email: "admin@demo-store.com", Role: "admin"},
	{ID: "user-002", TenantID: "tenant-001", Name: "Demo Analyst", Email: "analyst@demo-store.com", Role: "analyst"},
	{ID: "user-003", TenantID: "tenant-002", Name: "Tech Manager", Email: "manager@tech-store.com", Role: "manager"},
}

// ApplyUsers inserts the dashboard users of the demo tenants. It must run
// after Apply. It is idempotent via ON CONFLICT.
func ApplyUsers(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `
INSERT INTO users (id, tenant_id, name, email, role)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (tenant_id, email) DO UPDATE SET
  name = EXCLUDED.name,
  role = EXCLUDED.role
`
	for _, u := range users {
		if _, err := pool.Exec(ctx, q, u.ID, u.TenantID, u.Name, u.Email, u.Role); err != nil {
			return fmt.Errorf("upsert user %s: %w", u.Email, err)
		}
	}
	return nil
}
