package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storepulse/internal/db"
)

// Open builds a Store for the configured driver. The returned pool is nil
// for the memory driver; callers close it when it is not.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, *pgxpool.Pool, error) {
	switch strings.ToLower(driver) {
	case "memory":
		return NewMemory(), nil, nil
	case "postgres", "":
		pool, err := db.Connect(ctx, dsn, logger)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgres(pool, logger), pool, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
