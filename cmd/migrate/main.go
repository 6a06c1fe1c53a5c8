package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"storepulse/internal/config"
	"storepulse/internal/db"
	"storepulse/internal/logger"
	"storepulse/internal/migrate"
)

func main() {
	var down bool
	flag.BoolVar(&down, "down", false, "Roll back every migration instead of applying them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat).Named("migrate")
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if down {
		if err := migrate.Rollback(ctx, pool); err != nil {
			log.Fatal("rollback migrations", zap.Error(err))
		}
		log.Info("migrations rolled back")
		return
	}

	if err := migrate.Apply(ctx, pool); err != nil {
		log.Fatal("apply migrations", zap.Error(err))
	}
	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		log.Fatal("read migration version", zap.Error(err))
	}
	log.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
