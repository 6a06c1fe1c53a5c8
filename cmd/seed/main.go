package main

import (
	"context"

	"go.uber.org/zap"

	"storepulse/internal/config"
	"storepulse/internal/db"
	"storepulse/internal/logger"
	"storepulse/internal/seed"
	"storepulse/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat).Named("seed")
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := seed.Apply(ctx, store.NewPostgres(pool, log), log); err != nil {
		log.Fatal("seed apply", zap.Error(err))
	}
	if err := seed.ApplyUsers(ctx, pool); err != nil {
		log.Fatal("seed users", zap.Error(err))
	}

	log.Info("seed applied")
}
