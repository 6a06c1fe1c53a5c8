package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"storepulse/internal/analytics"
	"storepulse/internal/config"
	"storepulse/internal/events"
	"storepulse/internal/httpserver"
	"storepulse/internal/ingest"
	"storepulse/internal/logger"
	"storepulse/internal/metrics"
	"storepulse/internal/seed"
	analyticssvc "storepulse/internal/service/analytics"
	customersvc "storepulse/internal/service/customer"
	eventsvc "storepulse/internal/service/event"
	ordersvc "storepulse/internal/service/order"
	productsvc "storepulse/internal/service/product"
	tenantsvc "storepulse/internal/service/tenant"
	"storepulse/internal/shopify"
	"storepulse/internal/store"
	"storepulse/internal/syncer"
	"storepulse/internal/tenant"
	"storepulse/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, pool, err := store.Open(ctx, cfg.StoreDriver, cfg.DBConnString, log)
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}
	var readiness httpserver.Pinger
	if pool != nil {
		defer pool.Close()
		readiness = pool
	}
	log.Info("store: ready", zap.String("driver", cfg.StoreDriver))

	if cfg.SeedDemoData {
		if err := seed.Apply(ctx, st, log); err != nil {
			log.Fatal("seed demo data", zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var publisher events.Publisher
	if cfg.Events.NATSURL != "" {
		nats, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, log)
		if err != nil {
			log.Fatal("connect nats", zap.Error(err))
		}
		defer nats.Close()
		publisher = nats
	}
	tracker := events.NewTracker(log, m, publisher)

	var dedup webhook.IdempotencyStore = webhook.NewMemoryIdempotencyStore()
	if cfg.Webhook.RedisURL != "" {
		redisDedup, err := webhook.NewRedisIdempotencyStore(ctx, cfg.Webhook.RedisURL)
		if err != nil {
			log.Fatal("connect redis", zap.Error(err))
		}
		defer redisDedup.Close()
		dedup = redisDedup
	}

	client := shopify.NewClient(shopify.ClientConfig{
		APIVersion:    cfg.Shopify.APIVersion,
		AccessToken:   cfg.Shopify.AccessToken,
		BaseURL:       cfg.Shopify.BaseURL,
		Timeout:       cfg.Shopify.Timeout,
		RatePerSecond: cfg.Shopify.RatePerSecond,
		Burst:         cfg.Shopify.Burst,
		MaxPages:      cfg.Shopify.MaxPages,
	}, log, m)

	resolver := tenant.NewResolver(st.Tenants(), log)
	ingester := ingest.New(log)
	dispatcher := webhook.NewDispatcher(resolver, st, ingester, tracker, log, webhook.Options{
		Dedup:    dedup,
		DedupTTL: cfg.Webhook.DedupTTL,
		Metrics:  m,
	})

	var pusher productsvc.Pusher
	if cfg.Shopify.PushProductUpdates {
		pusher = client
	}

	var scheduler *syncer.Scheduler
	if cfg.Sync.Enabled {
		sweeper := syncer.NewSweeper(st.Tenants(), st, client, ingester, tracker, syncer.RealClock{}, m, log, syncer.SweeperConfig{
			MaxConcurrentTenants: cfg.Sync.MaxConcurrentTenants,
		})
		scheduler = syncer.NewScheduler(sweeper, syncer.RealClock{}, cfg.Sync.Interval, log)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	srv := httpserver.New(cfg.HTTPAddr, log, httpserver.Deps{
		Tenants:   tenantsvc.New(st.Tenants(), log),
		Products:  productsvc.New(st, pusher, log),
		Customers: customersvc.New(st, cfg.Analytics.TopN),
		Orders:    ordersvc.New(st, log),
		Analytics: analyticssvc.New(st, analytics.Options{
			TopN:             cfg.Analytics.TopN,
			TrendDays:        cfg.Analytics.TrendDays,
			GrowthWindowDays: cfg.Analytics.GrowthWindowDays,
		}, m),
		Events:           eventsvc.New(st, tracker),
		Webhooks:         dispatcher,
		WebhookSecret:    cfg.Webhook.Secret,
		Scheduler:        scheduler,
		DB:               readiness,
		Gatherer:         reg,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown: signal received")
	case err := <-serverErr:
		log.Error("http: server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown: graceful shutdown failed", zap.Error(err))
		return
	}
	log.Info("shutdown: server stopped")
}
