package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"storepulse/internal/config"
	"storepulse/internal/domain"
	"storepulse/internal/events"
	"storepulse/internal/importer"
	"storepulse/internal/ingest"
	"storepulse/internal/logger"
	"storepulse/internal/shopify"
	"storepulse/internal/store"
	"storepulse/internal/syncer"
)

func main() {
	var (
		tenantID string
		filePath string
	)
	flag.StringVar(&tenantID, "tenant", "", "Sync only this tenant ID (default: every active tenant)")
	flag.StringVar(&filePath, "file", "", "Backfill products from a platform product CSV export instead (requires -tenant)")
	flag.Parse()

	if filePath != "" && tenantID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat).Named("sync")
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, pool, err := store.Open(ctx, cfg.StoreDriver, cfg.DBConnString, log)
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}
	if pool != nil {
		defer pool.Close()
	}

	if filePath != "" {
		if err := importFile(ctx, st, tenantID, filePath, log); err != nil {
			log.Fatal("import file", zap.Error(err))
		}
		return
	}

	var publisher events.Publisher
	if cfg.Events.NATSURL != "" {
		nats, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, log)
		if err != nil {
			log.Fatal("connect nats", zap.Error(err))
		}
		defer nats.Close()
		publisher = nats
	}

	client := shopify.NewClient(shopify.ClientConfig{
		APIVersion:    cfg.Shopify.APIVersion,
		AccessToken:   cfg.Shopify.AccessToken,
		BaseURL:       cfg.Shopify.BaseURL,
		Timeout:       cfg.Shopify.Timeout,
		RatePerSecond: cfg.Shopify.RatePerSecond,
		Burst:         cfg.Shopify.Burst,
		MaxPages:      cfg.Shopify.MaxPages,
	}, log, nil)

	sweeper := syncer.NewSweeper(st.Tenants(), st, client, ingest.New(log), events.NewTracker(log, nil, publisher),
		syncer.RealClock{}, nil, log, syncer.SweeperConfig{MaxConcurrentTenants: cfg.Sync.MaxConcurrentTenants})

	start := time.Now()
	var results []syncer.TenantResult
	if tenantID != "" {
		t, err := st.Tenants().Get(ctx, tenantID)
		if err != nil {
			log.Fatal("load tenant", zap.String("tenant_id", tenantID), zap.Error(err))
		}
		if t.Status != domain.StatusActive {
			log.Fatal("tenant is inactive", zap.String("tenant_id", tenantID))
		}
		results = append(results, sweeper.SweepTenant(ctx, *t))
	} else {
		res, err := sweeper.Sweep(ctx)
		if err != nil {
			log.Fatal("sweep", zap.Error(err))
		}
		results = res.Tenants
	}

	failed := 0
	for _, r := range results {
		status := "ok"
		if !r.OK() {
			status = "failed: " + r.Error
			failed++
		}
		fmt.Printf("%s (%s): %s\n", r.TenantID, r.Domain, status)
		for _, rec := range r.Records {
			fmt.Printf("  %-9s upserted=%d failed=%d\n", rec.Kind, rec.Upserted, rec.Failed)
		}
	}
	fmt.Printf("Synced %d tenants (%d failed) in %s\n", len(results), failed, time.Since(start).Truncate(time.Millisecond))

	if failed > 0 {
		stop()
		os.Exit(1)
	}
}

func importFile(ctx context.Context, st *store.Store, tenantID, path string, log *zap.Logger) error {
	if _, err := st.Tenants().Get(ctx, tenantID); err != nil {
		return fmt.Errorf("load tenant %q: %w", tenantID, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	start := time.Now()
	report, err := importer.NewCSVImporter(f, st.Tenant(tenantID), log).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d products (%d skipped) into tenant %s in %s\n",
		report.Imported, report.Skipped, tenantID, time.Since(start).Truncate(time.Millisecond))
	return nil
}
