package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	api "github.com/mind-engage/neurocare/internal/api/http"
	"github.com/mind-engage/neurocare/internal/assessment"
	"github.com/mind-engage/neurocare/internal/config"
	"github.com/mind-engage/neurocare/internal/db"
	"github.com/mind-engage/neurocare/internal/metrics"
	"github.com/mind-engage/neurocare/internal/scoring"
	"github.com/mind-engage/neurocare/internal/storage"
	"github.com/mind-engage/neurocare/internal/syncx"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Store ---
	var (
		store  assessment.Store
		events *syncx.EventRepo
	)
	if cfg.DBDriver == "memory" {
		store = assessment.NewInMemoryStore()
	} else {
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		cancel()
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		store = assessment.NewSQLStore(dbh, cfg.DBDriver)
		events = syncx.NewEventRepo(dbh, cfg.SiteID)
	}
	defer store.Close()

	bs, err := storage.NewFSStore(cfg.BlobBasePath, "/assets/")
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	if cfg.CatalogSeedPath != "" {
		n, err := assessment.SeedFile(ctx, store, bs, cfg.CatalogSeedPath)
		if err != nil {
			log.Fatalf("seed catalog: %v", err)
		}
		log.Printf("seeded %d conditions from %s", n, cfg.CatalogSeedPath)
	}

	// --- Service ---
	engine := scoring.NewEngine(
		scoring.WithGeneralSelector(cfg.GeneralSelector),
		scoring.WithTopN(cfg.TopN),
	)
	opts := []assessment.ServiceOption{assessment.WithTimeout(cfg.StoreTimeout)}
	if events != nil {
		opts = append(opts, assessment.WithEvents(events))
	}
	deps := api.Deps{
		Blobs:       bs,
		Events:      events,
		Ready:       store.Ping,
		CORSOrigins: cfg.CORSOrigins(),
		RateLimit:   rate.Limit(cfg.RateLimitRPS),
		Burst:       cfg.RateLimitBurst,
	}
	if cfg.MetricsEnabled {
		pm := metrics.NewPrometheusMetrics()
		opts = append(opts, assessment.WithMetrics(pm))
		deps.Metrics = pm.Handler()
	}
	deps.Service = assessment.NewService(store, store, engine, opts...)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Printf("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
