package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"memory-graph/backend/internal/api"
	"memory-graph/backend/internal/graph"
	"memory-graph/backend/internal/memory"
	"memory-graph/backend/internal/memstore"
	"memory-graph/backend/internal/metrics"
	"memory-graph/backend/internal/services"
	"memory-graph/backend/pkg/config"
	"memory-graph/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting memory graph API server...",
		zap.String("env", cfg.Env),
		zap.String("store", cfg.StoreBackend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open memory store", zap.Error(err))
	}
	defer store.Close(context.Background())

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector("memory_graph", true)
	}

	var breakerState func() string
	if cfg.Breaker.Enabled {
		guarded := memory.NewBreakerStore(store, breakerSettings(cfg), logger.Named("breaker"))
		breakerState = func() string { return guarded.State().String() }
		store = guarded
	}

	var recorder services.Recorder
	if collector != nil {
		recorder = collector
	}
	svc := services.NewMemoryService(store, logger.Named("memory"), recorder)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterConfig{
		Service:        svc,
		Logger:         log,
		Metrics:        collector,
		AllowedOrigins: cfg.AllowedOrigins,
		BreakerState:   breakerState,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return
	}
	log.Info("Server exited")
}

// openStore returns the configured memory.Store
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (memory.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		log.Warn("Using in-process memory store; data is lost on restart")
		return memstore.New(), nil
	default:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		driver, err := graph.Connect(connectCtx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, err
		}
		log.Info("Connected to Neo4j", zap.String("uri", cfg.Neo4jURI))
		return graph.NewRepository(driver, cfg.Neo4jDatabase), nil
	}
}

func breakerSettings(cfg *config.Config) memory.BreakerSettings {
	return memory.BreakerSettings{
		Name:         "memory-store",
		MaxRequests:  uint32(cfg.Breaker.MaxRequests),
		Interval:     cfg.Breaker.Interval,
		Timeout:      cfg.Breaker.Timeout,
		FailureRatio: cfg.Breaker.FailureRatio,
		MinRequests:  uint32(cfg.Breaker.MinRequests),
	}
}
