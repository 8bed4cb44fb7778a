package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"draft-orchestrator/internal/orchestrator"
	"draft-orchestrator/internal/platform/config"
	"draft-orchestrator/internal/platform/logger"
	"draft-orchestrator/internal/platform/metrics"
	"draft-orchestrator/internal/segment"
	"draft-orchestrator/internal/variant"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	draftCacheSize := config.GetEnvInt("DRAFT_CACHE_SIZE", orchestrator.DefaultCapacity)
	segmentCacheSize := config.GetEnvInt("SEGMENT_CACHE_SIZE", orchestrator.DefaultCapacity)
	applyMode := config.GetEnv("APPLY_MODE", string(orchestrator.ModeImmediate))
	catalogPath := config.GetEnv("CATALOG_PATH", "")
	resourceRoot := config.GetEnv("RESOURCE_ROOT", "")
	metricsEnabled := config.GetEnvBool("METRICS_ENABLED", true)

	log := logger.New(logLevel, logFormat)

	mode, ok := orchestrator.ParseMode(applyMode)
	if !ok {
		log.Error("invalid APPLY_MODE", "value", applyMode)
		os.Exit(1)
	}

	lib := variant.Builtin()
	if catalogPath != "" {
		var err error
		if lib, err = variant.LoadFile(catalogPath); err != nil {
			log.Error("load catalogs", "path", catalogPath, "error", err)
			os.Exit(1)
		}
	}

	engine, err := segment.NewEngine(lib, log)
	if err != nil {
		log.Error("engine setup", "error", err)
		os.Exit(1)
	}

	var met *metrics.Metrics
	if metricsEnabled {
		met = metrics.New()
	}
	onEvict := func(scope orchestrator.Scope) func(string) {
		return func(id string) {
			log.Warn("registry entry evicted", slog.String("scope", string(scope)), slog.String("id", id))
			if met != nil {
				met.IncEvictions(string(scope))
			}
		}
	}

	drafts, err := orchestrator.NewRegistry(orchestrator.ScopeDraft, draftCacheSize, onEvict(orchestrator.ScopeDraft))
	if err != nil {
		log.Error("draft registry", "error", err)
		os.Exit(1)
	}
	segments, err := orchestrator.NewRegistry(orchestrator.ScopeSegment, segmentCacheSize, onEvict(orchestrator.ScopeSegment))
	if err != nil {
		log.Error("segment registry", "error", err)
		os.Exit(1)
	}

	svc := orchestrator.NewService(engine, drafts, segments, log,
		orchestrator.WithMode(mode),
		orchestrator.WithResources(orchestrator.LocalResolver{Root: resourceRoot}),
	)
	h := orchestrator.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.RequestLogger(log))
	if met != nil {
		r.Use(metrics.RequestMiddleware(met))
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			met.Handler(func() {
				d, s := svc.RegistryLens()
				met.SetRegistryEntries(string(orchestrator.ScopeDraft), d)
				met.SetRegistryEntries(string(orchestrator.ScopeSegment), s)
			}).ServeHTTP(w, r)
		})
	}
	h.Routes(r)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"apply_mode", mode,
		"draft_cache_size", drafts.Capacity(),
		"segment_cache_size", segments.Capacity(),
		"metrics", metricsEnabled,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
