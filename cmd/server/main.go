package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/mdast/internal/api"
	"github.com/dgallion1/mdast/internal/cache"
	"github.com/dgallion1/mdast/internal/config"
	"github.com/dgallion1/mdast/internal/metrics"
	"github.com/dgallion1/mdast/internal/pipeline"
	"github.com/dgallion1/mdast/internal/session"
	"github.com/dgallion1/mdast/internal/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Parse cache.
	parseCache, err := cache.Open(cache.Config{
		Dir:        cfg.CacheDir,
		TTL:        cfg.CacheTTL,
		GCInterval: 10 * time.Minute,
	}, log)
	if err != nil {
		log.Error("open cache", "error", err)
		os.Exit(1)
	}
	go parseCache.RunGC(ctx)

	parseStats := stats.New(time.Hour)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, parseCache, parseStats, log)
	orch.Start(ctx)

	// Streaming sessions, swept on the session TTL.
	sessions := session.NewStore(cfg.SessionTTL, metrics.SetSessionsActive)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Cleanup(); n > 0 {
					log.Info("expired sessions removed", "count", n)
				}
			}
		}
	}()

	// Initialize HTTP server.
	srv := api.NewServer(orch, sessions, parseCache, parseStats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		cancel()
		if err := parseCache.Close(); err != nil {
			log.Error("close cache", "error", err)
		}
	}()

	log.Info("starting mdast", "port", cfg.Port, "workers", cfg.WorkerCount, "cache_dir", cfg.CacheDir, "dialect", cfg.Parse)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
