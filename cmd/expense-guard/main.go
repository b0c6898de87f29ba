package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evansmunsha/expense-guard/internal/cache"
	"github.com/evansmunsha/expense-guard/internal/cli"
	apphttp "github.com/evansmunsha/expense-guard/internal/http"
	"github.com/evansmunsha/expense-guard/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	store := cli.OpenStore(logger, cfg)
	tracker := cli.BuildTracker(logger, cfg, store)
	defer func() {
		if err := tracker.Close(); err != nil {
			logger.Error("Store close error", log.FieldError, err)
		}
	}()

	caches := cache.NewManager()
	caches.Register(tracker.MonthCache())
	caches.StartCleanup(cfg.CacheTTL)
	defer caches.Stop()

	srv := apphttp.NewServer(cfg.Addr, tracker, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server",
			log.FieldOperation, log.OpStartup, "addr", cfg.Addr, "backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		nudgeLogger := logger.WithComponent(log.ComponentNudge)
		ticker := time.NewTicker(cfg.NudgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if msg, due := tracker.NudgeIfDue(ctx); due {
					nudgeLogger.Info("Daily reminder", "message", msg)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
