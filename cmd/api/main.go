package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"battery-dispatch/internal/api"
	"battery-dispatch/internal/config"
	"battery-dispatch/internal/data"
	"battery-dispatch/internal/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Optional server settings file; API_* environment variables take precedence")
	flag.Parse()

	settings, err := config.LoadServer(*configPath)
	if err != nil {
		log.Fatalf("Failed to load server settings: %v", err)
	}
	logger, err := logging.New(settings.Logging, "")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if settings.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := data.NewRunStore(settings.RunTTL)
	go store.Cleanup(ctx, settings.RunTTL/4+time.Second)

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           api.NewRouter(settings, store, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting API server",
			zap.String("addr", srv.Addr),
			zap.String("env", settings.Env),
			zap.String("battery_dir", settings.BatteryDir),
			zap.Duration("run_ttl", settings.RunTTL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
