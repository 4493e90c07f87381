package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Ismael237/iot-automation-engine/internal/api"
	"github.com/Ismael237/iot-automation-engine/internal/bus"
	"github.com/Ismael237/iot-automation-engine/internal/config"
	"github.com/Ismael237/iot-automation-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	logger, err := initLogger(cfg.Log.Format)
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	ctx := context.Background()
	store, err := storage.NewStore(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer store.Close()
	ruleStore := storage.NewPostgresStore(store)

	publisher, err := bus.NewPublisher(cfg.NATS.URL)
	if err != nil {
		logger.Fatal("failed to connect to nats", zap.Error(err))
	}
	defer publisher.Close()

	handler := &api.Handler{
		Store:   ruleStore,
		Bus:     publisher,
		Logger:  logger,
		Timeout: 5 * time.Second,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(10 * time.Second))
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         ":" + cfg.API.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	logger.Info("automation api listening", zap.String("port", cfg.API.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

func initLogger(format string) (*zap.Logger, error) {
	if format == "json" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
