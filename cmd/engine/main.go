package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Ismael237/iot-automation-engine/internal/bus"
	"github.com/Ismael237/iot-automation-engine/internal/config"
	"github.com/Ismael237/iot-automation-engine/internal/engine"
	"github.com/Ismael237/iot-automation-engine/internal/readings"
	"github.com/Ismael237/iot-automation-engine/internal/sinks"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewStore(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer store.Close()
	ruleStore := storage.NewPostgresStore(store)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to ping redis", zap.Error(err))
	}
	defer redisClient.Close()
	source := readings.NewRedisSource(redisClient, cfg.Redis.KeyPrefix, logger)

	dispatchTimeout := time.Duration(cfg.Engine.DispatchTimeoutSeconds) * time.Second
	dispatcher := engine.NewDispatcher(
		sinks.NewHTTPAlertSink(cfg.Sinks.AlertEndpoint, dispatchTimeout),
		sinks.NewHTTPCommandSink(cfg.Sinks.ActuatorEndpoint, dispatchTimeout),
		dispatchTimeout,
	)
	recorder := engine.NewRecorder(ruleStore, logger)
	scheduler := engine.NewScheduler(
		ruleStore, source, dispatcher, recorder,
		engine.SystemClock(),
		time.Duration(cfg.Engine.IntervalSeconds)*time.Second,
		logger,
	)

	subscriber, err := bus.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		logger.Fatal("failed to connect to nats", zap.Error(err))
	}
	defer subscriber.Close()
	subscribeRuleEvents(subscriber, scheduler, logger)

	go startAdminServer(cfg.Engine.AdminPort, scheduler, logger)

	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(done)
	}()

	logger.Info("automation engine started",
		zap.Int("interval_seconds", cfg.Engine.IntervalSeconds),
		zap.Int("dispatch_timeout_seconds", cfg.Engine.DispatchTimeoutSeconds),
	)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	cancel()
	// The cycle in progress finishes its in-flight dispatches before exit.
	<-done
	logger.Info("automation engine stopped")
}

func subscribeRuleEvents(subscriber *bus.Subscriber, scheduler *engine.Scheduler, logger *zap.Logger) {
	subjects := []string{bus.SubjectRuleCreated, bus.SubjectRuleUpdated, bus.SubjectRuleDeleted}
	for _, subject := range subjects {
		subject := subject
		if _, err := subscriber.Subscribe(subject, func(evt bus.Event) {
			logger.Debug("rule event received",
				zap.String("subject", subject),
				zap.String("rule_id", evt.RuleID),
			)
			scheduler.Kick()
		}); err != nil {
			logger.Warn("failed to subscribe", zap.String("subject", subject), zap.Error(err))
		}
	}
}

func startAdminServer(port string, scheduler *engine.Scheduler, logger *zap.Logger) {
	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	router.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, scheduler.LastStats())
	})
	router.Post("/rules/{id}/evaluate", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		exec, err := scheduler.EvaluateRule(ctx, chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "rule not found"})
		case errors.Is(err, readings.ErrNoReading):
			writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "message": "no reading available for deployment"})
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": err.Error()})
		default:
			writeJSON(w, http.StatusOK, exec)
		}
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
	logger.Info("engine admin server listening", zap.String("port", port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("admin server error", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func initLogger(format string) (*zap.Logger, error) {
	if format == "json" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
