package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/efreitasn/simmatch/internal/config"
	"github.com/efreitasn/simmatch/internal/engine"
	"github.com/efreitasn/simmatch/internal/handler"
	"github.com/efreitasn/simmatch/internal/metrics"
	"github.com/efreitasn/simmatch/internal/notify"
	"github.com/efreitasn/simmatch/internal/service"
	"github.com/efreitasn/simmatch/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	os.Exit(run())
}

// run wires and serves the process, returning its exit code.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		return 1
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Stores and outbound channels.
	history := store.NewHistory()
	webhookSvc := service.NewWebhookService(store.NewWebhookStore(), cfg.WebhookTimeout, logger)
	sinks := notify.Fanout{webhookSvc, m}
	var kafkaSink *notify.KafkaSink

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := notify.NewProducer(ctx, cfg.KafkaBrokers, 10, 3*time.Second)
		if err != nil {
			logger.Error("failed to connect to kafka", slog.String("error", err.Error()))
			return 1
		}
		kafkaSink = notify.NewKafkaSink(producer, cfg.KafkaOrderTopic, cfg.KafkaTradeTopic, cfg.QueueSize, logger)
		sinks = append(sinks, kafkaSink)
		logger.Info("kafka publishing enabled",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("order_topic", cfg.KafkaOrderTopic),
			slog.String("trade_topic", cfg.KafkaTradeTopic),
		)
	}

	// Matching engine.
	venue := engine.NewVenue(cfg.Venue(),
		engine.WithSink(sinks),
		engine.WithRecorder(history),
		engine.WithLogger(logger),
	)
	manager := engine.NewManager(venue, cfg.QueueSize, cfg.PollTimeout, logger, m)

	// Services and router.
	router := handler.NewRouter(handler.Services{
		Orders:    service.NewOrderService(manager, history),
		Market:    service.NewMarketService(manager),
		Positions: service.NewPositionService(manager),
		Webhooks:  webhookSvc,
	}, manager.Alive, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// A configuration fault halts the worker; the process follows it down.
	faultCh := make(chan error, 1)
	go func() {
		if err := manager.Run(ctx); err != nil {
			faultCh <- err
		}
	}()

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("match_mode", string(cfg.MatchMode)),
			slog.String("instrument_kind", string(cfg.InstrumentKind)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	exitCode := 0
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-faultCh:
		logger.Error("matching worker failed", slog.String("error", err.Error()))
		exitCode = 1
	}

	// Graceful shutdown: stop HTTP server, then the matching worker.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	manager.Stop()
	select {
	case <-manager.Done():
	case <-shutdownCtx.Done():
		logger.Warn("matching worker did not stop before shutdown timeout")
	}
	cancel()

	// The worker is the only caller of the sink; flush once it has exited.
	if kafkaSink != nil {
		select {
		case <-manager.Done():
			if err := kafkaSink.Close(); err != nil {
				logger.Error("kafka close error", slog.String("error", err.Error()))
			}
		case <-time.After(cfg.PollTimeout):
			logger.Warn("matching worker still running, kafka buffer not flushed")
		}
	}

	logger.Info("server stopped")
	return exitCode
}
