package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"aviratoDash/internal/config"
	reservationhandler "aviratoDash/internal/modules/reservations/application/handler"
	reservationusecase "aviratoDash/internal/modules/reservations/application/usecase"
	reservationinfra "aviratoDash/internal/modules/reservations/infrastructure"
	reservationtransport "aviratoDash/internal/modules/reservations/interface"
	sessionport "aviratoDash/internal/modules/session/application/port"
	sessionusecase "aviratoDash/internal/modules/session/application/usecase"
	sessioninfra "aviratoDash/internal/modules/session/infrastructure"
	sessiontransport "aviratoDash/internal/modules/session/interface"
	"aviratoDash/internal/platform/broker"
	"aviratoDash/internal/platform/events"
	"aviratoDash/internal/platform/storage"
	"aviratoDash/internal/platform/upstream"
	"aviratoDash/internal/shared/logging"
)

func main() {
	// Attempt to load variables from .env so local runs honour configuration tweaks.
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logFile, logger, err := setupLogging(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))
	slog.Info("upstream configured", slog.String("baseUrl", cfg.Upstream.BaseURL), slog.Duration("timeout", cfg.Upstream.Timeout), slog.Duration("listingTimeout", cfg.Upstream.ListingTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, closeKV, err := openSessionBackend(ctx, cfg)
	if err != nil {
		slog.Error("session backend unavailable", slog.String("backend", cfg.Session.Backend), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeKV()

	// Session store and the authenticated PMS client depend on each other:
	// login goes out anonymously, every other call carries the store's token.
	api := upstream.New(upstream.Options{
		BaseURL:        cfg.Upstream.BaseURL,
		Timeout:        cfg.Upstream.Timeout,
		BreakerTrips:   cfg.Upstream.BreakerTrips,
		BreakerCooloff: cfg.Upstream.BreakerCooloff,
		Logger:         logger,
	})
	sessionStore := sessionusecase.NewStore(kv, sessioninfra.NewLoginHTTPClient(api, logger), cfg.Session.KeyPrefix, logger)
	authed := api.WithSession(sessionStore)

	hub := reservationinfra.NewHub(logger)
	sink, closeSinks := buildSinks(cfg, hub, logger)
	defer closeSinks()

	// Use cases
	references := reservationinfra.NewReferenceHTTPClient(authed, logger)
	paginator := reservationusecase.NewPaginator(
		reservationinfra.NewReservationHTTPClient(authed, cfg.Upstream.ListingTimeout, logger),
		sink, logger,
		reservationusecase.PaginatorConfig{PageSize: cfg.Pipeline.PageSize, MaxPages: cfg.Pipeline.MaxPages},
	)
	reconciler := reservationusecase.NewWindowReconciler(paginator, sink, logger, reservationusecase.ReconcilerConfig{
		WidenDays:    cfg.Pipeline.WidenDays,
		LookbackDays: cfg.Pipeline.DefaultLookbackDays,
		Location:     cfg.Server.Location,
	})
	enricher := reservationusecase.NewEnricher(references, references, sink, logger, reservationusecase.EnricherConfig{
		OperatorSeed:      cfg.Pipeline.OperatorSeed,
		OperatorOverrides: cfg.Pipeline.OperatorOverrides,
		Concurrency:       cfg.Pipeline.EnrichConcurrency,
	})
	dashboardUC := reservationusecase.NewDashboardUseCase(sessionStore, reconciler, enricher, hub, cfg.Pipeline.CacheTTL, logger)
	sessionStore.OnClear(func(ctx context.Context) { dashboardUC.Invalidate(ctx, "") })

	// PMS change notifications drop cached snapshots.
	registry := broker.NewHandlerRegistry()
	for _, topic := range cfg.Kafka.InvalidateTopics {
		registry.Register(reservationhandler.NewInvalidationHandler(topic, dashboardUC))
	}
	consumers := broker.StartKafkaConsumers(ctx, registry, cfg.Kafka.Brokers, cfg.Kafka.GroupID, logger)
	defer func() {
		for _, c := range consumers {
			_ = c.Close()
		}
	}()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(log.Writer())

	sessiontransport.NewHandler(sessionStore, logger).Register(e.Group("/api/session"))
	reservationtransport.NewHandler(dashboardUC, logger).Register(e.Group("/api/reservations"))
	e.GET("/ws/reservations", reservationtransport.NewWebsocketHandler(hub, cfg.Websocket.SendBuffer))
	e.GET("/healthz", reservationtransport.Health(hub.Clients))

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", slog.Any("error", err))
		}
	}()

	// Esperar señales
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown failed", slog.Any("error", err))
		_ = e.Close()
	}
}

func openSessionBackend(ctx context.Context, cfg config.Config) (sessionport.KeyValueStore, func(), error) {
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		client, err := storage.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("session backend ready", slog.String("backend", "redis"), slog.String("addr", cfg.Redis.Addr))
		return storage.NewRedisStore(client), func() { _ = client.Close() }, nil
	case config.SessionBackendPostgres:
		db, err := storage.OpenPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("session backend ready", slog.String("backend", "postgres"))
		return storage.NewPostgresStore(db), func() { _ = db.Close() }, nil
	default:
		slog.Info("session backend ready", slog.String("backend", "memory"))
		return storage.NewMemoryStore(), func() {}, nil
	}
}

func buildSinks(cfg config.Config, hub *reservationinfra.Hub, logger *slog.Logger) (events.Multi, func()) {
	var (
		sinks   []events.Sink
		closers []io.Closer
	)
	if cfg.Events.Sink("log") {
		sinks = append(sinks, events.NewLogSink(logger))
	}
	if cfg.Events.Sink("ws") {
		sinks = append(sinks, hub)
	}
	if cfg.Events.Sink("kafka") {
		if len(cfg.Kafka.Brokers) == 0 {
			slog.Warn("kafka sink requested without KAFKA_BROKERS, skipping")
		} else {
			k := events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, logger)
			sinks = append(sinks, k)
			closers = append(closers, k)
		}
	}
	if cfg.Events.Sink("amqp") {
		a, err := events.NewAMQPSink(cfg.AMQP.URL, cfg.AMQP.Queue, logger)
		if err != nil {
			slog.Warn("amqp sink unavailable, skipping", slog.Any("error", err))
		} else {
			sinks = append(sinks, a)
			closers = append(closers, a)
		}
	}
	slog.Info("pipeline event sinks", slog.Any("sinks", cfg.Events.Sinks), slog.Int("active", len(sinks)))
	return events.NewMulti(sinks...), func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
}

func setupLogging(cfg config.LoggingConfig) (*os.File, *slog.Logger, error) {
	dir := cfg.Directory
	if dir == "" {
		dir = "./logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	fileName := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".log")
	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	writer := io.MultiWriter(os.Stdout, file)
	logger := logging.New(writer, logging.Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: true,
	})
	log.SetOutput(writer)
	log.SetFlags(0)
	log.SetPrefix("")

	return file, logger, nil
}
