package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"little-lemon/internal/auth"
	"little-lemon/internal/config"
	"little-lemon/internal/database"
	"little-lemon/internal/httpapi"
	"little-lemon/internal/logger"
	"little-lemon/internal/messaging"
	"little-lemon/internal/roles"
	"little-lemon/internal/services/cart"
	"little-lemon/internal/services/notification"
	"little-lemon/internal/services/order"
	"little-lemon/internal/storage/memory"
	"little-lemon/internal/store"
	"little-lemon/internal/throttle"
	"little-lemon/migrations"
)

func main() {
	var (
		mode       = flag.String("mode", "", "Service mode (api, notification-subscriber, migrate, issue-token)")
		configPath = flag.String("config", "config.yaml", "Path to the YAML config file")
		port       = flag.Int("port", 0, "HTTP port (overrides config)")
		username   = flag.String("username", "", "User to issue a token for (issue-token mode)")
		prefetch   = flag.Int("prefetch", 10, "RabbitMQ prefetch count")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "api":
		err = runAPI(ctx, cfg, log)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, log, *prefetch)
	case "migrate":
		err = runMigrate(ctx, cfg, log)
	case "issue-token":
		err = runIssueToken(ctx, cfg, log, *username)
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}
	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// openStore returns the configured Entity Store and a func releasing it.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger, migrate bool) (store.Store, func(), error) {
	requestID := logger.GenerateRequestID()

	if cfg.Storage.Driver == config.StorageMemory {
		st := memory.NewStore()
		st.SeedDemo()
		log.Info("store_ready", "Using in-memory store with demo data", requestID, nil)
		return st, func() {}, nil
	}

	db, err := database.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	if migrate {
		if err := db.RunMigrations(ctx, migrations.FS); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return database.NewStore(db), db.Close, nil
}

func runAPI(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	requestID := logger.GenerateRequestID()

	st, closeStore, err := openStore(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer closeStore()

	var (
		publisher order.Publisher
		broker    httpapi.Pinger
	)
	if cfg.RabbitMQ.Enabled {
		conn, err := messaging.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()
		log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)

		publisher = messaging.NewPublisher(conn, log)
		broker = conn
	}

	var th *throttle.Throttler
	if cfg.Throttle.Enabled {
		limiter, closeLimiter := newLimiter(ctx, cfg, log)
		defer closeLimiter()
		th = throttle.New(limiter,
			throttle.Rule{Limit: cfg.Throttle.AnonPerWindow, Window: cfg.Throttle.Window},
			throttle.Rule{Limit: cfg.Throttle.UserPerWindow, Window: cfg.Throttle.Window},
			log)
	}

	authn := auth.NewAuthenticator(auth.NewTokens(cfg.Auth), st, roles.NewResolver(st), log)
	router := httpapi.NewRouter(httpapi.Deps{
		Logger:         log,
		Authenticator:  authn,
		Throttler:      th,
		Cart:           cart.NewHandler(cart.NewService(st, log), log),
		Orders:         order.NewHandler(order.NewService(st, publisher, log), log),
		Database:       st,
		Broker:         broker,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("service_started", fmt.Sprintf("API started on port %d", cfg.Server.Port), requestID, map[string]interface{}{
			"port":     cfg.Server.Port,
			"storage":  cfg.Storage.Driver,
			"rabbitmq": cfg.RabbitMQ.Enabled,
			"throttle": cfg.Throttle.Enabled,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newLimiter prefers redis so limits hold across replicas and falls back to
// process-local counters when redis is disabled or unreachable.
func newLimiter(ctx context.Context, cfg *config.Config, log *logger.Logger) (throttle.Limiter, func()) {
	if !cfg.Redis.Enabled {
		return throttle.NewMemoryLimiter(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis_unavailable", "Redis unavailable, falling back to in-memory throttling", "", map[string]interface{}{
			"addr":  cfg.Redis.Addr,
			"error": err.Error(),
		})
		_ = client.Close()
		return throttle.NewMemoryLimiter(), func() {}
	}
	return throttle.NewRedisLimiter(client), func() { _ = client.Close() }
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	consumer := messaging.NewConsumer(conn, log, "notification-subscriber", prefetch)
	return notification.NewSubscriber(consumer, log, os.Stdout).Start(ctx)
}

func runMigrate(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if cfg.Storage.Driver == config.StorageMemory {
		return errors.New("migrate requires storage.driver=postgres")
	}
	_, closeStore, err := openStore(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	closeStore()
	return nil
}

// runIssueToken prints a bearer token for an existing user. Account
// management lives outside this service; this mode exists for operators
// and local testing.
func runIssueToken(ctx context.Context, cfg *config.Config, log *logger.Logger, username string) error {
	if username == "" {
		return errors.New("--username is required for issue-token mode")
	}

	st, closeStore, err := openStore(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer closeStore()

	user, err := st.UserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("lookup %q: %w", username, err)
	}
	token, err := auth.NewTokens(cfg.Auth).Issue(*user)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
