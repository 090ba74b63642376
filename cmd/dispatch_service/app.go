package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"quicklift/internal/config"
	"quicklift/internal/dispatch"
	"quicklift/internal/fare"
	"quicklift/internal/geoindex"
	"quicklift/internal/httpapi"
	"quicklift/internal/jwt"
	"quicklift/internal/logger"
	"quicklift/internal/postgres"
	"quicklift/internal/rabbitmq"
	"quicklift/internal/relay"
	"quicklift/internal/ws"
)

// run wires the dispatch service and blocks until ctx is cancelled.
func run(ctx context.Context, maxConcurrent int) error {
	// static request ID for startup logs
	log := logger.New("dispatch-service")
	ctx = log.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Error(ctx, "db_migration_failed", "Failed to apply migrations", err, nil)
		return err
	}

	rmq, err := rabbitmq.Connect(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour)

	uow := postgres.NewUnitOfWork(pool)
	tripRepo := postgres.NewTripRepo(pool)
	driverRepo := postgres.NewDriverRepo(pool)
	userRepo := postgres.NewUserRepo(pool)

	broker := relay.NewBroker()
	defer broker.Close()

	deps := dispatch.Deps{
		Trips:   tripRepo,
		Drivers: driverRepo,
		Users:   userRepo,
		UoW:     uow,
		Fares:   fare.NewCalculator(cfg.Fare.RatePerKM),
		Relay:   broker,
		Mirror:  rabbitmq.NewMirror(rmq),
		Log:     log,
	}

	// the geo index only runs when nearest matching is configured
	if cfg.Matching.Strategy == "nearest" {
		index, err := geoindex.Connect(ctx, cfg)
		if err != nil {
			log.Error(ctx, "redis_connection_failed", "Failed to connect to Redis geo index", err, nil)
			return err
		}
		defer index.Close()

		deps.Index = index
		deps.Match = &dispatch.NearestMatch{
			Drivers:  driverRepo,
			Index:    index,
			RadiusKM: cfg.Matching.RadiusKM,
			Limit:    cfg.Matching.Limit,
		}
		// keep the geo index current with location reports from all instances
		go rabbitmq.RunLocationIndexer(ctx, rmq, index, log)

		log.Info(ctx, "matching_strategy", "Using nearest-driver matching via Redis GEO", map[string]any{
			"radius_km": cfg.Matching.RadiusKM, "limit": cfg.Matching.Limit,
		})
	}

	svc := dispatch.NewService(deps)

	gateway := ws.NewGateway(log, jwtManager, svc, broker)

	mux := http.NewServeMux()
	httpHandler := httpapi.NewHandler(svc, log, jwtManager, gateway)
	httpHandler.RegisterRoutes(mux)

	// concurrency limiter (global), blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.DispatchServicePort),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Info(ctx, "service_started",
		fmt.Sprintf("Dispatch Service started on port %d", cfg.Services.DispatchServicePort),
		map[string]any{"port": cfg.Services.DispatchServicePort, "max_concurrent": maxConcurrent},
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info(ctx, "shutdown_started", "Dispatch Service shutting down", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{
				"port": cfg.Services.DispatchServicePort,
			})
			return err
		}
	}

	return nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client cancelled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
