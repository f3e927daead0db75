package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"commuto/internal/general/config"
	"commuto/internal/general/jwt"
	"commuto/internal/general/logger"
	"commuto/internal/general/postgres"
	"commuto/internal/general/rabbitmq"
	"commuto/internal/general/ratelimit"
	"commuto/internal/general/websocket"
	"commuto/internal/software/marketplace/handler"
	"commuto/internal/software/marketplace/service"
)

// run wires the marketplace service and blocks until ctx is cancelled.
func run(ctx context.Context, log *logger.Logger) error {
	// static request ID for startup logs
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

	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	pub := rabbitmq.NewMQPublisher(rmq)

	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, time.Duration(cfg.JWT.TTLMinutes)*time.Minute)

	uow := postgres.NewUnitOfWork(pool)
	tripRepo := postgres.NewTripRepo()
	bidRepo := postgres.NewBidRepo()
	bookingRepo := postgres.NewBookingRepo()
	locationRepo := postgres.NewLocationRepo()
	userRepo := postgres.NewUserRepo()

	hub := websocket.NewHub(log)
	ws := websocket.NewHandler(log, jwtManager, hub)

	svc := service.NewMarketplaceService(log, uow, tripRepo, bidRepo, bookingRepo, locationRepo, userRepo, pub, hub)

	limiter := ratelimit.New(time.Duration(cfg.RateLimit.WindowSeconds) * time.Second)
	quotas := handler.Quotas{
		Write:    cfg.RateLimit.WritePerWindow,
		Action:   cfg.RateLimit.ActionPerWindow,
		Read:     cfg.RateLimit.ReadPerWindow,
		Location: cfg.RateLimit.LocationPerWindow,
	}

	mux := http.NewServeMux()
	httpHandler := handler.NewMarketplaceHTTPHandler(svc, log, jwtManager, ws, limiter, quotas)
	httpHandler.RegisterRoutes(mux)

	// global in-flight cap; requests beyond it wait or fail on cancel
	limitedHandler := withConcurrencyLimit(cfg.HTTP.MaxConcurrent, mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Info(ctx, "service_started",
		fmt.Sprintf("Marketplace service started on port %d", cfg.HTTP.Port),
		map[string]any{"port": cfg.HTTP.Port, "max_concurrent": cfg.HTTP.MaxConcurrent},
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
		log.Info(ctx, "shutdown_started", "Starting graceful shutdown", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.HTTP.Port})
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
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
