package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kasirpos/kasir-terminal/api/controllers"
	"github.com/kasirpos/kasir-terminal/api/routes"
	"github.com/kasirpos/kasir-terminal/internal/cart"
	"github.com/kasirpos/kasir-terminal/internal/catalog"
	"github.com/kasirpos/kasir-terminal/internal/checkout"
	"github.com/kasirpos/kasir-terminal/internal/cron"
	"github.com/kasirpos/kasir-terminal/internal/receipt"
	"github.com/kasirpos/kasir-terminal/pkg/config"
	"github.com/kasirpos/kasir-terminal/pkg/enums"
	"github.com/kasirpos/kasir-terminal/pkg/instance"
	"github.com/kasirpos/kasir-terminal/pkg/kasirapi"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
	"github.com/kasirpos/kasir-terminal/pkg/metrics"
	"github.com/kasirpos/kasir-terminal/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "kasir-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "kasir-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if !cfg.JWT.Verifies() {
		logg.Warn(context.Background(), "KASIR_JWT_SECRET unset, bearer tokens are decoded without signature checks")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	posMetrics := metrics.NewPOSMetrics(registry)

	backend, err := kasirapi.NewClient(cfg.Backend.BaseURL,
		kasirapi.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		kasirapi.WithBreaker(cfg.Backend.BreakerMaxFailures, cfg.Backend.BreakerOpenTimeout),
		kasirapi.WithLogger(logg),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create kasir backend client", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(backend)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	var (
		cartStore   cart.Store
		cartLocker  cart.Locker
		guard       checkout.Guard
		redisPinger controllers.Pinger
		janitor     *cron.Service
	)
	switch cfg.Session.StoreKind() {
	case enums.SessionStoreRedis:
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()

		if cartStore, err = cart.NewRedisStore(redisClient, cfg.Session.TTL, redis.IsNil); err != nil {
			logg.Error(context.Background(), "failed to create redis cart store", err)
			os.Exit(1)
		}
		if guard, err = checkout.NewRedisGuard(redisClient, cfg.Checkout.InFlightTTL, redis.IsNil, logg); err != nil {
			logg.Error(context.Background(), "failed to create redis checkout guard", err)
			os.Exit(1)
		}
		if cartLocker, err = cart.NewRedisLocker(cart.RedisLockerParams{
			Client: redisClient,
			IsNil:  redis.IsNil,
			Logger: logg,
			TTL:    cfg.Session.LockTTL,
			Wait:   cfg.Session.LockWait,
		}); err != nil {
			logg.Error(context.Background(), "failed to create redis cart locker", err)
			os.Exit(1)
		}
		redisPinger = redisClient
	default:
		memoryStore := cart.NewMemoryStore(cfg.Session.TTL)
		sweep, err := cron.NewCartSweepJob(memoryStore, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create cart sweep job", err)
			os.Exit(1)
		}
		if janitor, err = cron.NewService(cron.ServiceParams{
			Logger:   logg,
			Jobs:     []cron.Job{sweep},
			Metrics:  posMetrics,
			Interval: cfg.Session.SweepInterval,
		}); err != nil {
			logg.Error(context.Background(), "failed to create cart janitor", err)
			os.Exit(1)
		}
		cartStore = memoryStore
		cartLocker = cart.NewMemoryLocker()
		guard = checkout.NewMemoryGuard()
	}

	cartService, err := cart.NewService(cartStore, catalogService, posMetrics,
		cart.WithLocker(cartLocker),
		cart.WithSubmissionCheck(guard),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Carts:   cartService,
		Orders:  backend,
		Guard:   guard,
		Metrics: posMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	receiptService, err := receipt.NewService(backend, posMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create receipt service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"session_store": string(cfg.Session.StoreKind()),
		"backend":       cfg.Backend.BaseURL,
		"instance":      instance.GetID(),
	})
	logg.Info(ctx, "starting kasir api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisPinger,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			catalogService,
			cartService,
			checkoutService,
			receiptService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if janitor != nil {
		go func() {
			if err := janitor.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "cart janitor stopped", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down kasir api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
