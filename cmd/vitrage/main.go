package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/vitrage-erp/vitrage-erp/internal/app"
	"github.com/vitrage-erp/vitrage-erp/internal/billing/invoices"
	"github.com/vitrage-erp/vitrage-erp/internal/catalog"
	"github.com/vitrage-erp/vitrage-erp/internal/observability"
	"github.com/vitrage-erp/vitrage-erp/internal/platform/cache"
	"github.com/vitrage-erp/vitrage-erp/internal/platform/db"
	"github.com/vitrage-erp/vitrage-erp/internal/sales/orders"
	"github.com/vitrage-erp/vitrage-erp/internal/sales/quotations"
	salesshared "github.com/vitrage-erp/vitrage-erp/internal/sales/shared"
	"github.com/vitrage-erp/vitrage-erp/internal/sequence"
	"github.com/vitrage-erp/vitrage-erp/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, catalog cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()
	validate := validator.New()
	idempotencyStore := shared.NewIdempotencyStore(pool)

	allocator := sequence.NewAllocator()
	allocator.OnRetry = func(dt sequence.DocType) {
		metrics.SequenceRetry(string(dt))
	}

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, catalog.NewCache(redisClient))
	catalogHandler := catalog.NewHandler(logger, catalogService, validate)

	pricer := salesshared.NewPricer(catalogService)
	pricer.OnGap = metrics.PricingGap

	quotationsRepo := quotations.NewRepository(pool)
	quotationsService := quotations.NewService(quotationsRepo, pricer, allocator)
	quotationsHandler := quotations.NewHandler(logger, quotationsService, validate, idempotencyStore)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo, pricer, allocator, quotationsService)
	ordersHandler := orders.NewHandler(logger, ordersService, validate, idempotencyStore)

	invoicesRepo := invoices.NewRepository(pool)
	invoicesService := invoices.NewService(invoicesRepo, allocator, ordersService)
	invoicesHandler := invoices.NewHandler(logger, invoicesService, validate, idempotencyStore)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		CatalogHandler:    catalogHandler,
		QuotationsHandler: quotationsHandler,
		OrdersHandler:     ordersHandler,
		InvoicesHandler:   invoicesHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
