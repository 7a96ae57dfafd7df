package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/rocketcart/api/routes"
	"github.com/angelmondragon/rocketcart/internal/cart"
	"github.com/angelmondragon/rocketcart/internal/snapshot"
	"github.com/angelmondragon/rocketcart/internal/stock"
	"github.com/angelmondragon/rocketcart/pkg/config"
	"github.com/angelmondragon/rocketcart/pkg/logger"
	"github.com/angelmondragon/rocketcart/pkg/metrics"
	"github.com/angelmondragon/rocketcart/pkg/tracing"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		err = multierr.Append(err, shutdownTracing(flushCtx))
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(registry)

	stockClient, err := stock.NewClient(cfg.Stock.BaseURL,
		stock.WithTimeout(cfg.Stock.Timeout),
		stock.WithRecorder(cartMetrics),
	)
	if err != nil {
		return err
	}

	snapshots, closeSnapshots, err := snapshot.Open(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, closeSnapshots())
	}()

	store, err := cart.NewStore(ctx, cart.StoreParams{
		Oracle:    stockClient,
		Persister: snapshots,
		Logger:    logg,
		Recorder:  cartMetrics,
	})
	if err != nil {
		return err
	}

	current := store.Cart()
	cartMetrics.ObserveCart(len(current), current.Units())
	unsubscribe := store.Subscribe(func(c cart.Cart) {
		cartMetrics.ObserveCart(len(c), c.Units())
	})
	defer unsubscribe()

	// Request contexts are cancelled when shutdown starts so event streams let go of their connections.
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, registry, snapshots, store, stockClient),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelRequests)

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"addr":           addr,
		"storage_driver": cfg.Storage.Driver,
		"cart_lines":     len(current),
	})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
