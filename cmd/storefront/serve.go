package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	catalogapp "github.com/dmehra2102/storefront/internal/catalog/application"
	"github.com/dmehra2102/storefront/internal/catalog/infrastructure/gcs"
	cataloghttp "github.com/dmehra2102/storefront/internal/catalog/infrastructure/http"
	"github.com/dmehra2102/storefront/internal/identity"
	inventoryapp "github.com/dmehra2102/storefront/internal/inventory/application"
	orderapp "github.com/dmehra2102/storefront/internal/order/application"
	orderhttp "github.com/dmehra2102/storefront/internal/order/infrastructure/http"
	orderkafka "github.com/dmehra2102/storefront/internal/order/infrastructure/kafka"
	paymentapp "github.com/dmehra2102/storefront/internal/payment/application"
	paymenthttp "github.com/dmehra2102/storefront/internal/payment/infrastructure/http"
	"github.com/dmehra2102/storefront/internal/payment/infrastructure/stripe"
	"github.com/dmehra2102/storefront/internal/store"
	"github.com/dmehra2102/storefront/internal/store/memory"
	"github.com/dmehra2102/storefront/internal/store/postgres"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/config"
	"github.com/dmehra2102/storefront/pkg/httpx"
	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/dmehra2102/storefront/pkg/metrics"
	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/dmehra2102/storefront/pkg/shutdown"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox relay",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(cmd.Context())
	defer cancel()

	tp, err := tracing.Init(ctx, "storefront", cfg.OTLPEndpoint, log)
	if err != nil {
		return fmt.Errorf("otel init: %w", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	st, relayStore, closeStore, err := openStore(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewServerMetrics(reg, "api")

	var dedupe paymenthttp.Deduper
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		dedupe = idempotency.NewStore(rdb, cfg.IdempotencyTTL)
	}

	var images catalogapp.ImageStore = uploadsDisabled{}
	if cfg.GCSBucket != "" {
		bucket, err := gcs.New(ctx, log, cfg.GCSBucket, cfg.StorageEmulatorHost)
		if err != nil {
			return err
		}
		defer bucket.Close()
		images = bucket
	}

	ledger := inventoryapp.NewLedger(log)
	orders := orderapp.NewService(log, st, ledger, orderapp.WithRecorder(m))
	payments := paymentapp.NewService(log, st, stripe.NewProcessor(log, cfg.StripeSecretKey), ledger,
		paymentapp.WithRecorder(m),
		paymentapp.WithCurrency(cfg.PaymentCurrency),
	)
	catalog := catalogapp.NewService(log, st, images)

	auth := identity.NewVerifier(cfg.JWTSecret).Middleware(log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.OK(w, "ok", nil)
	})
	r.Handle("/metrics", metrics.Handler(reg))
	r.Route("/api", func(api chi.Router) {
		api.Mount("/orders", m.Instrument("orders")(orderhttp.NewHandler(log, orders).Routes(auth)))
		api.Mount("/payments", m.Instrument("payments")(
			paymenthttp.NewHandler(log, payments, stripe.NewWebhookVerifier(cfg.StripeWebhookSecret), dedupe).Routes(auth)))
		api.Mount("/products", m.Instrument("products")(cataloghttp.NewHandler(log, catalog).Routes(auth)))
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		writer := orderkafka.NewWriter(cfg.KafkaBrokers)
		defer writer.Close()
		dispatch := outbox.NewDispatcher(log, writer, cfg.OrderEventsTopic)
		relay := outbox.NewRelay(log, relayStore, dispatch, relayID())
		g.Go(func() error { return relay.Run(gctx) })
	} else {
		log.Warn("no kafka brokers configured, outbox events stay pending")
	}

	g.Go(func() error {
		log.Info("http listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("storefront stopped with error", "err", err)
		return err
	}
	log.Info("storefront shutdown complete")
	return nil
}

func openStore(ctx context.Context, log *slog.Logger, cfg *config.Config) (store.Store, outbox.Store, func(), error) {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store, data is lost on exit")
		st := memory.New()
		return st, st, func() {}, nil
	}
	pool, err := postgres.Connect(ctx, cfg.PGURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	return postgres.New(log, pool), postgres.NewOutboxStore(log, pool), pool.Close, nil
}

func relayID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return "storefront-relay-" + host
}

var errUploadsDisabled = apperr.New(apperr.KindValidation, "uploads_disabled", "Image uploads are not configured")

// uploadsDisabled stands in for object storage when no bucket is configured.
type uploadsDisabled struct{}

func (uploadsDisabled) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", errUploadsDisabled
}

func (uploadsDisabled) Delete(context.Context, string) error { return nil }
