// Пакет app собирает витрину из компонентов и управляет её жизненным циклом:
// хранилища, сервисы, HTTP API, фоновые воркеры и graceful shutdown.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sopilka-store/internal/catalog"
	healthcheck "github.com/vladislavdragonenkov/sopilka-store/internal/health"
	"github.com/vladislavdragonenkov/sopilka-store/internal/httpapi"
	"github.com/vladislavdragonenkov/sopilka-store/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/sopilka-store/internal/metrics"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/cart"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/checkout"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/idempotency"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/outbox"
	"github.com/vladislavdragonenkov/sopilka-store/internal/service/shipping"
	"github.com/vladislavdragonenkov/sopilka-store/internal/version"
)

const (
	httpShutdownTimeout = 5 * time.Second
	storagePingTimeout  = 2 * time.Second
)

// Run запускает витрину и блокируется до отмены ctx или фатальной ошибки.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if deps.closeFn != nil {
			if err := deps.closeFn(); err != nil {
				logger.WithError(err).Warn("failed to close storage")
			}
		}
	}()

	cat, err := catalog.Load()
	if err != nil {
		return err
	}

	storeMetrics := metrics.NewStorefrontMetrics()

	cartSvc := cart.NewService(deps.cartRepo, cat, logger.WithField("component", "cart-service"))
	checkoutSvc := checkout.NewService(
		cat,
		deps.repo,
		deps.timelineRepo,
		deps.outboxRepo,
		logger.WithField("component", "checkout-service"),
		checkout.WithIdempotency(deps.idempotencyRepo),
		checkout.WithMetrics(storeMetrics),
	)

	novaPoshta := shipping.NewNovaPoshtaProvider(cfg.NovaPoshtaAPIKey, logger.WithField("component", "nova-poshta"))
	ukrPoshta := shipping.NewUkrPoshtaDirectory()

	// Kafka опционален: без брокеров события уходят только в Telegram.
	kafkaProducer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.WithError(err).Warn("continuing without kafka")
	}
	defer closeKafka(kafkaProducer, logger)

	publisher := buildOutboxPublisher(cfg, kafkaProducer, logger)
	if publisher != nil {
		workerOpts := []outbox.Option{
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		}
		if kafkaProducer != nil {
			workerOpts = append(workerOpts, outbox.WithDLQPublisher(
				kafka.NewDeadLetterPublisher(kafkaProducer, kafka.TopicOrderEvents),
			))
		}
		worker := outbox.NewWorker(deps.outboxRepo, publisher, workerOpts...)
		go worker.Run(ctx)
	} else {
		logger.Info("no outbox publisher configured, events stay pending")
	}

	cleanupWorker := idempotency.NewCleanupWorker(
		deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup")),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)
	go cleanupWorker.Run(ctx)

	healthHandler := healthcheck.NewHandler(version.String())
	if deps.storageChecker != nil {
		healthHandler.RegisterChecker("storage", deps.storageChecker)
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiHandler := httpapi.NewHandler(httpapi.Deps{
		Catalog:    cat,
		Carts:      cartSvc,
		Checkout:   checkoutSvc,
		Orders:     deps.repo,
		NovaPoshta: novaPoshta,
		UkrPoshta:  ukrPoshta,
		Metrics:    storeMetrics,
		Logger:     logger.WithField("component", "http-api"),
	})

	apiSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      apiHandler.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
