package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/pos/internal/health"
	"github.com/vladislavdragonenkov/pos/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/pos/internal/metrics"
	"github.com/vladislavdragonenkov/pos/internal/service/customer"
	"github.com/vladislavdragonenkov/pos/internal/service/order"
	"github.com/vladislavdragonenkov/pos/internal/service/outbox"
	transport "github.com/vladislavdragonenkov/pos/internal/transport/http"
	"github.com/vladislavdragonenkov/pos/internal/version"
)

// Run запускает POS-сервис: API, метрики с health-проверками и outbox worker.
// Блокируется до отмены ctx или фатальной ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	customerSvc := customer.NewService(deps.Customers, deps.Outbox, logger.WithField("component", "customer-service"))
	orderSvc := order.NewProcessor(deps.Customers, deps.Orders, logger.WithField("component", "order-processor"))

	handler := transport.NewHandler(customerSvc, orderSvc, deps.Products, logger.WithField("component", "http"))

	// Kafka опционален: без брокеров события outbox уходят в лог.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	var publisher domain.OutboxPublisher
	var dlqPublisher domain.OutboxPublisher
	if kafkaProducer != nil {
		publisher = kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicOrderEvents)
		dlqPublisher = kafka.NewDLQPublisher(kafkaProducer)
	} else {
		publisher = logPublisher{logger: logger.WithField("component", "outbox-log-publisher")}
	}

	worker := outbox.NewWorker(
		deps.Outbox,
		publisher,
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithDLQPublisher(dlqPublisher),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithMetrics(metrics.NewPOSMetrics()),
		outbox.WithSentRetention(cfg.OutboxSentRetention),
	)

	healthHandler := healthcheck.NewHandler(version.String())
	if deps.Store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewStorageChecker("postgres", storePinger{deps: deps}))
	}
	healthHandler.RegisterChecker("outbox", healthcheck.NewOutboxBacklogChecker(deps.Outbox, 0))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go worker.Run(workerCtx)

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler.Router()}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("API сервер слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервис")
		stopWorker()
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
		return ctx.Err()
	case err := <-errCh:
		stopWorker()
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// storePinger адаптирует postgres-хранилище к интерфейсу health.Pinger.
type storePinger struct {
	deps *Dependencies
}

func (p storePinger) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return p.deps.Store.Ping(ctx)
}

// logPublisher пишет события outbox в лог, когда Kafka не настроен.
type logPublisher struct {
	logger *log.Entry
}

func (p logPublisher) Publish(event domain.OutboxMessage) error {
	p.logger.WithFields(log.Fields{
		"outbox_id":      event.ID,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"event_type":     event.EventType,
	}).Info("outbox event")
	return nil
}

var _ domain.OutboxPublisher = logPublisher{}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
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
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
