package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// POSMetrics содержит метрики кассовых операций.
type POSMetrics struct {
	// Счётчики размещения заказов
	ordersPlaced   prometheus.Counter
	ordersRejected *prometheus.CounterVec

	// Счётчики операций над клиентами
	customerOps *prometheus.CounterVec

	// Гистограмма времени размещения заказа
	placementDuration prometheus.Histogram

	// Счётчик событий, поставленных в outbox
	outboxEvents prometheus.Counter

	// Gauge backlog незаотправленных событий outbox
	outboxPending prometheus.Gauge

	// Gauge возраста самого старого pending-события outbox
	outboxOldestAge prometheus.Gauge

	// Счётчик попыток публикации из outbox по результату
	outboxPublishes *prometheus.CounterVec
}

// NewPOSMetrics создаёт новый экземпляр метрик.
func NewPOSMetrics() *POSMetrics {
	return NewPOSMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewPOSMetricsWithRegisterer создаёт метрики в изолированном registerer;
// повторная регистрация той же серии возвращает уже существующий collector.
func NewPOSMetricsWithRegisterer(registerer prometheus.Registerer) *POSMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &POSMetrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_orders_placed_total",
			Help: "Total number of orders placed successfully",
		}),
		ordersRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pos_orders_rejected_total",
			Help: "Total number of order placements rejected",
		}, []string{"reason"}),
		customerOps: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pos_customer_operations_total",
			Help: "Total number of customer operations by kind",
		}, []string{"operation"}),
		placementDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "pos_order_placement_duration_seconds",
			Help:    "Duration of order placement transactions in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_outbox_events_total",
			Help: "Total number of events enqueued to the transactional outbox",
		}),
		outboxPending: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "pos_outbox_pending",
			Help: "Number of outbox events awaiting publication",
		}),
		outboxOldestAge: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "pos_outbox_oldest_pending_age_seconds",
			Help: "Age in seconds of the oldest pending outbox event",
		}),
		outboxPublishes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pos_outbox_publish_attempts_total",
			Help: "Total number of outbox publish attempts grouped by result",
		}, []string{"result"}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderPlaced увеличивает счётчик успешно размещённых заказов.
func (m *POSMetrics) RecordOrderPlaced() {
	m.ordersPlaced.Inc()
}

// RecordOrderRejected увеличивает счётчик отклонённых размещений по причине.
func (m *POSMetrics) RecordOrderRejected(reason string) {
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// RecordCustomerOperation увеличивает счётчик операций над клиентами.
func (m *POSMetrics) RecordCustomerOperation(operation string) {
	m.customerOps.WithLabelValues(operation).Inc()
}

// RecordPlacementDuration записывает время транзакции размещения.
func (m *POSMetrics) RecordPlacementDuration(duration time.Duration) {
	m.placementDuration.Observe(duration.Seconds())
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *POSMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}

// SetOutboxPending выставляет текущий backlog outbox.
func (m *POSMetrics) SetOutboxPending(count int) {
	m.outboxPending.Set(float64(count))
}

// SetOutboxOldestAge выставляет возраст самого старого pending-события.
func (m *POSMetrics) SetOutboxOldestAge(age time.Duration) {
	if age < 0 {
		age = 0
	}
	m.outboxOldestAge.Set(age.Seconds())
}

// RecordOutboxPublish увеличивает счётчик попыток публикации по результату.
func (m *POSMetrics) RecordOutboxPublish(result string) {
	m.outboxPublishes.WithLabelValues(result).Inc()
}
