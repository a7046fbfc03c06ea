package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик сервиса
type Metrics struct {
	// gRPC метрики
	GRPCRequestsTotal    *prometheus.CounterVec
	GRPCRequestDuration  *prometheus.HistogramVec
	GRPCRequestsInFlight prometheus.Gauge

	// Registry (C1)
	RegistryEntries  prometheus.Gauge
	RegistrySweeps   prometheus.Counter
	RegistryExpired  prometheus.Counter

	// Worker pool (C2/C3)
	PoolWorkers           *prometheus.GaugeVec
	PoolBorrowWait        prometheus.Histogram
	WorkerRestarts        prometheus.Counter
	WorkerRestartFailures prometheus.Counter

	// Dispatch (C4)
	DispatchReplies *prometheus.CounterVec

	// Bidi stream (C5)
	StreamInFlight      prometheus.Gauge
	StreamBackpressure  prometheus.Counter

	// Системные метрики
	MemoryUsage *prometheus.GaugeVec
	Goroutines  prometheus.Gauge

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics инициализирует метрики
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		GRPCRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "grpc_requests_total",
				Help:      "Total number of gRPC requests",
			},
			[]string{"method", "status"},
		),

		GRPCRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "grpc_request_duration_seconds",
				Help:      "Duration of gRPC requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),

		GRPCRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "grpc_requests_in_flight",
				Help:      "Current number of gRPC requests being processed",
			},
		),

		RegistryEntries: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "registry_entries",
				Help:      "Current number of fetcher configs held in the registry",
			},
		),

		RegistrySweeps: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "registry_sweeps_total",
				Help:      "Total number of TTL sweep passes",
			},
		),

		RegistryExpired: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "registry_expired_total",
				Help:      "Total number of fetcher entries evicted by TTL",
			},
		),

		PoolWorkers: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pool_workers",
				Help:      "Current number of workers by state",
			},
			[]string{"state"},
		),

		PoolBorrowWait: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pool_borrow_wait_seconds",
				Help:      "Time spent waiting to borrow a worker from the pool",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		WorkerRestarts: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "worker_restarts_total",
				Help:      "Total number of worker subprocess restarts",
			},
		),

		WorkerRestartFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "worker_restart_failures_total",
				Help:      "Total number of worker restart attempts that did not bring the worker back up",
			},
		),

		DispatchReplies: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dispatch_replies_total",
				Help:      "Total number of fetch-and-parse replies by status",
			},
			[]string{"status"},
		),

		StreamInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stream_inflight",
				Help:      "Current number of in-flight requests across all bidi streams",
			},
		),

		StreamBackpressure: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stream_backpressure_total",
				Help:      "Total number of times a stream receiver suspended because the in-flight set was full",
			},
		),

		MemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "memory_usage_bytes",
				Help:      "Current memory usage",
			},
			[]string{"type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("tikapipe", "")
	}
	return defaultMetrics
}

// RecordGRPCRequest записывает метрики gRPC запроса
func (m *Metrics) RecordGRPCRequest(method string, status string, duration time.Duration) {
	m.GRPCRequestsTotal.WithLabelValues(method, status).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordSweep записывает метрики одного прохода TTL-обходчика
func (m *Metrics) RecordSweep(entries, expired int) {
	m.RegistrySweeps.Inc()
	m.RegistryExpired.Add(float64(expired))
	m.RegistryEntries.Set(float64(entries))
}

// SetRegistrySize updates the registry_entries gauge without touching the
// sweep counters, for callers like Save that change the registry's size
// outside of a sweep pass.
func (m *Metrics) SetRegistrySize(entries int) {
	m.RegistryEntries.Set(float64(entries))
}

// SetPoolWorkers устанавливает текущее количество воркеров в заданном состоянии
func (m *Metrics) SetPoolWorkers(state string, count int) {
	m.PoolWorkers.WithLabelValues(state).Set(float64(count))
}

// RecordWorkerRestart записывает попытку рестарта воркера
func (m *Metrics) RecordWorkerRestart(ok bool) {
	m.WorkerRestarts.Inc()
	if !ok {
		m.WorkerRestartFailures.Inc()
	}
}

// RecordDispatchReply записывает статус выданного ответа
func (m *Metrics) RecordDispatchReply(status string) {
	m.DispatchReplies.WithLabelValues(status).Inc()
}

// RecordBackpressure отмечает приостановку приёмника из-за заполненного in-flight набора
func (m *Metrics) RecordBackpressure() {
	m.StreamBackpressure.Inc()
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer запускает HTTP сервер для метрик
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, ошибка записи не критична
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
