// Package metrics exposes Prometheus instrumentation for the ingest loop,
// leaderboard engine, subject hub, and subscription protocol.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter/gauge/histogram the service publishes.
type Metrics struct {
	// CDC ingest
	notificationsTotal   *prometheus.CounterVec
	notificationErrors   *prometheus.CounterVec
	reconnectsTotal      prometheus.Counter
	listenerConnected    prometheus.Gauge
	notificationLatency  prometheus.Histogram

	// Leaderboard
	windowUpdatesTotal *prometheus.CounterVec
	windowSize         *prometheus.GaugeVec

	// Subject hub
	activeSubjects    *prometheus.GaugeVec
	subjectSubscribers *prometheus.GaugeVec
	broadcastDropped  *prometheus.CounterVec

	// Subscription protocol
	rpcRequestsTotal *prometheus.CounterVec
	rpcErrorsTotal   *prometheus.CounterVec
	socketsActive    prometheus.Gauge

	// System
	goroutines prometheus.Gauge
	memoryMB   prometheus.Gauge
	cpuPercent prometheus.Gauge
}

// New constructs and registers all metrics against the default registerer.
func New() *Metrics {
	return &Metrics{
		notificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenrank_cdc_notifications_total",
			Help: "Total CDC notifications processed, by channel.",
		}, []string{"channel"}),
		notificationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenrank_cdc_notification_errors_total",
			Help: "Total CDC notifications that failed to parse or apply, by channel.",
		}, []string{"channel"}),
		reconnectsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tokenrank_cdc_reconnects_total",
			Help: "Total times the CDC listener reconnected after a dropped connection.",
		}),
		listenerConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tokenrank_cdc_listener_connected",
			Help: "1 if the CDC listener currently holds a live connection, 0 otherwise.",
		}),
		notificationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokenrank_cdc_notification_latency_seconds",
			Help:    "Time from notification receipt to hub broadcast.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),

		windowUpdatesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenrank_leaderboard_window_updates_total",
			Help: "Total leaderboard window updates, by order type.",
		}, []string{"order_type"}),
		windowSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tokenrank_leaderboard_window_size",
			Help: "Current member count of each leaderboard window.",
		}, []string{"order_type"}),

		activeSubjects: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tokenrank_hub_active_subjects",
			Help: "Number of live subject hubs, by hub kind.",
		}, []string{"kind"}),
		subjectSubscribers: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tokenrank_hub_subscribers",
			Help: "Total subscriber count across all subjects, by hub kind.",
		}, []string{"kind"}),
		broadcastDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenrank_hub_broadcast_dropped_total",
			Help: "Total broadcast messages dropped because a subscriber's queue was full.",
		}, []string{"kind"}),

		rpcRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenrank_rpc_requests_total",
			Help: "Total JSON-RPC requests handled, by method.",
		}, []string{"method"}),
		rpcErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenrank_rpc_errors_total",
			Help: "Total JSON-RPC error responses, by method and code.",
		}, []string{"method", "code"}),
		socketsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tokenrank_sockets_active",
			Help: "Number of currently connected subscription sockets.",
		}),

		goroutines: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tokenrank_goroutines",
			Help: "Current goroutine count.",
		}),
		memoryMB: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tokenrank_memory_heap_mb",
			Help: "Current heap allocation in megabytes.",
		}),
		cpuPercent: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tokenrank_cpu_percent",
			Help: "Smoothed host CPU usage percentage.",
		}),
	}
}

func (m *Metrics) NotificationReceived(channel string) {
	m.notificationsTotal.WithLabelValues(channel).Inc()
}

func (m *Metrics) NotificationError(channel string) {
	m.notificationErrors.WithLabelValues(channel).Inc()
}

func (m *Metrics) Reconnected() {
	m.reconnectsTotal.Inc()
}

func (m *Metrics) SetListenerConnected(connected bool) {
	if connected {
		m.listenerConnected.Set(1)
	} else {
		m.listenerConnected.Set(0)
	}
}

func (m *Metrics) ObserveNotificationLatency(d time.Duration) {
	m.notificationLatency.Observe(d.Seconds())
}

func (m *Metrics) WindowUpdated(orderType string) {
	m.windowUpdatesTotal.WithLabelValues(orderType).Inc()
}

func (m *Metrics) SetWindowSize(orderType string, size int) {
	m.windowSize.WithLabelValues(orderType).Set(float64(size))
}

func (m *Metrics) SetActiveSubjects(kind string, n int) {
	m.activeSubjects.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) SetSubjectSubscribers(kind string, n int) {
	m.subjectSubscribers.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) BroadcastDropped(kind string) {
	m.broadcastDropped.WithLabelValues(kind).Inc()
}

func (m *Metrics) RPCRequest(method string) {
	m.rpcRequestsTotal.WithLabelValues(method).Inc()
}

func (m *Metrics) RPCError(method string, code int) {
	m.rpcErrorsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

func (m *Metrics) IncSocketsActive() {
	m.socketsActive.Inc()
}

func (m *Metrics) DecSocketsActive() {
	m.socketsActive.Dec()
}

func (m *Metrics) ReportSystem(sys *SystemMetrics) {
	m.goroutines.Set(float64(sys.GetGoroutines()))
	m.memoryMB.Set(sys.GetMemoryMB())
	m.cpuPercent.Set(sys.GetCPUPercent())
}
