// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers    prometheus.Gauge
	ActiveRooms      prometheus.Gauge
	ActiveGames      prometheus.Gauge
	MessagesReceived prometheus.Counter
	MessagesSent     prometheus.Counter
	GamesFinished    *prometheus.CounterVec
	MessageLatency   prometheus.Histogram
}

// NewMetrics registers the metrics on reg. Each server owns its own registry so
// several can live in one process.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of online players",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of active rooms",
		}),
		ActiveGames: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_games",
			Help:      "Number of games currently running",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of messages received",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Total number of messages sent",
		}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that ran to completion, by game mode",
		}, []string{"mode"}),
		MessageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_latency_seconds",
			Help:      "Message processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	reg.MustRegister(
		m.OnlinePlayers,
		m.ActiveRooms,
		m.ActiveGames,
		m.MessagesReceived,
		m.MessagesSent,
		m.GamesFinished,
		m.MessageLatency,
	)

	return m
}

type Monitor struct {
	metrics      *Metrics
	registry     *prometheus.Registry
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	registry := prometheus.NewRegistry()
	return &Monitor{
		metrics:   NewMetrics(namespace, registry),
		registry:  registry,
		startTime: time.Now(),
	}
}

func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

// Handler serves the registry in the Prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Uptime is exposed through expvar under /debug/vars.
func (m *Monitor) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// RequestCount is the number of messages received since start.
func (m *Monitor) RequestCount() int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.requestCount
}

var publishOnce sync.Once

// NewServeMux returns a mux with /metrics and /debug/vars.
func (m *Monitor) NewServeMux() *http.ServeMux {
	publishOnce.Do(func() {
		expvar.Publish("uptime", expvar.Func(func() interface{} {
			return m.Uptime().Seconds()
		}))
		expvar.Publish("requests", expvar.Func(func() interface{} {
			return m.RequestCount()
		}))
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/debug/vars", expvar.Handler())
	return mux
}

func (m *Monitor) IncOnlinePlayers() {
	m.metrics.OnlinePlayers.Inc()
}

func (m *Monitor) DecOnlinePlayers() {
	m.metrics.OnlinePlayers.Dec()
}

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) GameStarted() {
	m.metrics.ActiveGames.Inc()
}

// GameFinished is called once per game, whether it ran to the end or was stopped.
// Only completed games are counted by mode.
func (m *Monitor) GameFinished(mode string, completed bool) {
	m.metrics.ActiveGames.Dec()
	if completed {
		m.metrics.GamesFinished.WithLabelValues(mode).Inc()
	}
}

func (m *Monitor) IncMessagesReceived() {
	m.metrics.MessagesReceived.Inc()
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) IncMessagesSent() {
	m.metrics.MessagesSent.Inc()
}

func (m *Monitor) ObserveMessageLatency(duration time.Duration) {
	m.metrics.MessageLatency.Observe(duration.Seconds())
}
