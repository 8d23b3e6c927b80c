// Package metrics provides Prometheus metrics for the osupp pp-processing
// service (spec.md §6.4). The reference emits UDP counters/gauges tagged
// mode:<tag> to a local statsd endpoint; this rebuilds the same metric set
// behind the teacher's Prometheus Manager, with mode as a label instead of a
// tag (see DESIGN.md, the pkg/metrics entry).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Manager owns every metric this service emits, labeled by game mode.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	startups                *prometheus.CounterVec
	scoresProcessedNew      *prometheus.CounterVec
	scoresUpdated           *prometheus.CounterVec
	usersProcessed          *prometheus.CounterVec
	notableEvents           *prometheus.CounterVec
	difficultySuccess       *prometheus.CounterVec
	difficultyNotFound      *prometheus.CounterVec
	difficultyForcedRefresh *prometheus.CounterVec
	pendingQueries          *prometheus.GaugeVec
	backlogSize             *prometheus.GaugeVec
}

// Global metrics manager instance, mirroring the teacher's package-level
// accessor convention for the ambient metrics stack.
var globalManager *Manager //nolint:gochecknoglobals

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals

func init() { //nolint:gochecknoinits
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "osupp",
		subsystem:        "pp",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.startups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "startups_total", Help: "Total number of process startups.",
	}, []string{"mode"})

	m.scoresProcessedNew = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "score_processed_new_total", Help: "Total number of newly observed scores processed by the poller.",
	}, []string{"mode"})

	m.scoresUpdated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "score_updated_total", Help: "Total number of score rows whose pp value was updated.",
	}, []string{"mode"})

	m.usersProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "user_amount_processed_total", Help: "Total number of users whose aggregate pp was recomputed.",
	}, []string{"mode"})

	m.notableEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "score_notable_events_total", Help: "Total number of notable pp-gain events logged.",
	}, []string{"mode"})

	m.difficultySuccess = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "difficulty_retrieval_success_total", Help: "Total number of successful single-beatmap difficulty retrievals.",
	}, []string{"mode"})

	m.difficultyNotFound = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "difficulty_retrieval_not_found_total", Help: "Total number of beatmap difficulty lookups that found no row.",
	}, []string{"mode"})

	m.difficultyForcedRefresh = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "difficulty_required_retrieval_total", Help: "Total number of difficulty refreshes forced by a newly ranked beatmap.",
	}, []string{"mode"})

	m.pendingQueries = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "db_pending_queries", Help: "Number of in-flight queries per connection.",
	}, []string{"mode", "connection"})

	m.backlogSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "score_amount_behind_newest", Help: "Number of unprocessed scores observed on the last poll.",
	}, []string{"mode"})
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Startups increments the startup counter for mode.
func (m *Manager) Startups(mode string) {
	if !m.enabled {
		return
	}
	m.startups.WithLabelValues(mode).Inc()
}

// ScoresProcessedNew increments the new-score counter for mode.
func (m *Manager) ScoresProcessedNew(mode string) {
	if !m.enabled {
		return
	}
	m.scoresProcessedNew.WithLabelValues(mode).Inc()
}

// ScoresUpdated adds n to the score-update counter for mode.
func (m *Manager) ScoresUpdated(mode string, n int) {
	if !m.enabled || n <= 0 {
		return
	}
	m.scoresUpdated.WithLabelValues(mode).Add(float64(n))
}

// UsersProcessed increments the processed-user counter for mode.
func (m *Manager) UsersProcessed(mode string) {
	if !m.enabled {
		return
	}
	m.usersProcessed.WithLabelValues(mode).Inc()
}

// NotableEvents increments the notable-event counter for mode.
func (m *Manager) NotableEvents(mode string) {
	if !m.enabled {
		return
	}
	m.notableEvents.WithLabelValues(mode).Inc()
}

// DifficultySuccess increments the successful-retrieval counter for mode.
func (m *Manager) DifficultySuccess(mode string) {
	if !m.enabled {
		return
	}
	m.difficultySuccess.WithLabelValues(mode).Inc()
}

// DifficultyNotFound increments the not-found counter for mode.
func (m *Manager) DifficultyNotFound(mode string) {
	if !m.enabled {
		return
	}
	m.difficultyNotFound.WithLabelValues(mode).Inc()
}

// DifficultyForcedRefresh increments the forced-refresh counter for mode.
func (m *Manager) DifficultyForcedRefresh(mode string) {
	if !m.enabled {
		return
	}
	m.difficultyForcedRefresh.WithLabelValues(mode).Inc()
}

// PendingQueries sets the pending-query gauge for mode/connection.
func (m *Manager) PendingQueries(mode, connection string, n int64) {
	if !m.enabled {
		return
	}
	m.pendingQueries.WithLabelValues(mode, connection).Set(float64(n))
}

// Backlog sets the score-poller backlog gauge for mode.
func (m *Manager) Backlog(mode string, n int) {
	if !m.enabled {
		return
	}
	m.backlogSize.WithLabelValues(mode).Set(float64(n))
}

// Global returns the package-level Manager, matching the teacher's
// package-level-accessor convention for ambient stacks.
func Global() *Manager {
	return globalManager
}

// RefreshInterval returns the configured gauge-refresh cadence. The worker
// pool's background metrics ticker (internal/adapters/mq/worker) uses its own
// fixed interval and does not read this value.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}
