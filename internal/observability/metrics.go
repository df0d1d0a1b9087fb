package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xkilldash9x/wxauto/internal/config"
)

// Metrics holds the prometheus collectors for UI automation. A nil *Metrics
// is valid and records nothing, so components never need to check.
type Metrics struct {
	LockWait      prometheus.Histogram
	LockHeld      prometheus.Histogram
	LockRebuilds  prometheus.Counter
	ResolverPolls *prometheus.CounterVec
	Actions       *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg under namespace. Collectors
// already registered by an earlier call are reused, so every command run in
// one process reports into the same series.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	return &Metrics{
		LockWait: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "actor_lock_wait_seconds",
			Help:      "Time spent waiting to acquire the UI actor lock",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		})),
		LockHeld: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "actor_lock_held_seconds",
			Help:      "Time the UI actor lock was held per outermost acquisition",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		})),
		LockRebuilds: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_lock_domain_rebuilds_total",
			Help:      "Number of times the domain tier was rebuilt for a new concurrency domain",
		})),
		ResolverPolls: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_searches_total",
			Help:      "Resolver searches by mode and outcome",
		}, []string{"mode", "outcome"})),
		Actions: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Action protocol results by action and status",
		}, []string{"action", "status"})),
	}
}

// NewMetricsFromConfig returns the collectors described by cfg on reg, or
// nil when metrics are disabled.
func NewMetricsFromConfig(cfg config.MetricsConfig, reg prometheus.Registerer) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return NewMetrics(reg, cfg.Namespace)
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) RecordLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.LockWait.Observe(d.Seconds())
}

func (m *Metrics) RecordLockHeld(d time.Duration) {
	if m == nil {
		return
	}
	m.LockHeld.Observe(d.Seconds())
}

func (m *Metrics) RecordLockRebuild() {
	if m == nil {
		return
	}
	m.LockRebuilds.Inc()
}

// RecordSearch counts one resolver search. mode is "poll", "window" or "bfs".
func (m *Metrics) RecordSearch(mode string, found bool) {
	if m == nil {
		return
	}
	outcome := "not_found"
	if found {
		outcome = "found"
	}
	m.ResolverPolls.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) RecordAction(action string, success bool) {
	if m == nil {
		return
	}
	status := "failure"
	if success {
		status = "success"
	}
	m.Actions.WithLabelValues(action, status).Inc()
}
