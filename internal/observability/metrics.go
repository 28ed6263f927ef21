// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusFailure = "failure"
)

// Run stages.
const (
	StageFetch   = "fetch"
	StageUpsert  = "upsert"
	StageCount   = "count"
	StageOverall = "run"
)

// Metrics holds all Prometheus metrics for the ranking job.
// Each instance owns its registry so a batch run can push exactly its own series.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	WalletsFetched  prometheus.Gauge
	WalletsUpserted prometheus.Gauge
	WalletsInStore  prometheus.Gauge
	StageDuration   *prometheus.HistogramVec

	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "smartmoney"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "runs_total",
			Help:      "Total number of ranking runs by status",
		}, []string{"status"}),
		WalletsFetched: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "wallets_fetched",
			Help:      "Wallets returned by the ranking query in the last run",
		}),
		WalletsUpserted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "wallets_upserted",
			Help:      "Wallets written to the metrics store in the last run",
		}),
		WalletsInStore: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "wallets",
			Help:      "Rows in the metrics store after the last run",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analyzer",
			Name:      "stage_duration_seconds",
			Help:      "Duration of run stages",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"stage"}),

		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful run",
		}),
	}
}

// Registry returns the registry holding this instance's collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStage records the duration of one stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun records the outcome of a run.
func (m *Metrics) RecordRun(status string, at time.Time) {
	m.RunsTotal.WithLabelValues(status).Inc()
	if status != StatusFailure {
		m.LastSuccessfulRun.Set(float64(at.Unix()))
	}
}

// Push sends all collected series to a Pushgateway, grouped by run id.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job, runID string) error {
	pusher := push.New(gatewayURL, job).Gatherer(m.registry)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
