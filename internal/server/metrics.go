package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "depara",
		Name:      "snapshot_refresh_total",
		Help:      "Snapshot refreshes by result (ok, error).",
	}, []string{"result"})
	metricRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "depara",
		Name:      "snapshot_refresh_duration_seconds",
		Help:      "Time taken to collect a tenant snapshot.",
		Buckets:   prometheus.DefBuckets,
	})
	metricSnapshotsCached = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "depara",
		Name:      "snapshots_cached",
		Help:      "Tenants with a cached snapshot.",
	})
	metricTenantCompletion = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "depara",
		Name:      "tenant_completion_percent",
		Help:      "Overall mapping completion of a tenant across all entities.",
	}, []string{"tenant"})
	metricRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "depara",
		Name:      "dashboard_renders_total",
		Help:      "Dashboard renders by outcome (ok, not_ready, no_data).",
	}, []string{"outcome"})
	metricMissingContainers = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "depara",
		Name:      "dashboard_missing_containers_total",
		Help:      "Category tables the page skeleton did not contain.",
	})
	metricExports = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "depara",
		Name:      "exports_total",
		Help:      "Spreadsheet exports served.",
	})
)

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metricSnapshotsCached.Set(float64(s.snapshots.Len()))
	promhttp.Handler().ServeHTTP(w, r)
}
