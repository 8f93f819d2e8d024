package postgres

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// repositoryMetrics holds the direct Prometheus collectors this package
// registers once per process, independent of the observability.MetricsClient
// abstraction the repositories themselves use (these back the connection
// pool gauges, which need direct access to *sql.DBStats rather than a
// counter/histogram call per operation).
type repositoryMetrics struct {
	poolStats *prometheus.GaugeVec
}

var (
	metricsOnce sync.Once
	metrics     *repositoryMetrics
)

// initializeMetrics creates and registers the package's Prometheus
// collectors exactly once, returning the shared instance on every call.
func initializeMetrics() *repositoryMetrics {
	metricsOnce.Do(func() {
		metrics = &repositoryMetrics{
			poolStats: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "opstore_pool_connections",
					Help: "Database connection pool statistics",
				},
				[]string{"pool", "state"},
			),
		}
		prometheus.MustRegister(metrics.poolStats)
	})
	return metrics
}

// reportPoolStats records current connection pool occupancy for db under
// the given pool label ("write" or "read").
func reportPoolStats(m *repositoryMetrics, pool string, open, inUse, idle int) {
	m.poolStats.WithLabelValues(pool, "open").Set(float64(open))
	m.poolStats.WithLabelValues(pool, "in_use").Set(float64(inUse))
	m.poolStats.WithLabelValues(pool, "idle").Set(float64(idle))
}
