package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetricsClient implements MetricsClient by lazily registering a
// Prometheus collector per metric name the first time it's recorded, so
// callers never need to pre-declare metrics before using them.
type PrometheusMetricsClient struct {
	namespace string
	subsystem string

	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec

	mu sync.RWMutex

	commonLabels prometheus.Labels
}

var _ MetricsClient = (*PrometheusMetricsClient)(nil)

// NewPrometheusMetricsClient creates a new Prometheus metrics client
func NewPrometheusMetricsClient(namespace, subsystem string, commonLabels map[string]string) *PrometheusMetricsClient {
	labels := prometheus.Labels{}
	for k, v := range commonLabels {
		labels[k] = v
	}

	return &PrometheusMetricsClient{
		namespace:    namespace,
		subsystem:    subsystem,
		counters:     make(map[string]*prometheus.CounterVec),
		gauges:       make(map[string]*prometheus.GaugeVec),
		histograms:   make(map[string]*prometheus.HistogramVec),
		commonLabels: labels,
	}
}

// RecordEvent records an event metric
func (c *PrometheusMetricsClient) RecordEvent(source, eventType string) {
	c.RecordCounter("events_total", 1, map[string]string{"source": source, "event_type": eventType})
}

// RecordLatency records a latency metric
func (c *PrometheusMetricsClient) RecordLatency(operation string, duration time.Duration) {
	c.RecordHistogram(operation+"_latency_seconds", duration.Seconds(), map[string]string{"operation": operation})
}

// RecordCounter records a counter metric
func (c *PrometheusMetricsClient) RecordCounter(name string, value float64, labels map[string]string) {
	counter := c.getOrCreateCounter(name, fmt.Sprintf("Counter for %s", name), c.getLabelNames(labels))
	counter.With(c.mergeLabelValues(labels)).Add(value)
}

// RecordGauge records a gauge metric
func (c *PrometheusMetricsClient) RecordGauge(name string, value float64, labels map[string]string) {
	gauge := c.getOrCreateGauge(name, fmt.Sprintf("Gauge for %s", name), c.getLabelNames(labels))
	gauge.With(c.mergeLabelValues(labels)).Set(value)
}

// RecordHistogram records a histogram metric
func (c *PrometheusMetricsClient) RecordHistogram(name string, value float64, labels map[string]string) {
	histogram := c.getOrCreateHistogram(name, fmt.Sprintf("Histogram for %s", name), c.getLabelNames(labels), prometheus.DefBuckets)
	histogram.With(c.mergeLabelValues(labels)).Observe(value)
}

// RecordTimer records an already-elapsed duration against a histogram. For
// an in-flight timer, see StartTimer.
func (c *PrometheusMetricsClient) RecordTimer(name string, duration time.Duration, labels map[string]string) {
	c.RecordHistogram(name+"_seconds", duration.Seconds(), labels)
}

// IncrementCounter increments a counter by value, without labels
func (c *PrometheusMetricsClient) IncrementCounter(name string, value float64) {
	c.RecordCounter(name, value, nil)
}

// IncrementCounterWithLabels increments a counter with labels
func (c *PrometheusMetricsClient) IncrementCounterWithLabels(name string, value float64, labels map[string]string) {
	c.RecordCounter(name, value, labels)
}

// RecordDuration records a duration in seconds, without labels
func (c *PrometheusMetricsClient) RecordDuration(name string, duration time.Duration) {
	c.RecordHistogram(name, duration.Seconds(), nil)
}

// StartTimer starts a timer and returns a function that records the elapsed
// duration when called.
func (c *PrometheusMetricsClient) StartTimer(name string, labels map[string]string) func() {
	start := time.Now()
	return func() {
		c.RecordTimer(name, time.Since(start), labels)
	}
}

// RecordCacheOperation records a cache operation
func (c *PrometheusMetricsClient) RecordCacheOperation(operation string, success bool, durationSeconds float64) {
	labels := map[string]string{"operation": operation, "success": stringFromBool(success)}
	c.IncrementCounterWithLabels("cache_operations_total", 1, labels)
	c.RecordHistogram("cache_operation_duration_seconds", durationSeconds, labels)
}

// RecordOperation records a generic component operation
func (c *PrometheusMetricsClient) RecordOperation(component, operation string, success bool, durationSeconds float64, labels map[string]string) {
	merged := map[string]string{"component": component, "operation": operation, "success": stringFromBool(success)}
	for k, v := range labels {
		merged[k] = v
	}
	c.IncrementCounterWithLabels("operations_total", 1, merged)
	c.RecordHistogram("operation_duration_seconds", durationSeconds, merged)
}

// RecordAPIOperation records an API operation
func (c *PrometheusMetricsClient) RecordAPIOperation(api, operation string, success bool, durationSeconds float64) {
	labels := map[string]string{"api": api, "operation": operation, "success": stringFromBool(success)}
	c.IncrementCounterWithLabels("api_operations_total", 1, labels)
	c.RecordHistogram("api_operation_duration_seconds", durationSeconds, labels)
}

// RecordDatabaseOperation records a database operation
func (c *PrometheusMetricsClient) RecordDatabaseOperation(operation string, success bool, durationSeconds float64) {
	labels := map[string]string{"operation": operation, "success": stringFromBool(success)}
	c.IncrementCounterWithLabels("database_operations_total", 1, labels)
	c.RecordHistogram("database_operation_duration_seconds", durationSeconds, labels)
}

// Close releases nothing on its own: the collectors registered by this
// client live in the process's default Prometheus registry for its
// lifetime, the same as every other promauto-registered metric.
func (c *PrometheusMetricsClient) Close() error {
	return nil
}

func (c *PrometheusMetricsClient) getOrCreateCounter(name, help string, labels []string) *prometheus.CounterVec {
	c.mu.RLock()
	if counter, exists := c.counters[name]; exists {
		c.mu.RUnlock()
		return counter
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, exists := c.counters[name]; exists {
		return counter
	}

	counter := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Subsystem: c.subsystem,
		Name:      name,
		Help:      help,
	}, labels)

	c.counters[name] = counter
	return counter
}

func (c *PrometheusMetricsClient) getOrCreateGauge(name, help string, labels []string) *prometheus.GaugeVec {
	c.mu.RLock()
	if gauge, exists := c.gauges[name]; exists {
		c.mu.RUnlock()
		return gauge
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gauge, exists := c.gauges[name]; exists {
		return gauge
	}

	gauge := promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Subsystem: c.subsystem,
		Name:      name,
		Help:      help,
	}, labels)

	c.gauges[name] = gauge
	return gauge
}

func (c *PrometheusMetricsClient) getOrCreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	c.mu.RLock()
	if histogram, exists := c.histograms[name]; exists {
		c.mu.RUnlock()
		return histogram
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if histogram, exists := c.histograms[name]; exists {
		return histogram
	}

	histogram := promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.namespace,
		Subsystem: c.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)

	c.histograms[name] = histogram
	return histogram
}

func (c *PrometheusMetricsClient) getLabelNames(labels map[string]string) []string {
	if labels == nil {
		return []string{}
	}

	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	return names
}

func (c *PrometheusMetricsClient) mergeLabelValues(labels map[string]string) prometheus.Labels {
	merged := prometheus.Labels{}

	for k, v := range c.commonLabels {
		merged[k] = v
	}
	for k, v := range labels {
		merged[k] = v
	}

	return merged
}
