// Package metrics provides Prometheus metrics for lakepath components.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var registerOnce sync.Once

const (
	// Namespace is the Prometheus namespace for all lakepath metrics.
	Namespace = "lakepath"

	// Subsystem constants for metric organization.
	SubsystemCatalog = "catalog"
	SubsystemStorage = "storage"
	SubsystemAPI     = "api"
)

// Label constants for consistent labeling across metrics.
const (
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelBackend   = "backend"
	LabelEndpoint  = "endpoint"
	LabelMethod    = "method"
)

var (
	// Catalog Metrics

	// CatalogOpsTotal counts catalog operations by operation and outcome.
	CatalogOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemCatalog,
			Name:      "ops_total",
			Help:      "Total number of catalog operations",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// CatalogOpDuration tracks the duration of catalog operations.
	CatalogOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemCatalog,
			Name:      "op_duration_seconds",
			Help:      "Duration of catalog operations in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{LabelOperation},
	)

	// Storage Metrics

	// StorageOpsTotal counts storage backend operations.
	StorageOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemStorage,
			Name:      "ops_total",
			Help:      "Total number of storage backend operations",
		},
		[]string{LabelBackend, LabelOperation},
	)

	// API Metrics

	// APIRequestsTotal counts the total number of API requests.
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAPI,
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{LabelEndpoint, LabelMethod, LabelStatus},
	)

	// APIRequestDuration tracks the duration of API requests.
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAPI,
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{LabelEndpoint, LabelMethod},
	)

	// allMetrics is the list of all metrics to register.
	allMetrics = []prometheus.Collector{
		CatalogOpsTotal,
		CatalogOpDuration,
		StorageOpsTotal,
		APIRequestsTotal,
		APIRequestDuration,
	}
)

// Register registers all lakepath metrics with the default Prometheus
// registry. It is safe to call multiple times; subsequent calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		for _, m := range allMetrics {
			prometheus.MustRegister(m)
		}
	})
}

// RegisterWith registers all lakepath metrics with the given registry.
func RegisterWith(reg prometheus.Registerer) {
	for _, m := range allMetrics {
		reg.MustRegister(m)
	}
}

// NewRegistry creates a new Prometheus registry with all lakepath metrics
// and standard Go runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	// Register standard collectors
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Register lakepath metrics
	RegisterWith(reg)

	return reg
}
