package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GroupToggles counts activation toggles by direction (activate|deactivate).
	GroupToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "envmgr_group_toggles_total",
		Help: "Group activation toggles by direction",
	}, []string{"direction"})

	// EnvOperationFailures counts failed backend operations (write|remove|notify|probe).
	EnvOperationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "envmgr_env_operation_failures_total",
		Help: "Failed environment backend operations by operation",
	}, []string{"operation"})

	ReconcileCorrections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "envmgr_reconcile_corrections_total",
		Help: "Stored isActive flags corrected from live environment state",
	})

	TrashRecordsAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "envmgr_trash_records_added_total",
		Help: "Trash records written by tab",
	}, []string{"tab"})

	TrashRecordsRestored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "envmgr_trash_records_restored_total",
		Help: "Trash records restored by tab",
	}, []string{"tab"})

	TrashRecordsPruned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "envmgr_trash_records_pruned_total",
		Help: "Trash records removed by age-based cleanup by tab",
	}, []string{"tab"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "envmgr_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"method", "status"})
)

func ObserveRequest(method string, status string, elapsed time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, status).Observe(elapsed.Seconds())
}
