package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "backoffice"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	updatesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_processed_total",
			Help:      "Chat updates processed by kind.",
		},
		[]string{"kind"},
	)

	updateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_processing_seconds",
			Help:      "Time spent processing one chat update.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	flowCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_completions_total",
			Help:      "Finished flows by flow and outcome.",
		},
		[]string{"flow", "outcome"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created by service.",
		},
		[]string{"service"},
	)

	mirrorOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_operations_total",
			Help:      "Receiver chat mirror operations by op and result.",
		},
		[]string{"op", "result"},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by source.",
		},
		[]string{"source"},
	)

	ledgerTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_tasks_total",
			Help:      "Ledger sync tasks by type and result.",
		},
		[]string{"type", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			updatesProcessed,
			updateDuration,
			flowCompletions,
			bookingsCreated,
			mirrorOps,
			errorsTotal,
			ledgerTasks,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// ObserveUpdate counts an update and records how long it took.
func ObserveUpdate(kind string, took time.Duration) {
	updatesProcessed.WithLabelValues(kind).Inc()
	updateDuration.Observe(took.Seconds())
}

func IncFlow(flow, outcome string) {
	flowCompletions.WithLabelValues(flow, outcome).Inc()
}

func IncBookingCreated(service string) {
	if service == "" {
		service = "none"
	}
	bookingsCreated.WithLabelValues(service).Inc()
}

func IncMirror(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	mirrorOps.WithLabelValues(op, result).Inc()
}

func IncError(source string) {
	errorsTotal.WithLabelValues(source).Inc()
}

func IncLedgerTask(taskType, result string) {
	ledgerTasks.WithLabelValues(taskType, result).Inc()
}
