package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	NotificationsSent   *prometheus.CounterVec
	TasksScheduled      *prometheus.CounterVec
	TasksFired          *prometheus.CounterVec
	RecordsDeleted      *prometheus.CounterVec
	RecognitionRequests *prometheus.CounterVec
	RecognitionTime     prometheus.Histogram
}

// New creates prometheus metrics on the default registry
func New(namespace string) *Metrics {
	return NewWith(prometheus.DefaultRegisterer, namespace)
}

// NewWith creates prometheus metrics on the given registerer
func NewWith(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "The total number of notification attempts",
		}, []string{"channel", "status"}),
		TasksScheduled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_scheduled_total",
			Help:      "The total number of delayed tasks registered",
		}, []string{"kind"}),
		TasksFired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_fired_total",
			Help:      "The total number of delayed tasks executed",
		}, []string{"kind"}),
		RecordsDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_deleted_total",
			Help:      "The total number of parking records deleted",
		}, []string{"reason"}),
		RecognitionRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_requests_total",
			Help:      "The total number of plate recognition proxy calls",
		}, []string{"status"}),
		RecognitionTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recognition_request_seconds",
			Help:      "Time taken by plate recognition provider calls",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
