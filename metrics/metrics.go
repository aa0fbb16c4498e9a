package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ClientMetrics instruments one outbound HTTP collaborator's retry
// behavior, grounded on the teacher's ClientMetrics/MonitorRequest pair
// (metrics/monitor_request.go), narrowed from the teacher's four wired
// clients (TranscodingStatusUpdate, BroadcasterClient, MistClient,
// ObjectStoreClient) down to the one HTTP collaborator this pipeline has:
// the NTFY notification client.
type ClientMetrics struct {
	RetryCount      *prometheus.GaugeVec
	FailureCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func newClientMetrics(client string) ClientMetrics {
	return ClientMetrics{
		RetryCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "video_grouper_client_retry_count",
			Help:        "The number of retried requests for the most recent call.",
			ConstLabels: prometheus.Labels{"client": client},
		}, []string{"host"}),
		FailureCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "video_grouper_client_failure_count",
			Help:        "The total number of failed requests.",
			ConstLabels: prometheus.Labels{"client": client},
		}, []string{"host", "status_code"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "video_grouper_client_request_duration_seconds",
			Help:        "Time taken to complete a request, including retries.",
			ConstLabels: prometheus.Labels{"client": client},
			Buckets:     []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"host"}),
	}
}

// QueueMetrics mirrors one stage's queue: how deep it is, and how its
// processed tasks are going.
type QueueMetrics struct {
	Depth          prometheus.Gauge
	TasksProcessed *prometheus.CounterVec
	TaskFailures   *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec
}

type VideoGrouperMetrics struct {
	Version *prometheus.CounterVec

	DownloadQueue QueueMetrics
	VideoQueue    QueueMetrics
	UploadQueue   QueueMetrics

	GroupsInFlight    prometheus.Gauge
	CameraDisconnects prometheus.Counter
	AuditorSweeps     prometheus.Counter
	AuditorReinjects  *prometheus.CounterVec

	NTFYClient ClientMetrics
}

func newQueueMetrics(queue string) QueueMetrics {
	return QueueMetrics{
		Depth: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "video_grouper_queue_depth",
			Help:        "Number of tasks currently pending in this stage's queue.",
			ConstLabels: prometheus.Labels{"queue": queue},
		}),
		TasksProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "video_grouper_tasks_processed_total",
			Help:        "Count of tasks this stage has finished processing, by task type.",
			ConstLabels: prometheus.Labels{"queue": queue},
		}, []string{"task_type"}),
		TaskFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "video_grouper_task_failures_total",
			Help:        "Count of tasks this stage failed to process, by task type.",
			ConstLabels: prometheus.Labels{"queue": queue},
		}, []string{"task_type"}),
		TaskDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "video_grouper_task_duration_seconds",
			Help:        "Wall time spent processing a single task.",
			ConstLabels: prometheus.Labels{"queue": queue},
			Buckets:     []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"task_type"}),
	}
}

// Observe records the outcome of one processed task against this queue.
func (q QueueMetrics) Observe(taskType string, seconds float64, err error) {
	q.TaskDuration.WithLabelValues(taskType).Observe(seconds)
	q.TasksProcessed.WithLabelValues(taskType).Inc()
	if err != nil {
		q.TaskFailures.WithLabelValues(taskType).Inc()
	}
}

func NewMetrics() *VideoGrouperMetrics {
	return &VideoGrouperMetrics{
		Version: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "version",
			Help: "Current git SHA/tag running. Incremented once on startup.",
		}, []string{"app", "version"}),

		DownloadQueue: newQueueMetrics("download"),
		VideoQueue:    newQueueMetrics("video"),
		UploadQueue:   newQueueMetrics("upload"),

		GroupsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "video_grouper_groups_in_flight",
			Help: "Number of group directories not yet in a terminal state.",
		}),
		CameraDisconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "video_grouper_camera_disconnects_total",
			Help: "Count of camera availability checks that failed.",
		}),
		AuditorSweeps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "video_grouper_auditor_sweeps_total",
			Help: "Count of State Auditor reconciliation passes completed.",
		}),
		AuditorReinjects: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "video_grouper_auditor_reinjects_total",
			Help: "Count of tasks the State Auditor re-emitted, by task type.",
		}, []string{"task_type"}),

		NTFYClient: newClientMetrics("ntfy"),
	}
}

// Metrics is the process-wide collector set, constructed once at startup
// the way the teacher's package-level Metrics var is.
var Metrics = NewMetrics()
