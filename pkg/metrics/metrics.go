// Package metrics provides Prometheus instrumentation for seqflow components.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for seqflow components.
// A nil *Registry is valid and records nothing.
type Registry struct {
	// Stream evaluation metrics
	TerminalOperations *prometheus.CounterVec
	StreamElements     *prometheus.CounterVec
	StreamErrors       *prometheus.CounterVec
	TerminalDuration   *prometheus.HistogramVec
	ParallelChunks     *prometheus.CounterVec

	// Worker pool metrics
	WorkerPoolSize   *prometheus.GaugeVec
	WorkerPoolActive *prometheus.GaugeVec
	WorkerPoolQueued *prometheus.GaugeVec
	TasksExecuted    *prometheus.CounterVec
	TasksFailed      *prometheus.CounterVec
	TaskDuration     *prometheus.HistogramVec

	// Line sink metrics
	SinkLines   *prometheus.CounterVec
	SinkBytes   *prometheus.CounterVec
	SinkFlushes *prometheus.CounterVec
}

// DefaultRegistry is the registry used when a component enables metrics
// without naming a Prometheus registerer.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a metrics registry in the default namespace.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Enabled: true, Registry: reg})
}

// NewRegistryWithConfig creates a registry from config. It returns nil when
// config.Enabled is false.
func NewRegistryWithConfig(config Config) *Registry {
	if !config.Enabled {
		return nil
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.Namespace == "" {
		config.Namespace = DefaultNamespace
	}

	factory := promauto.With(prometheus.WrapRegistererWith(config.Labels, config.Registry))
	ns := config.Namespace

	return &Registry{
		TerminalOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "stream",
				Name:      "terminal_operations_total",
				Help:      "Total number of terminal operations evaluated",
			},
			[]string{"operation", "stream_name"},
		),

		StreamElements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "stream",
				Name:      "elements_total",
				Help:      "Total number of elements reaching terminal operations",
			},
			[]string{"operation", "stream_name"},
		),

		StreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "stream",
				Name:      "errors_total",
				Help:      "Total number of failed terminal operations",
			},
			[]string{"operation", "stream_name"},
		),

		TerminalDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "stream",
				Name:      "terminal_duration_seconds",
				Help:      "Time spent evaluating terminal operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "stream_name"},
		),

		ParallelChunks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "stream",
				Name:      "parallel_chunks_total",
				Help:      "Total number of element chunks dispatched to workers",
			},
			[]string{"stream_name"},
		),

		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "size",
				Help:      "Current worker pool size",
			},
			[]string{"pool_name"},
		),

		WorkerPoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "active_workers",
				Help:      "Number of workers executing a task",
			},
			[]string{"pool_name"},
		),

		WorkerPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "queued_tasks",
				Help:      "Number of queued tasks",
			},
			[]string{"pool_name"},
		),

		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "tasks_executed_total",
				Help:      "Total number of tasks executed",
			},
			[]string{"pool_name"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks that returned an error or panicked",
			},
			[]string{"pool_name"},
		),

		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "task_duration_seconds",
				Help:      "Time spent executing tasks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		SinkLines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "sink",
				Name:      "lines_written_total",
				Help:      "Total number of lines written",
			},
			[]string{"sink_name"},
		),

		SinkBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "sink",
				Name:      "bytes_written_total",
				Help:      "Total bytes written",
			},
			[]string{"sink_name"},
		),

		SinkFlushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "sink",
				Name:      "flushes_total",
				Help:      "Total number of sink flushes",
			},
			[]string{"sink_name"},
		),
	}
}

// ObserveTerminal records one terminal evaluation.
func (r *Registry) ObserveTerminal(operation, streamName string, elements int64, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.TerminalOperations.WithLabelValues(operation, streamName).Inc()
	r.StreamElements.WithLabelValues(operation, streamName).Add(float64(elements))
	r.TerminalDuration.WithLabelValues(operation, streamName).Observe(duration.Seconds())
	if err != nil {
		r.StreamErrors.WithLabelValues(operation, streamName).Inc()
	}
}

// ObserveChunk records a chunk handed to a worker.
func (r *Registry) ObserveChunk(streamName string) {
	if r == nil {
		return
	}
	r.ParallelChunks.WithLabelValues(streamName).Inc()
}

// ObserveTask records one finished worker pool task.
func (r *Registry) ObserveTask(poolName string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.TasksExecuted.WithLabelValues(poolName).Inc()
	r.TaskDuration.WithLabelValues(poolName).Observe(duration.Seconds())
	if err != nil {
		r.TasksFailed.WithLabelValues(poolName).Inc()
	}
}

// SetPoolState records the current size, activity and backlog of a pool.
func (r *Registry) SetPoolState(poolName string, size, active, queued int) {
	if r == nil {
		return
	}
	r.WorkerPoolSize.WithLabelValues(poolName).Set(float64(size))
	r.WorkerPoolActive.WithLabelValues(poolName).Set(float64(active))
	r.WorkerPoolQueued.WithLabelValues(poolName).Set(float64(queued))
}

// ObserveFlush records a sink flush of lines and bytes.
func (r *Registry) ObserveFlush(sinkName string, lines, bytes int64) {
	if r == nil {
		return
	}
	r.SinkFlushes.WithLabelValues(sinkName).Inc()
	r.SinkLines.WithLabelValues(sinkName).Add(float64(lines))
	r.SinkBytes.WithLabelValues(sinkName).Add(float64(bytes))
}
