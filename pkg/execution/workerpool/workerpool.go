package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/metrics"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	// It should respect context cancellation and return any error encountered.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result describes one finished task.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is the task's error, or the recovered panic
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Pool executes submitted tasks on a fixed set of workers.
type Pool interface {
	// Submit queues a task, blocking while the queue is full.
	Submit(task Task) error

	// SubmitWithContext queues a task, giving up when ctx is done.
	// The context is also passed to the task's Execute method.
	SubmitWithContext(ctx context.Context, task Task) error

	// Shutdown stops accepting tasks and returns a channel that closes
	// once all queued tasks have run and every worker has exited.
	Shutdown() <-chan struct{}

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the number of queued tasks waiting for a worker.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of tasks accepted.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks finished.
	TotalCompleted() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// Name labels the pool in logs and metrics.
	Name string

	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// QueueSize is the capacity of the task queue. 0 means tasks are
	// handed directly to an idle worker.
	QueueSize int

	// TaskTimeout bounds each task's execution. Zero means no timeout.
	TaskTimeout time.Duration

	// Logger receives panic reports. Nil means no logging.
	Logger *zap.Logger

	// Metrics records pool state and task outcomes. Nil disables metrics.
	Metrics *metrics.Registry

	// OnTaskComplete is called after each task, successful or not.
	OnTaskComplete func(workerID int, result Result)
}

// DefaultConfig returns a pool configuration with the given worker count.
func DefaultConfig(workerCount int) Config {
	return Config{
		Name:        "default",
		WorkerCount: workerCount,
		QueueSize:   workerCount,
	}
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config
	logger *zap.Logger

	taskQueue    chan taskWithContext
	shutdownOnce sync.Once
	done         chan struct{}

	mu         sync.RWMutex
	isShutdown bool

	activeWorkers  int64
	totalSubmitted int64
	totalCompleted int64

	workerWg sync.WaitGroup
}

type taskWithContext struct {
	task Task
	ctx  context.Context
}

// New creates a worker pool with the given number of workers and queue
// size. It panics on invalid arguments; use NewWithConfig to get an error.
func New(workerCount, queueSize int) Pool {
	cfg := DefaultConfig(workerCount)
	cfg.QueueSize = queueSize
	pool, err := NewWithConfig(cfg)
	if err != nil {
		panic(err)
	}
	return pool
}

// NewWithConfig creates a worker pool and starts its workers.
func NewWithConfig(config Config) (Pool, error) {
	if err := validation.FirstError(
		validation.ValidatePositive("workerpool", "WorkerCount", config.WorkerCount),
		validateQueueSize(config.QueueSize),
	); err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = "default"
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pool := &workerPool{
		config:    config,
		logger:    logger.With(zap.String("pool", config.Name)),
		taskQueue: make(chan taskWithContext, config.QueueSize),
		done:      make(chan struct{}),
	}

	for i := 0; i < config.WorkerCount; i++ {
		pool.workerWg.Add(1)
		go pool.run(i)
	}
	pool.updateMetrics()

	return pool, nil
}

func validateQueueSize(size int) error {
	if size < 0 {
		return validation.ValidateCount("workerpool", "QueueSize", int64(size))
	}
	return nil
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *workerPool) QueueSize() int {
	return len(p.taskQueue)
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *workerPool) ActiveWorkers() int {
	return int(atomic.LoadInt64(&p.activeWorkers))
}

// TotalSubmitted returns the total number of accepted tasks.
func (p *workerPool) TotalSubmitted() int64 {
	return atomic.LoadInt64(&p.totalSubmitted)
}

// TotalCompleted returns the total number of finished tasks.
func (p *workerPool) TotalCompleted() int64 {
	return atomic.LoadInt64(&p.totalCompleted)
}

func (p *workerPool) updateMetrics() {
	p.config.Metrics.SetPoolState(p.config.Name, p.Size(), p.ActiveWorkers(), p.QueueSize())
}
