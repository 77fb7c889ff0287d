package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	gferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
)

// Submit adds a task to the pool for execution.
// The task will be executed with context.Background().
func (p *workerPool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext adds a task to the pool for execution with the given
// context. If the pool has a TaskTimeout configured, the effective timeout
// is the earlier of the context deadline and TaskTimeout.
func (p *workerPool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return gferrors.NewValidationError("workerpool", "task", nil, "cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// Held for the whole send so Shutdown cannot close the queue under us.
	// Workers never take this lock, so a blocked send always drains.
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.isShutdown {
		return gferrors.InvalidState("worker pool %q has been shut down", p.config.Name)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("cannot submit task: %w", ctx.Err())
	default:
	}

	select {
	case p.taskQueue <- taskWithContext{task: task, ctx: ctx}:
		atomic.AddInt64(&p.totalSubmitted, 1)
		p.updateMetrics()
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cannot submit task: %w", ctx.Err())
	}
}

// Shutdown initiates a graceful shutdown of the pool.
func (p *workerPool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		close(p.taskQueue)
		p.mu.Unlock()

		go func() {
			p.workerWg.Wait()
			p.updateMetrics()
			close(p.done)
		}()
	})
	return p.done
}

// run is the main loop for a worker.
func (p *workerPool) run(id int) {
	defer p.workerWg.Done()
	for twc := range p.taskQueue {
		p.execute(id, twc)
	}
}

// execute runs a single task, converting a panic into a failed result.
func (p *workerPool) execute(id int, twc taskWithContext) {
	atomic.AddInt64(&p.activeWorkers, 1)
	p.updateMetrics()

	start := time.Now()
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
			p.logger.Error("task panicked",
				zap.Int("worker", id),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}

		result := Result{
			Task:     twc.task,
			Error:    err,
			Duration: time.Since(start),
			WorkerID: id,
		}

		atomic.AddInt64(&p.activeWorkers, -1)
		atomic.AddInt64(&p.totalCompleted, 1)
		p.config.Metrics.ObserveTask(p.config.Name, result.Duration, err)
		p.updateMetrics()

		if p.config.OnTaskComplete != nil {
			p.config.OnTaskComplete(id, result)
		}
	}()

	ctx := twc.ctx
	if p.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancel()
	}

	err = twc.task.Execute(ctx)
}
