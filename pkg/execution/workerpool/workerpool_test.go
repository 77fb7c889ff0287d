package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"

	"github.com/vnykmshr/seqflow/internal/testutil"
	gferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/metrics"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		workerCount int
		queueSize   int
		expectPanic bool
	}{
		{"valid params", 2, 10, false},
		{"single worker", 1, 5, false},
		{"unbuffered queue", 3, 0, false},
		{"zero workers", 0, 10, true},
		{"negative workers", -1, 10, true},
		{"negative queue size", 2, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.expectPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Error("expected panic")
					}
				}()
			}

			pool := New(tt.workerCount, tt.queueSize)
			testutil.AssertEqual(t, pool.Size(), tt.workerCount)
			<-pool.Shutdown()
		})
	}
}

func TestNewWithConfigValidation(t *testing.T) {
	_, err := NewWithConfig(Config{WorkerCount: 0})
	testutil.AssertErrorIs(t, err, gferrors.ErrInvalidArgument)
}

func TestTasksRunAndShutdownDrainsQueue(t *testing.T) {
	var executed int64
	pool := New(3, 50)

	for i := 0; i < 50; i++ {
		err := pool.Submit(TaskFunc(func(ctx context.Context) error {
			atomic.AddInt64(&executed, 1)
			return nil
		}))
		testutil.AssertNoError(t, err)
	}

	<-pool.Shutdown()
	testutil.AssertEqual(t, atomic.LoadInt64(&executed), int64(50))
	testutil.AssertEqual(t, pool.TotalSubmitted(), int64(50))
	testutil.AssertEqual(t, pool.TotalCompleted(), int64(50))
	testutil.AssertEqual(t, pool.ActiveWorkers(), 0)
}

func TestSubmitAfterShutdown(t *testing.T) {
	pool := New(1, 1)
	<-pool.Shutdown()

	err := pool.Submit(TaskFunc(func(ctx context.Context) error { return nil }))
	testutil.AssertErrorIs(t, err, gferrors.ErrInvalidState)

	// A second Shutdown returns the same closed channel.
	<-pool.Shutdown()
}

func TestSubmitNilTask(t *testing.T) {
	pool := New(1, 1)
	defer func() { <-pool.Shutdown() }()

	testutil.AssertErrorIs(t, pool.Submit(nil), gferrors.ErrInvalidArgument)
}

func TestSubmitWithCanceledContext(t *testing.T) {
	pool := New(1, 0)
	defer func() { <-pool.Shutdown() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pool.SubmitWithContext(ctx, TaskFunc(func(ctx context.Context) error { return nil }))
	testutil.AssertErrorIs(t, err, context.Canceled)
}

func TestPanicIsRecoveredAndReported(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	var mu sync.Mutex
	var results []Result

	pool, err := NewWithConfig(Config{
		Name:        "panics",
		WorkerCount: 1,
		QueueSize:   2,
		Logger:      zap.New(core),
		OnTaskComplete: func(_ int, r Result) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		},
	})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, pool.Submit(TaskFunc(func(ctx context.Context) error { panic("boom") })))
	testutil.AssertNoError(t, pool.Submit(TaskFunc(func(ctx context.Context) error { return nil })))
	<-pool.Shutdown()

	testutil.AssertEqual(t, len(results), 2)
	testutil.AssertError(t, results[0].Error)
	testutil.AssertNoError(t, results[1].Error)
	testutil.AssertEqual(t, logs.FilterMessage("task panicked").Len(), 1)
}

func TestTaskTimeout(t *testing.T) {
	errCh := make(chan error, 1)
	pool, err := NewWithConfig(Config{
		WorkerCount: 1,
		TaskTimeout: 10 * time.Millisecond,
		OnTaskComplete: func(_ int, r Result) {
			errCh <- r.Error
		},
	})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, pool.Submit(TaskFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})))

	select {
	case err := <-errCh:
		testutil.AssertErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(testutil.TestTimeout):
		t.Fatal("task did not time out")
	}
	<-pool.Shutdown()
}

func TestMetrics(t *testing.T) {
	m := metrics.NewRegistry(prometheus.NewRegistry())
	pool, err := NewWithConfig(Config{
		Name:        "measured",
		WorkerCount: 2,
		QueueSize:   4,
		Metrics:     m,
	})
	testutil.AssertNoError(t, err)

	failure := errors.New("failed")
	for i := 0; i < 4; i++ {
		i := i
		testutil.AssertNoError(t, pool.Submit(TaskFunc(func(ctx context.Context) error {
			if i%2 == 0 {
				return failure
			}
			return nil
		})))
	}
	<-pool.Shutdown()

	testutil.AssertEqual(t, promtest.ToFloat64(m.TasksExecuted.WithLabelValues("measured")), 4.0)
	testutil.AssertEqual(t, promtest.ToFloat64(m.TasksFailed.WithLabelValues("measured")), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(m.WorkerPoolSize.WithLabelValues("measured")), 2.0)
}
