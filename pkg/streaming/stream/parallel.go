package stream

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	gferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/execution/workerpool"
	"github.com/vnykmshr/seqflow/pkg/metrics"
)

// executor carries the worker pool of one parallel evaluation.
type executor struct {
	pool      workerpool.Pool
	owned     bool
	workers   int
	chunkSize int
	name      string
	metrics   *metrics.Registry
}

func newExecutor(config Config, logger *zap.Logger) (*executor, error) {
	pc := config.Parallel
	if err := pc.validate(); err != nil {
		return nil, err
	}

	ex := &executor{
		pool:      pc.Pool,
		workers:   pc.workers(),
		chunkSize: pc.chunkSize(),
		name:      config.name(),
		metrics:   config.Metrics,
	}
	if ex.pool != nil {
		return ex, nil
	}

	pool, err := workerpool.NewWithConfig(workerpool.Config{
		Name:        config.name(),
		WorkerCount: ex.workers,
		QueueSize:   ex.window(),
		Logger:      logger,
		Metrics:     config.Metrics,
	})
	if err != nil {
		return nil, err
	}
	ex.pool = pool
	ex.owned = true
	return ex, nil
}

// window is the number of chunks a stage keeps in flight.
func (e *executor) window() int {
	return e.workers * 2
}

// shutdown stops a pool created for this evaluation and waits for its workers.
func (e *executor) shutdown() error {
	if e.owned {
		<-e.pool.Shutdown()
	}
	return nil
}

type chunkResult[R any] struct {
	seq int64
	out []R
	err error
}

// parallelStage pulls chunks from its upstream on the caller's goroutine and
// hands each to the pool. When ordered, chunks are emitted by sequence number;
// otherwise as they complete.
type parallelStage[T, R any] struct {
	ec      *evalContext
	op      string
	up      iterator[T]
	apply   applyFunc[T, R]
	ordered bool

	results  chan chunkResult[R]
	pending  map[int64]chunkResult[R]
	nextSeq  int64
	emitSeq  int64
	inflight int
	upDone   bool

	buf []R
	err error
}

func newParallelStage[T, R any](ec *evalContext, op string, up iterator[T], apply applyFunc[T, R], ordered bool) *parallelStage[T, R] {
	return &parallelStage[T, R]{
		ec:      ec,
		op:      op,
		up:      up,
		apply:   apply,
		ordered: ordered,
		// Every in-flight chunk sends exactly one result, so workers never block.
		results: make(chan chunkResult[R], ec.exec.window()),
		pending: make(map[int64]chunkResult[R]),
	}
}

func (st *parallelStage[T, R]) next() (R, bool, error) {
	var zero R
	for {
		if len(st.buf) > 0 {
			v := st.buf[0]
			st.buf = st.buf[1:]
			return v, true, nil
		}
		if st.err != nil {
			return zero, false, st.err
		}

		if err := st.fill(); err != nil {
			st.err = err
			continue
		}
		if st.inflight == 0 {
			return zero, false, nil
		}

		r, err := st.receive()
		if err == nil {
			err = r.err
		}
		if err != nil {
			st.err = err
			continue
		}
		st.buf = r.out
	}
}

// fill submits chunks until the window is full or the upstream is exhausted.
func (st *parallelStage[T, R]) fill() error {
	ex := st.ec.exec
	for !st.upDone && st.inflight < ex.window() {
		chunk := make([]T, 0, ex.chunkSize)
		for len(chunk) < ex.chunkSize {
			v, ok, err := st.up.next()
			if err != nil {
				return err
			}
			if !ok {
				st.upDone = true
				break
			}
			chunk = append(chunk, v)
		}
		if len(chunk) == 0 {
			return nil
		}

		seq := st.nextSeq
		task := workerpool.TaskFunc(func(ctx context.Context) error {
			st.results <- st.run(ctx, seq, chunk)
			return nil
		})
		if err := ex.pool.SubmitWithContext(st.ec.ctx, task); err != nil {
			return err
		}
		st.nextSeq++
		st.inflight++
		ex.metrics.ObserveChunk(ex.name)
	}
	return nil
}

// run applies the stage to one chunk on a worker.
func (st *parallelStage[T, R]) run(ctx context.Context, seq int64, chunk []T) (res chunkResult[R]) {
	res.seq = seq
	defer func() {
		if r := recover(); r != nil {
			res.out = nil
			res.err = gferrors.NewOperationError("stream", st.op, fmt.Errorf("panic: %v", r)).
				WithContext(fmt.Sprintf("chunk %d", seq))
		}
	}()

	emit := func(v R) { res.out = append(res.out, v) }
	for _, v := range chunk {
		if err := ctx.Err(); err != nil {
			res.err = err
			return res
		}
		if err := st.apply(ctx, v, emit); err != nil {
			res.err = err
			return res
		}
	}
	return res
}

func (st *parallelStage[T, R]) receive() (chunkResult[R], error) {
	ctx := st.ec.ctx
	for {
		if st.ordered {
			if r, ok := st.pending[st.emitSeq]; ok {
				delete(st.pending, st.emitSeq)
				st.emitSeq++
				st.inflight--
				return r, nil
			}
		}

		select {
		case r := <-st.results:
			if !st.ordered {
				st.inflight--
				return r, nil
			}
			st.pending[r.seq] = r
		case <-ctx.Done():
			return chunkResult[R]{}, ctx.Err()
		}
	}
}
