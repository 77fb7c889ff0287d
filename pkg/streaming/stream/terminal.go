package stream

import (
	"context"
	"errors"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	gfcontext "github.com/vnykmshr/seqflow/pkg/common/context"
	gferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/optional"
)

// evalContext is the state of one terminal evaluation, shared by every
// iterator it opens.
type evalContext struct {
	ctx  context.Context
	exec *executor

	mu       sync.Mutex
	cleanups []func() error
}

func newEvalContext(ctx context.Context) *evalContext {
	return &evalContext{ctx: ctx}
}

// onClose registers fn to run when the evaluation ends.
func (ec *evalContext) onClose(fn func() error) {
	ec.mu.Lock()
	ec.cleanups = append(ec.cleanups, fn)
	ec.mu.Unlock()
}

// close runs the registered cleanups in reverse order and returns the first error.
func (ec *evalContext) close() error {
	ec.mu.Lock()
	fns := ec.cleanups
	ec.cleanups = nil
	ec.mu.Unlock()

	var first error
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// attach claims s's pipeline for ec and opens its iterator.
func attach[T any](ec *evalContext, s *stream[T], needOrder bool) (iterator[T], error) {
	if err := s.pipe.claim(); err != nil {
		return nil, err
	}
	ec.onClose(s.pipe.release)
	if s.node.err != nil {
		return nil, s.node.err
	}
	return s.open(ec, needOrder)
}

// evaluation is one run of a terminal operation.
type evaluation[T any] struct {
	s        *stream[T]
	ec       *evalContext
	it       iterator[T]
	op       string
	started  time.Time
	elements int64
	finished bool
}

// start claims the pipeline and opens the operation chain. needOrder tells
// parallel stages whether the terminal depends on encounter order;
// materializes rejects pipelines that can never end.
func (s *stream[T]) start(ctx context.Context, op string, needOrder, materializes bool) (*evaluation[T], error) {
	ev := &evaluation[T]{
		s:       s,
		ec:      newEvalContext(gfcontext.OrBackground(ctx)),
		op:      op,
		started: time.Now(),
	}

	if err := s.pipe.claim(); err != nil {
		return ev, err
	}
	ev.ec.onClose(s.pipe.release)

	if s.node.err != nil {
		return ev, s.node.err
	}
	if materializes && s.node.size == Infinite {
		return ev, gferrors.Unsupported("%s on infinite stream %s", op, s.node)
	}
	if err := gfcontext.Check(ev.ec.ctx); err != nil {
		return ev, err
	}

	if s.config.Parallel.Enabled {
		exec, err := newExecutor(s.config, s.config.logger())
		if err != nil {
			return ev, err
		}
		ev.ec.exec = exec
		ev.ec.onClose(exec.shutdown)
	}

	it, err := s.open(ev.ec, needOrder && s.node.ordered)
	if err != nil {
		return ev, err
	}
	ev.it = it
	return ev, nil
}

func (ev *evaluation[T]) next() (T, bool, error) {
	v, ok, err := ev.it.next()
	if ok && err == nil {
		ev.elements++
	}
	return v, ok, err
}

// finish releases everything the evaluation opened, then records it.
func (ev *evaluation[T]) finish(err error) error {
	if ev.finished {
		return err
	}
	ev.finished = true

	if closeErr := ev.ec.close(); err == nil {
		err = closeErr
	}

	cfg := ev.s.config
	duration := time.Since(ev.started)
	cfg.Metrics.ObserveTerminal(ev.op, cfg.name(), ev.elements, duration, err)

	logger := cfg.logger()
	if err != nil && gfcontext.IsCanceled(ev.ec.ctx) && errors.Is(err, ev.ec.ctx.Err()) {
		logger.Info("terminal operation canceled",
			zap.String("stream", cfg.name()),
			zap.String("operation", ev.op),
			zap.Int64("elements", ev.elements),
			zap.Bool("timed_out", gfcontext.IsTimedOut(ev.ec.ctx)))
		return err
	}
	if err != nil {
		logger.Warn("terminal operation failed",
			zap.String("run_id", uuid.NewString()),
			zap.String("stream", cfg.name()),
			zap.String("operation", ev.op),
			zap.String("pipeline", ev.s.node.String()),
			zap.Int64("elements", ev.elements),
			zap.Error(err))
		return err
	}
	if ce := logger.Check(zap.DebugLevel, "terminal operation finished"); ce != nil {
		ce.Write(
			zap.String("run_id", uuid.NewString()),
			zap.String("stream", cfg.name()),
			zap.String("operation", ev.op),
			zap.String("pipeline", ev.s.node.String()),
			zap.Int64("elements", ev.elements),
			zap.Duration("duration", duration))
	}
	return nil
}

// evaluate runs body over a freshly started evaluation.
func (s *stream[T]) evaluate(ctx context.Context, op string, needOrder, materializes bool, body func(next func() (T, bool, error)) error) error {
	ev, err := s.start(ctx, op, needOrder, materializes)
	if err == nil {
		err = body(ev.next)
	}
	return ev.finish(err)
}

// forEach pulls every element into action.
func forEach[T any](next func() (T, bool, error), action func(T)) error {
	for {
		v, ok, err := next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		action(v)
	}
}

// ForEach implementation
func (s *stream[T]) ForEach(ctx context.Context, action func(T)) error {
	return s.evaluate(ctx, "for_each", false, false, func(next func() (T, bool, error)) error {
		if err := validation.ValidateNotNil("stream", "action", action); err != nil {
			return err
		}
		return forEach(next, action)
	})
}

// ForEachOrdered implementation
func (s *stream[T]) ForEachOrdered(ctx context.Context, action func(T)) error {
	return s.evaluate(ctx, "for_each_ordered", true, false, func(next func() (T, bool, error)) error {
		if err := validation.ValidateNotNil("stream", "action", action); err != nil {
			return err
		}
		return forEach(next, action)
	})
}

// Reduce implementation
func (s *stream[T]) Reduce(ctx context.Context, identity T, accumulator func(T, T) T) (T, error) {
	result := identity
	err := s.evaluate(ctx, "reduce", true, true, func(next func() (T, bool, error)) error {
		if err := validation.ValidateNotNil("stream", "accumulator", accumulator); err != nil {
			return err
		}
		return forEach(next, func(v T) { result = accumulator(result, v) })
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// ReduceOptional implementation
func (s *stream[T]) ReduceOptional(ctx context.Context, accumulator func(T, T) T) (optional.Optional[T], error) {
	var (
		result T
		found  bool
	)
	err := s.evaluate(ctx, "reduce", true, true, func(next func() (T, bool, error)) error {
		if err := validation.ValidateNotNil("stream", "accumulator", accumulator); err != nil {
			return err
		}
		return forEach(next, func(v T) {
			if !found {
				result, found = v, true
				return
			}
			result = accumulator(result, v)
		})
	})
	if err != nil || !found {
		return optional.Empty[T](), err
	}
	return optional.Of(result), nil
}

// Collect implementation
func (s *stream[T]) Collect(ctx context.Context, supplier func() interface{}, accumulator func(interface{}, T)) (interface{}, error) {
	var container interface{}
	err := s.evaluate(ctx, "collect", true, true, func(next func() (T, bool, error)) error {
		if err := validation.FirstError(
			validation.ValidateNotNil("stream", "supplier", supplier),
			validation.ValidateNotNil("stream", "accumulator", accumulator),
		); err != nil {
			return err
		}
		container = supplier()
		return forEach(next, func(v T) { accumulator(container, v) })
	})
	if err != nil {
		return nil, err
	}
	return container, nil
}

// ToSlice implementation
func (s *stream[T]) ToSlice(ctx context.Context) ([]T, error) {
	result := make([]T, 0)
	err := s.evaluate(ctx, "to_slice", true, true, func(next func() (T, bool, error)) error {
		return forEach(next, func(v T) { result = append(result, v) })
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Count implementation
func (s *stream[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.evaluate(ctx, "count", false, true, func(next func() (T, bool, error)) error {
		return forEach(next, func(T) { count++ })
	})
	return count, err
}

// match pulls until predicate returns stop, reporting whether it did.
func (s *stream[T]) match(ctx context.Context, op string, predicate func(T) bool, stop bool) (bool, error) {
	var hit bool
	err := s.evaluate(ctx, op, false, false, func(next func() (T, bool, error)) error {
		if err := validation.ValidateNotNil("stream", "predicate", predicate); err != nil {
			return err
		}
		for {
			v, ok, err := next()
			if err != nil || !ok {
				return err
			}
			if predicate(v) == stop {
				hit = true
				return nil
			}
		}
	})
	return hit, err
}

// AnyMatch implementation
func (s *stream[T]) AnyMatch(ctx context.Context, predicate func(T) bool) (bool, error) {
	return s.match(ctx, "any_match", predicate, true)
}

// AllMatch implementation
func (s *stream[T]) AllMatch(ctx context.Context, predicate func(T) bool) (bool, error) {
	failed, err := s.match(ctx, "all_match", predicate, false)
	return !failed && err == nil, err
}

// NoneMatch implementation
func (s *stream[T]) NoneMatch(ctx context.Context, predicate func(T) bool) (bool, error) {
	matched, err := s.match(ctx, "none_match", predicate, true)
	return !matched && err == nil, err
}

func (s *stream[T]) find(ctx context.Context, op string, needOrder bool) (optional.Optional[T], error) {
	result := optional.Empty[T]()
	err := s.evaluate(ctx, op, needOrder, false, func(next func() (T, bool, error)) error {
		v, ok, err := next()
		if err == nil && ok {
			result = optional.Of(v)
		}
		return err
	})
	if err != nil {
		return optional.Empty[T](), err
	}
	return result, nil
}

// FindFirst implementation
func (s *stream[T]) FindFirst(ctx context.Context) (optional.Optional[T], error) {
	return s.find(ctx, "find_first", true)
}

// FindAny implementation
func (s *stream[T]) FindAny(ctx context.Context) (optional.Optional[T], error) {
	return s.find(ctx, "find_any", false)
}

// extreme keeps the first element for which better reports true against
// every later one, so ties resolve to the earliest element.
func (s *stream[T]) extreme(ctx context.Context, op string, compare func(a, b T) int, better func(int) bool) (optional.Optional[T], error) {
	var (
		best  T
		found bool
	)
	err := s.evaluate(ctx, op, false, true, func(next func() (T, bool, error)) error {
		if err := validation.ValidateNotNil("stream", "comparator", compare); err != nil {
			return err
		}
		return forEach(next, func(v T) {
			if !found || better(compare(v, best)) {
				best, found = v, true
			}
		})
	})
	if err != nil || !found {
		return optional.Empty[T](), err
	}
	return optional.Of(best), nil
}

// Min implementation
func (s *stream[T]) Min(ctx context.Context, compare func(a, b T) int) (optional.Optional[T], error) {
	return s.extreme(ctx, "min", compare, func(c int) bool { return c < 0 })
}

// Max implementation
func (s *stream[T]) Max(ctx context.Context, compare func(a, b T) int) (optional.Optional[T], error) {
	return s.extreme(ctx, "max", compare, func(c int) bool { return c > 0 })
}

// All implementation
func (s *stream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var stopped bool
		err := s.evaluate(ctx, "all", true, false, func(next func() (T, bool, error)) error {
			for {
				v, ok, err := next()
				if err != nil || !ok {
					return err
				}
				if !yield(v, nil) {
					stopped = true
					return nil
				}
			}
		})
		if err != nil && !stopped {
			var zero T
			yield(zero, err)
		}
	}
}

// Iterator implementation
func (s *stream[T]) Iterator(ctx context.Context) (func() (T, bool, error), func()) {
	ev, err := s.start(ctx, "iterator", true, false)
	var (
		mu   sync.Mutex
		done bool
	)
	finish := func(cause error) error {
		if done {
			return cause
		}
		done = true
		return ev.finish(cause)
	}
	if err != nil {
		err = finish(err)
	}

	next := func() (T, bool, error) {
		mu.Lock()
		defer mu.Unlock()
		var zero T
		if err != nil {
			failed := err
			err = nil
			return zero, false, failed
		}
		if done {
			return zero, false, nil
		}
		v, ok, nextErr := ev.next()
		if nextErr != nil || !ok {
			return zero, false, finish(nextErr)
		}
		return v, true, nil
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		_ = finish(nil)
	}
	return next, stop
}
