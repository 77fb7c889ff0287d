package stream

import (
	"cmp"
	"context"
	"slices"
	"strconv"

	gferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
)

// applyFunc is the per-element form of a stateless stage, run by workers in
// parallel mode. It calls emit once per output element.
type applyFunc[T, R any] func(ctx context.Context, v T, emit func(R)) error

// stateless wires a stage that handles each element independently. seq builds
// the sequential iterator; apply is the same transformation for workers.
func stateless[T, R any](s *stream[T], n *node, seq func(ec *evalContext, up iterator[T]) iterator[R], apply applyFunc[T, R]) *stream[R] {
	return derive(s, n, func(ec *evalContext, needOrder bool) (iterator[R], error) {
		needOrder = needOrder && n.ordered
		up, err := s.open(ec, needOrder)
		if err != nil {
			return nil, err
		}
		if ec.exec != nil {
			return newParallelStage(ec, n.op, up, apply, needOrder), nil
		}
		return seq(ec, up), nil
	})
}

// stateful wires a stage that depends on the elements before it. Its upstream
// always delivers in encounter order when the stream is ordered.
func stateful[T, R any](s *stream[T], n *node, build func(ec *evalContext, up iterator[T]) iterator[R]) *stream[R] {
	return derive(s, n, func(ec *evalContext, _ bool) (iterator[R], error) {
		up, err := s.open(ec, n.ordered)
		if err != nil {
			return nil, err
		}
		return build(ec, up), nil
	})
}

// Filter implementation
func (s *stream[T]) Filter(predicate func(T) bool) Stream[T] {
	n := s.node.derive("filter", "").fail(validation.ValidateNotNil("stream", "predicate", predicate))
	return stateless(s, n,
		func(_ *evalContext, up iterator[T]) iterator[T] {
			return &filterIterator[T]{up: up, predicate: predicate}
		},
		func(_ context.Context, v T, emit func(T)) error {
			if predicate(v) {
				emit(v)
			}
			return nil
		})
}

// Map implementation
func (s *stream[T]) Map(mapper func(T) T) Stream[T] {
	return mapTo(s, "map", mapper)
}

// MapTo transforms a stream of T into a stream of R.
func MapTo[T, R any](s Stream[T], mapper func(T) R) Stream[R] {
	return mapTo(s.impl(), "map", mapper)
}

func mapTo[T, R any](s *stream[T], op string, mapper func(T) R) *stream[R] {
	n := s.node.derive(op, "").fail(validation.ValidateNotNil("stream", "mapper", mapper))
	return stateless(s, n,
		func(_ *evalContext, up iterator[T]) iterator[R] {
			return &mapIterator[T, R]{up: up, mapper: mapper}
		},
		func(_ context.Context, v T, emit func(R)) error {
			emit(mapper(v))
			return nil
		})
}

// FlatMap implementation
func (s *stream[T]) FlatMap(mapper func(T) Stream[T]) Stream[T] {
	return flatMapTo(s, mapper)
}

// FlatMapTo replaces each element of s with the elements of the stream
// mapper returns for it. A nil stream contributes nothing.
func FlatMapTo[T, R any](s Stream[T], mapper func(T) Stream[R]) Stream[R] {
	return flatMapTo(s.impl(), mapper)
}

func flatMapTo[T, R any](s *stream[T], mapper func(T) Stream[R]) *stream[R] {
	n := s.node.derive("flatMap", "").fail(validation.ValidateNotNil("stream", "mapper", mapper))
	if n.size == Finite {
		n.size = Unknown
	}
	return stateless(s, n,
		func(ec *evalContext, up iterator[T]) iterator[R] {
			it := &flatMapIterator[T, R]{ctx: ec.ctx, up: up, mapper: mapper}
			ec.onClose(it.closeCurrent)
			return it
		},
		func(ctx context.Context, v T, emit func(R)) error {
			inner := mapper(v)
			if inner == nil {
				return nil
			}
			sub := newEvalContext(ctx)
			it, err := attach(sub, inner.impl(), true)
			if err == nil {
				err = drain(it, emit)
			}
			if closeErr := sub.close(); err == nil {
				err = closeErr
			}
			return err
		})
}

// Peek implementation
func (s *stream[T]) Peek(action func(T)) Stream[T] {
	n := s.node.derive("peek", "").fail(validation.ValidateNotNil("stream", "action", action))
	return stateless(s, n,
		func(_ *evalContext, up iterator[T]) iterator[T] {
			return &peekIterator[T]{up: up, action: action}
		},
		func(_ context.Context, v T, emit func(T)) error {
			action(v)
			emit(v)
			return nil
		})
}

// Distinct implementation
func (s *stream[T]) Distinct() Stream[T] {
	n := s.node.derive("distinct", "")
	return stateful(s, n, func(_ *evalContext, up iterator[T]) iterator[T] {
		return &distinctIterator[T, any]{up: up, key: func(v T) any { return v }, seen: make(map[any]struct{})}
	})
}

// DistinctBy drops elements whose key equals the key of an earlier element.
func DistinctBy[T any, K comparable](s Stream[T], key func(T) K) Stream[T] {
	src := s.impl()
	n := src.node.derive("distinct", "by").fail(validation.ValidateNotNil("stream", "key", key))
	return stateful(src, n, func(_ *evalContext, up iterator[T]) iterator[T] {
		return &distinctIterator[T, K]{up: up, key: key, seen: make(map[K]struct{})}
	})
}

// Sorted implementation
func (s *stream[T]) Sorted(compare func(a, b T) int) Stream[T] {
	n := s.node.derive("sorted", "").fail(validation.ValidateNotNil("stream", "comparator", compare))
	if s.node.size == Infinite {
		n.fail(gferrors.Unsupported("cannot sort infinite stream %s", s.node))
	}
	return stateful(s, n, func(_ *evalContext, up iterator[T]) iterator[T] {
		return &sortedIterator[T]{up: up, compare: compare}
	})
}

// SortedNatural sorts a stream of ordered values ascending.
func SortedNatural[T cmp.Ordered](s Stream[T]) Stream[T] {
	return s.Sorted(cmp.Compare[T])
}

// Skip implementation
func (s *stream[T]) Skip(n int64) Stream[T] {
	nd := s.node.derive("skip", strconv.FormatInt(n, 10)).fail(validation.ValidateCount("stream", "n", n))
	return stateful(s, nd, func(_ *evalContext, up iterator[T]) iterator[T] {
		return &skipIterator[T]{up: up, remaining: n}
	})
}

// Limit implementation
func (s *stream[T]) Limit(maxSize int64) Stream[T] {
	n := s.node.derive("limit", strconv.FormatInt(maxSize, 10)).fail(validation.ValidateCount("stream", "maxSize", maxSize))
	n.size = Finite
	return stateful(s, n, func(_ *evalContext, up iterator[T]) iterator[T] {
		return &limitIterator[T]{up: up, remaining: maxSize}
	})
}

// TakeWhile implementation
func (s *stream[T]) TakeWhile(predicate func(T) bool) Stream[T] {
	n := s.node.derive("takeWhile", "").fail(validation.ValidateNotNil("stream", "predicate", predicate))
	if n.size == Infinite {
		n.size = Unknown
	}
	return stateful(s, n, func(_ *evalContext, up iterator[T]) iterator[T] {
		return &takeWhileIterator[T]{up: up, predicate: predicate}
	})
}

// DropWhile implementation
func (s *stream[T]) DropWhile(predicate func(T) bool) Stream[T] {
	n := s.node.derive("dropWhile", "").fail(validation.ValidateNotNil("stream", "predicate", predicate))
	return stateful(s, n, func(_ *evalContext, up iterator[T]) iterator[T] {
		return &dropWhileIterator[T]{up: up, predicate: predicate}
	})
}

// Unordered implementation
func (s *stream[T]) Unordered() Stream[T] {
	n := s.node.derive("unordered", "")
	n.ordered = false
	return derive(s, n, func(ec *evalContext, _ bool) (iterator[T], error) {
		return s.open(ec, false)
	})
}

// filterIterator emits elements matching predicate.
type filterIterator[T any] struct {
	up        iterator[T]
	predicate func(T) bool
}

func (it *filterIterator[T]) next() (T, bool, error) {
	for {
		v, ok, err := it.up.next()
		if err != nil || !ok {
			return v, ok, err
		}
		if it.predicate(v) {
			return v, true, nil
		}
	}
}

// mapIterator applies mapper to every element.
type mapIterator[T, R any] struct {
	up     iterator[T]
	mapper func(T) R
}

func (it *mapIterator[T, R]) next() (R, bool, error) {
	v, ok, err := it.up.next()
	if err != nil || !ok {
		var zero R
		return zero, false, err
	}
	return it.mapper(v), true, nil
}

// peekIterator calls action on every element it passes on.
type peekIterator[T any] struct {
	up     iterator[T]
	action func(T)
}

func (it *peekIterator[T]) next() (T, bool, error) {
	v, ok, err := it.up.next()
	if err == nil && ok {
		it.action(v)
	}
	return v, ok, err
}

// flatMapIterator walks one inner stream at a time, pulling the next outer
// element only once the current inner stream is exhausted.
type flatMapIterator[T, R any] struct {
	ctx    context.Context
	up     iterator[T]
	mapper func(T) Stream[R]
	cur    iterator[R]
	curEC  *evalContext
}

func (it *flatMapIterator[T, R]) next() (R, bool, error) {
	var zero R
	for {
		if it.cur != nil {
			v, ok, err := it.cur.next()
			if err != nil || ok {
				return v, ok, err
			}
			if err := it.closeCurrent(); err != nil {
				return zero, false, err
			}
		}

		v, ok, err := it.up.next()
		if err != nil || !ok {
			return zero, false, err
		}
		inner := it.mapper(v)
		if inner == nil {
			continue
		}
		it.curEC = newEvalContext(it.ctx)
		cur, err := attach(it.curEC, inner.impl(), true)
		if err != nil {
			_ = it.closeCurrent()
			return zero, false, err
		}
		it.cur = cur
	}
}

func (it *flatMapIterator[T, R]) closeCurrent() error {
	it.cur = nil
	if it.curEC == nil {
		return nil
	}
	ec := it.curEC
	it.curEC = nil
	return ec.close()
}

// distinctIterator drops elements whose key was already seen.
type distinctIterator[T any, K comparable] struct {
	up   iterator[T]
	key  func(T) K
	seen map[K]struct{}
}

func (it *distinctIterator[T, K]) next() (T, bool, error) {
	for {
		v, ok, err := it.up.next()
		if err != nil || !ok {
			return v, ok, err
		}
		dup, err := it.visit(v)
		if err != nil {
			var zero T
			return zero, false, err
		}
		if !dup {
			return v, true, nil
		}
	}
}

// visit records v and reports whether it was already seen. Keys that are
// not comparable at run time make the map panic; that becomes an error.
func (it *distinctIterator[T, K]) visit(v T) (dup bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = gferrors.Unsupported("distinct: element %T is not comparable", v)
		}
	}()
	k := it.key(v)
	if _, dup = it.seen[k]; !dup {
		it.seen[k] = struct{}{}
	}
	return dup, nil
}

// sortedIterator drains its upstream on the first pull, then emits in order.
type sortedIterator[T any] struct {
	up      iterator[T]
	compare func(a, b T) int
	sorted  []T
	done    bool
}

func (it *sortedIterator[T]) next() (T, bool, error) {
	var zero T
	if !it.done {
		var all []T
		if err := drain(it.up, func(v T) { all = append(all, v) }); err != nil {
			return zero, false, err
		}
		slices.SortStableFunc(all, it.compare)
		it.sorted = all
		it.done = true
	}
	if len(it.sorted) == 0 {
		return zero, false, nil
	}
	v := it.sorted[0]
	it.sorted = it.sorted[1:]
	return v, true, nil
}

// skipIterator discards the first n elements.
type skipIterator[T any] struct {
	up        iterator[T]
	remaining int64
}

func (it *skipIterator[T]) next() (T, bool, error) {
	for it.remaining > 0 {
		v, ok, err := it.up.next()
		if err != nil || !ok {
			return v, ok, err
		}
		it.remaining--
	}
	return it.up.next()
}

// limitIterator stops after n elements without pulling an n+1th.
type limitIterator[T any] struct {
	up        iterator[T]
	remaining int64
}

func (it *limitIterator[T]) next() (T, bool, error) {
	if it.remaining <= 0 {
		var zero T
		return zero, false, nil
	}
	v, ok, err := it.up.next()
	if err == nil && ok {
		it.remaining--
	}
	return v, ok, err
}

// takeWhileIterator ends at the first element failing predicate.
type takeWhileIterator[T any] struct {
	up        iterator[T]
	predicate func(T) bool
	done      bool
}

func (it *takeWhileIterator[T]) next() (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	v, ok, err := it.up.next()
	if err != nil || !ok {
		return v, ok, err
	}
	if !it.predicate(v) {
		it.done = true
		return zero, false, nil
	}
	return v, true, nil
}

// dropWhileIterator discards elements until the first one failing predicate.
type dropWhileIterator[T any] struct {
	up        iterator[T]
	predicate func(T) bool
	started   bool
}

func (it *dropWhileIterator[T]) next() (T, bool, error) {
	if !it.started {
		it.started = true
		for {
			v, ok, err := it.up.next()
			if err != nil || !ok {
				return v, ok, err
			}
			if !it.predicate(v) {
				return v, true, nil
			}
		}
	}
	return it.up.next()
}

// drain pulls every remaining element of it into emit.
func drain[T any](it iterator[T], emit func(T)) error {
	for {
		v, ok, err := it.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		emit(v)
	}
}
