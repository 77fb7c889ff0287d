package stream

import (
	"cmp"
	"context"
	"fmt"

	"github.com/vnykmshr/seqflow/pkg/optional"
)

// Integer is the set of integer element types accepted by Range.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Number is the set of element types accepted by the numeric terminals.
type Number interface {
	Integer | ~float32 | ~float64
}

// Range returns the ordered stream start, start+1, ..., end-1.
func Range[T Integer](start, end T) Stream[T] {
	src := &rangeSource[T]{current: start, end: end}
	s := newSourceStream[T]("range", src, true, Finite, nil)
	s.node.arg = fmt.Sprintf("%v, %v", start, end)
	return s
}

// RangeClosed returns the ordered stream start, start+1, ..., end.
func RangeClosed[T Integer](start, end T) Stream[T] {
	src := &rangeSource[T]{current: start, end: end, closed: true}
	s := newSourceStream[T]("rangeClosed", src, true, Finite, nil)
	s.node.arg = fmt.Sprintf("%v, %v", start, end)
	return s
}

type rangeSource[T Integer] struct {
	current T
	end     T
	closed  bool
	done    bool
}

func (r *rangeSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if r.done || r.current > r.end || (!r.closed && r.current == r.end) {
		return zero, false, nil
	}
	v := r.current
	if v == r.end {
		// Incrementing past the type's maximum would wrap.
		r.done = true
	} else {
		r.current++
	}
	return v, true, nil
}

func (r *rangeSource[T]) Close() error {
	return nil
}

// Sum returns the sum of the elements, zero for an empty stream.
func Sum[T Number](ctx context.Context, s Stream[T]) (T, error) {
	var total T
	err := s.impl().evaluate(ctx, "sum", false, true, func(next func() (T, bool, error)) error {
		return forEach(next, func(v T) { total += v })
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return total, nil
}

// Average returns the arithmetic mean of the elements, empty for an empty stream.
func Average[T Number](ctx context.Context, s Stream[T]) (optional.Optional[float64], error) {
	stats, err := SummaryStatistics(ctx, s)
	if err != nil || stats.Count == 0 {
		return optional.Empty[float64](), err
	}
	return optional.Of(stats.Average()), nil
}

// Statistics is a single-pass summary of a numeric stream. Min and Max are
// zero when Count is zero. Sum is accumulated in float64 so narrow element
// types cannot overflow it; integer totals are exact up to 2^53.
type Statistics[T Number] struct {
	Count int64
	Sum   float64
	Min   T
	Max   T
}

// Average returns Sum / Count, or 0 when Count is zero.
func (s Statistics[T]) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

func (s Statistics[T]) String() string {
	return fmt.Sprintf("Statistics{count=%d, sum=%v, min=%v, average=%f, max=%v}",
		s.Count, s.Sum, s.Min, s.Average(), s.Max)
}

func (s *Statistics[T]) accept(v T) {
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Sum += float64(v)
	s.Count++
}

// SummaryStatistics computes count, sum, min, max and average in one pass.
func SummaryStatistics[T Number](ctx context.Context, s Stream[T]) (Statistics[T], error) {
	var stats Statistics[T]
	err := s.impl().evaluate(ctx, "statistics", false, true, func(next func() (T, bool, error)) error {
		return forEach(next, stats.accept)
	})
	if err != nil {
		return Statistics[T]{}, err
	}
	return stats, nil
}

// MinNatural returns the smallest element by natural order.
func MinNatural[T cmp.Ordered](ctx context.Context, s Stream[T]) (optional.Optional[T], error) {
	return s.Min(ctx, cmp.Compare[T])
}

// MaxNatural returns the largest element by natural order.
func MaxNatural[T cmp.Ordered](ctx context.Context, s Stream[T]) (optional.Optional[T], error) {
	return s.Max(ctx, cmp.Compare[T])
}
