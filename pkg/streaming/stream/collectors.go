package stream

import (
	"context"
	"strings"

	"github.com/vnykmshr/seqflow/pkg/common/validation"
)

// Collector describes a mutable reduction: Supplier creates the
// accumulation container, Accumulator folds one element into it, and
// Finisher turns it into the result. All three are required.
type Collector[T, A, R any] struct {
	Supplier    func() A
	Accumulator func(A, T) A
	Finisher    func(A) R

	// err holds an invalid argument given to the constructor.
	err error
}

func (c Collector[T, A, R]) validate() error {
	return validation.FirstError(
		c.err,
		validation.ValidateNotNil("collector", "Supplier", c.Supplier),
		validation.ValidateNotNil("collector", "Accumulator", c.Accumulator),
		validation.ValidateNotNil("collector", "Finisher", c.Finisher),
	)
}

// CollectWith runs c over every element of s in encounter order.
func CollectWith[T, A, R any](ctx context.Context, s Stream[T], c Collector[T, A, R]) (R, error) {
	var acc A
	err := s.impl().evaluate(ctx, "collect", true, true, func(next func() (T, bool, error)) error {
		if err := c.validate(); err != nil {
			return err
		}
		acc = c.Supplier()
		return forEach(next, func(v T) { acc = c.Accumulator(acc, v) })
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return c.Finisher(acc), nil
}

func identity[A any](a A) A {
	return a
}

// ToList collects elements into a slice in encounter order.
func ToList[T any]() Collector[T, []T, []T] {
	return Collector[T, []T, []T]{
		Supplier:    func() []T { return make([]T, 0) },
		Accumulator: func(acc []T, v T) []T { return append(acc, v) },
		Finisher:    identity[[]T],
	}
}

// ToSet collects distinct elements into a set.
func ToSet[T comparable]() Collector[T, map[T]struct{}, map[T]struct{}] {
	return Collector[T, map[T]struct{}, map[T]struct{}]{
		Supplier: func() map[T]struct{} { return make(map[T]struct{}) },
		Accumulator: func(acc map[T]struct{}, v T) map[T]struct{} {
			acc[v] = struct{}{}
			return acc
		},
		Finisher: identity[map[T]struct{}],
	}
}

// ToCollection collects into a caller-supplied container. add must mutate
// the container in place; C is typically a pointer.
func ToCollection[T, C any](factory func() C, add func(C, T)) Collector[T, C, C] {
	return Collector[T, C, C]{
		err: validation.FirstError(
			validation.ValidateNotNil("collector", "factory", factory),
			validation.ValidateNotNil("collector", "add", add),
		),
		Supplier: factory,
		Accumulator: func(acc C, v T) C {
			add(acc, v)
			return acc
		},
		Finisher: identity[C],
	}
}

// Joining concatenates strings with sep between them.
func Joining(sep string) Collector[string, *joiner, string] {
	return Collector[string, *joiner, string]{
		Supplier: func() *joiner { return &joiner{sep: sep} },
		Accumulator: func(j *joiner, v string) *joiner {
			if j.n > 0 {
				j.b.WriteString(j.sep)
			}
			j.b.WriteString(v)
			j.n++
			return j
		},
		Finisher: func(j *joiner) string { return j.b.String() },
	}
}

type joiner struct {
	b   strings.Builder
	sep string
	n   int
}

// Counting counts elements.
func Counting[T any]() Collector[T, int64, int64] {
	return Collector[T, int64, int64]{
		Supplier:    func() int64 { return 0 },
		Accumulator: func(acc int64, _ T) int64 { return acc + 1 },
		Finisher:    identity[int64],
	}
}

// GroupingBy maps each classifier result to the elements producing it, in
// encounter order.
func GroupingBy[T any, K comparable](classifier func(T) K) Collector[T, map[K][]T, map[K][]T] {
	return Collector[T, map[K][]T, map[K][]T]{
		err:      validation.ValidateNotNil("collector", "classifier", classifier),
		Supplier: func() map[K][]T { return make(map[K][]T) },
		Accumulator: func(acc map[K][]T, v T) map[K][]T {
			k := classifier(v)
			acc[k] = append(acc[k], v)
			return acc
		},
		Finisher: identity[map[K][]T],
	}
}

// GroupingByTo groups elements by classifier and reduces each group with downstream.
func GroupingByTo[T any, K comparable, A, R any](classifier func(T) K, downstream Collector[T, A, R]) Collector[T, map[K]A, map[K]R] {
	return Collector[T, map[K]A, map[K]R]{
		err: validation.FirstError(
			validation.ValidateNotNil("collector", "classifier", classifier),
			downstream.validate(),
		),
		Supplier: func() map[K]A { return make(map[K]A) },
		Accumulator: func(acc map[K]A, v T) map[K]A {
			k := classifier(v)
			group, ok := acc[k]
			if !ok {
				group = downstream.Supplier()
			}
			acc[k] = downstream.Accumulator(group, v)
			return acc
		},
		Finisher: func(acc map[K]A) map[K]R {
			out := make(map[K]R, len(acc))
			for k, group := range acc {
				out[k] = downstream.Finisher(group)
			}
			return out
		},
	}
}

// PartitioningBy splits elements into the ones matching predicate (true) and
// the rest (false). Both keys are always present.
func PartitioningBy[T any](predicate func(T) bool) Collector[T, map[bool][]T, map[bool][]T] {
	return Collector[T, map[bool][]T, map[bool][]T]{
		err: validation.ValidateNotNil("collector", "predicate", predicate),
		Supplier: func() map[bool][]T {
			return map[bool][]T{false: {}, true: {}}
		},
		Accumulator: func(acc map[bool][]T, v T) map[bool][]T {
			k := predicate(v)
			acc[k] = append(acc[k], v)
			return acc
		},
		Finisher: identity[map[bool][]T],
	}
}

// ToMap builds a map from key and value functions. When two elements share
// a key, merge combines the values; a nil merge keeps the later value.
func ToMap[T any, K comparable, V any](key func(T) K, value func(T) V, merge func(V, V) V) Collector[T, map[K]V, map[K]V] {
	return Collector[T, map[K]V, map[K]V]{
		err: validation.FirstError(
			validation.ValidateNotNil("collector", "key", key),
			validation.ValidateNotNil("collector", "value", value),
		),
		Supplier: func() map[K]V { return make(map[K]V) },
		Accumulator: func(acc map[K]V, v T) map[K]V {
			k, val := key(v), value(v)
			if prev, ok := acc[k]; ok && merge != nil {
				val = merge(prev, val)
			}
			acc[k] = val
			return acc
		},
		Finisher: identity[map[K]V],
	}
}
