package stream

import (
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/emirpasic/gods/utils"

	"github.com/vnykmshr/seqflow/pkg/common/validation"
)

// ToStack pushes elements onto an array-backed stack in encounter order, so
// the last element ends up on top.
func ToStack[T any]() Collector[T, *arraystack.Stack, *arraystack.Stack] {
	return Collector[T, *arraystack.Stack, *arraystack.Stack]{
		Supplier: arraystack.New,
		Accumulator: func(s *arraystack.Stack, v T) *arraystack.Stack {
			s.Push(v)
			return s
		},
		Finisher: identity[*arraystack.Stack],
	}
}

// ToTreeSet collects distinct elements into a set kept sorted by compare.
func ToTreeSet[T any](compare func(a, b T) int) Collector[T, *treeset.Set, *treeset.Set] {
	return Collector[T, *treeset.Set, *treeset.Set]{
		err:      validation.ValidateNotNil("collector", "comparator", compare),
		Supplier: func() *treeset.Set { return treeset.NewWith(comparator(compare)) },
		Accumulator: func(s *treeset.Set, v T) *treeset.Set {
			s.Add(v)
			return s
		},
		Finisher: identity[*treeset.Set],
	}
}

// GroupingBySorted groups elements like GroupingBy into a map whose keys
// iterate in compare order. Values are []T in encounter order.
func GroupingBySorted[T any, K any](classifier func(T) K, compare func(a, b K) int) Collector[T, *treemap.Map, *treemap.Map] {
	return Collector[T, *treemap.Map, *treemap.Map]{
		err: validation.FirstError(
			validation.ValidateNotNil("collector", "classifier", classifier),
			validation.ValidateNotNil("collector", "comparator", compare),
		),
		Supplier: func() *treemap.Map { return treemap.NewWith(comparator(compare)) },
		Accumulator: func(m *treemap.Map, v T) *treemap.Map {
			k := classifier(v)
			var group []T
			if existing, ok := m.Get(k); ok {
				group = existing.([]T)
			}
			m.Put(k, append(group, v))
			return m
		},
		Finisher: identity[*treemap.Map],
	}
}

// comparator adapts a typed comparison to the untyped form gods expects.
func comparator[T any](compare func(a, b T) int) utils.Comparator {
	return func(a, b interface{}) int {
		return compare(a.(T), b.(T))
	}
}
