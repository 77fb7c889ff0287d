package optional

import (
	"fmt"

	gferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
)

// Optional holds either a value (present) or nothing (empty).
// The zero Optional is empty.
type Optional[T any] struct {
	value   T
	present bool
}

// Of returns a present Optional holding value.
func Of[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

// Empty returns an empty Optional.
func Empty[T any]() Optional[T] {
	return Optional[T]{}
}

// OfNullable returns an Optional holding *ptr, or an empty Optional for a nil ptr.
func OfNullable[T any](ptr *T) Optional[T] {
	if ptr == nil {
		return Empty[T]()
	}
	return Of(*ptr)
}

// IsPresent reports whether a value is held.
func (o Optional[T]) IsPresent() bool {
	return o.present
}

// IsEmpty reports whether no value is held.
func (o Optional[T]) IsEmpty() bool {
	return !o.present
}

// Get returns the held value, or ErrNoSuchElement when empty.
func (o Optional[T]) Get() (T, error) {
	if !o.present {
		var zero T
		return zero, fmt.Errorf("%w: optional is empty", gferrors.ErrNoSuchElement)
	}
	return o.value, nil
}

// MustGet returns the held value and panics when empty.
func (o Optional[T]) MustGet() T {
	v, err := o.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// OrElse returns the held value, or other when empty.
func (o Optional[T]) OrElse(other T) T {
	if o.present {
		return o.value
	}
	return other
}

// OrElseGet returns the held value, or the result of supplier when empty.
func (o Optional[T]) OrElseGet(supplier func() T) T {
	if o.present {
		return o.value
	}
	return supplier()
}

// IfPresent calls action with the held value, if any.
func (o Optional[T]) IfPresent(action func(T)) {
	if o.present {
		action(o.value)
	}
}

// Filter returns o when it is present and matches predicate, empty otherwise.
func (o Optional[T]) Filter(predicate func(T) bool) Optional[T] {
	if o.present && predicate(o.value) {
		return o
	}
	return Empty[T]()
}

func (o Optional[T]) String() string {
	if !o.present {
		return "Optional.empty"
	}
	return fmt.Sprintf("Optional[%v]", o.value)
}

// Map applies mapper to a present value.
func Map[T, R any](o Optional[T], mapper func(T) R) Optional[R] {
	if !o.present {
		return Empty[R]()
	}
	return Of(mapper(o.value))
}
