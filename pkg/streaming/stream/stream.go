package stream

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	gferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/optional"
)

// ErrStreamClosed is returned when a terminal operation runs on a stream
// whose pipeline has already been consumed or closed. It wraps
// errors.ErrInvalidState.
var ErrStreamClosed = fmt.Errorf("%w: stream has already been operated upon or closed", gferrors.ErrInvalidState)

// Stream represents a sequence of elements supporting sequential and parallel operations.
// Streams are lazy; computation on the source data is only performed when a terminal
// operation is initiated, and source elements are consumed only as needed.
//
// Every handle derived from one source shares that source's pipeline: once any
// of them runs a terminal operation, all of them report ErrStreamClosed.
type Stream[T any] interface {
	// Intermediate operations (lazy, return new Stream)

	// Filter returns a stream consisting of elements that match the given predicate.
	Filter(predicate func(T) bool) Stream[T]

	// Map returns a stream consisting of the results of applying the given function to elements.
	// Use MapTo to change the element type.
	Map(mapper func(T) T) Stream[T]

	// FlatMap replaces each element with the contents of the stream mapper
	// returns for it. A nil stream contributes nothing.
	FlatMap(mapper func(T) Stream[T]) Stream[T]

	// Distinct drops elements equal to an earlier element; the first occurrence wins.
	// Elements must be comparable at run time.
	Distinct() Stream[T]

	// Sorted returns a stream consisting of elements sorted by compare.
	// The sort is stable. Sorting an infinite stream fails with ErrUnsupportedOperation.
	Sorted(compare func(a, b T) int) Stream[T]

	// Skip discards the first n elements.
	Skip(n int64) Stream[T]

	// Limit truncates the stream to at most maxSize elements.
	Limit(maxSize int64) Stream[T]

	// Peek calls action on each element as it passes through.
	Peek(action func(T)) Stream[T]

	// TakeWhile emits elements until predicate first fails.
	TakeWhile(predicate func(T) bool) Stream[T]

	// DropWhile discards elements until predicate first fails, then emits the rest.
	DropWhile(predicate func(T) bool) Stream[T]

	// Unordered drops the encounter-order guarantee, which lets parallel
	// evaluation emit results as workers finish them.
	Unordered() Stream[T]

	// Parallel evaluates stateless stages on a pool of workers.
	// workers <= 0 means runtime.GOMAXPROCS(0).
	Parallel(workers int) Stream[T]

	// Sequential switches evaluation back to a single goroutine.
	Sequential() Stream[T]

	// WithConfig replaces the evaluation configuration.
	WithConfig(config Config) Stream[T]

	// Terminal operations (eager, consume the stream)

	// ForEach performs an action for each element of the stream. Parallel
	// streams call action in no particular order.
	ForEach(ctx context.Context, action func(T)) error

	// ForEachOrdered performs an action for each element in encounter order,
	// even for parallel streams.
	ForEachOrdered(ctx context.Context, action func(T)) error

	// Reduce folds elements left to right starting from identity.
	Reduce(ctx context.Context, identity T, accumulator func(T, T) T) (T, error)

	// ReduceOptional folds elements left to right starting from the first
	// element. It is empty when the stream is.
	ReduceOptional(ctx context.Context, accumulator func(T, T) T) (optional.Optional[T], error)

	// Collect performs a mutable reduction into the container supplier returns.
	Collect(ctx context.Context, supplier func() interface{}, accumulator func(interface{}, T)) (interface{}, error)

	// ToSlice returns a slice containing all elements.
	ToSlice(ctx context.Context) ([]T, error)

	// Count returns the count of elements.
	Count(ctx context.Context) (int64, error)

	// AnyMatch returns whether any elements match the given predicate.
	AnyMatch(ctx context.Context, predicate func(T) bool) (bool, error)

	// AllMatch returns whether all elements match the given predicate.
	AllMatch(ctx context.Context, predicate func(T) bool) (bool, error)

	// NoneMatch returns whether no elements match the given predicate.
	NoneMatch(ctx context.Context, predicate func(T) bool) (bool, error)

	// FindFirst returns the first element in encounter order, if present.
	FindFirst(ctx context.Context) (optional.Optional[T], error)

	// FindAny returns any element, if present.
	FindAny(ctx context.Context) (optional.Optional[T], error)

	// Min returns the minimum element according to the provided comparator.
	Min(ctx context.Context, compare func(a, b T) int) (optional.Optional[T], error)

	// Max returns the maximum element according to the provided comparator.
	Max(ctx context.Context, compare func(a, b T) int) (optional.Optional[T], error)

	// All returns an iterator over the elements. The stream is consumed when
	// the iterator is ranged over; an error ends the iteration as the final pair.
	All(ctx context.Context) iter.Seq2[T, error]

	// Iterator consumes the stream and returns a pull function and a stop
	// function. next reports false once the stream is exhausted or failed;
	// stop must be called to release the source and any workers.
	Iterator(ctx context.Context) (next func() (T, bool, error), stop func())

	// Stream control

	// Close releases the source without evaluating the stream.
	Close() error

	// IsClosed returns true if the stream has been consumed or closed.
	IsClosed() bool

	// Characteristics reports the order, size and execution mode of the stream.
	Characteristics() Characteristics

	// String renders the operation chain, for example "slice -> map -> limit(2)".
	String() string

	impl() *stream[T]
}

// Source represents a data source for streams.
type Source[T any] interface {
	// Next returns the next element and true, or zero value and false if no more elements.
	Next(ctx context.Context) (T, bool, error)
	// Close closes the source and releases resources.
	Close() error
}

// Size classifies how many elements a stream can produce.
type Size int

const (
	// Finite streams are known to end.
	Finite Size = iota
	// Unknown streams may or may not end.
	Unknown
	// Infinite streams never end on their own.
	Infinite
)

func (s Size) String() string {
	switch s {
	case Finite:
		return "finite"
	case Unknown:
		return "unknown"
	case Infinite:
		return "infinite"
	default:
		return fmt.Sprintf("Size(%d)", int(s))
	}
}

// Characteristics describes a stream at one point of its operation chain.
type Characteristics struct {
	Ordered  bool
	Size     Size
	Parallel bool
}

// pipeline is the state shared by every handle derived from one source.
type pipeline struct {
	consumed int32
	closer   func() error
	once     sync.Once
	closeErr error
}

func newPipeline(closer func() error) *pipeline {
	return &pipeline{closer: closer}
}

// claim marks the pipeline consumed. It fails if it already was.
func (p *pipeline) claim() error {
	if !atomic.CompareAndSwapInt32(&p.consumed, 0, 1) {
		return ErrStreamClosed
	}
	return nil
}

func (p *pipeline) isConsumed() bool {
	return atomic.LoadInt32(&p.consumed) != 0
}

// release closes the underlying source once.
func (p *pipeline) release() error {
	p.once.Do(func() {
		if p.closer != nil {
			p.closeErr = p.closer()
		}
	})
	return p.closeErr
}

// node describes one link of the operation chain. It holds no elements.
type node struct {
	op      string
	arg     string
	parent  *node
	ordered bool
	size    Size
	err     error
}

func (n *node) derive(op, arg string) *node {
	return &node{
		op:      op,
		arg:     arg,
		parent:  n,
		ordered: n.ordered,
		size:    n.size,
		err:     n.err,
	}
}

// fail records err unless an upstream error is already recorded.
func (n *node) fail(err error) *node {
	if n.err == nil && err != nil {
		n.err = err
	}
	return n
}

func (n *node) String() string {
	var parts []string
	for cur := n; cur != nil; cur = cur.parent {
		label := cur.op
		if cur.arg != "" {
			label += "(" + cur.arg + ")"
		}
		parts = append(parts, label)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " -> ")
}

// openFunc builds the pull iterator for one node. needOrder reports whether
// the consumer downstream depends on encounter order.
type openFunc[T any] func(ec *evalContext, needOrder bool) (iterator[T], error)

// stream is the default implementation of Stream.
type stream[T any] struct {
	pipe   *pipeline
	node   *node
	open   openFunc[T]
	config Config
}

func (s *stream[T]) impl() *stream[T] {
	return s
}

// derive creates the downstream handle for a new operation node.
func derive[T, R any](s *stream[T], n *node, open openFunc[R]) *stream[R] {
	return &stream[R]{
		pipe:   s.pipe,
		node:   n,
		open:   open,
		config: s.config,
	}
}

// Close implementation
func (s *stream[T]) Close() error {
	_ = s.pipe.claim()
	return s.pipe.release()
}

// IsClosed implementation
func (s *stream[T]) IsClosed() bool {
	return s.pipe.isConsumed()
}

// Characteristics implementation
func (s *stream[T]) Characteristics() Characteristics {
	return Characteristics{
		Ordered:  s.node.ordered,
		Size:     s.node.size,
		Parallel: s.config.Parallel.Enabled,
	}
}

func (s *stream[T]) String() string {
	return s.node.String()
}

// iterator is the pull interface every stage implements.
type iterator[T any] interface {
	next() (T, bool, error)
}

// iteratorFunc adapts a function to iterator.
type iteratorFunc[T any] func() (T, bool, error)

func (f iteratorFunc[T]) next() (T, bool, error) {
	return f()
}
