package stream

import (
	"context"
	"fmt"
	"iter"

	"github.com/vnykmshr/seqflow/pkg/common/validation"
)

// FromSlice creates a finite, ordered stream over slice. The slice is not
// copied; a nil slice yields an empty stream.
func FromSlice[T any](slice []T) Stream[T] {
	return newSourceStream[T]("slice", &sliceSource[T]{slice: slice}, true, Finite, nil)
}

// Of creates a finite, ordered stream from the given values.
func Of[T any](values ...T) Stream[T] {
	return FromSlice(values)
}

// FromChannel creates an ordered stream that receives from ch until it is closed.
func FromChannel[T any](ch <-chan T) Stream[T] {
	err := validation.ValidateNotNil("stream", "channel", ch)
	return newSourceStream[T]("channel", &channelSource[T]{ch: ch}, true, Unknown, err)
}

// FromSeq creates an ordered stream over a range-over-func sequence.
func FromSeq[T any](seq iter.Seq[T]) Stream[T] {
	err := validation.ValidateNotNil("stream", "seq", seq)
	return newSourceStream[T]("seq", &seqSource[T]{seq: seq}, true, Unknown, err)
}

// Generate creates an infinite, unordered stream calling supplier once per
// element pulled.
func Generate[T any](supplier func() T) Stream[T] {
	err := validation.ValidateNotNil("stream", "supplier", supplier)
	return newSourceStream[T]("generate", &generatorSource[T]{generator: supplier}, false, Infinite, err)
}

// Iterate creates an infinite, ordered stream seed, f(seed), f(f(seed)), ...
// f is only called when the next element is pulled.
func Iterate[T any](seed T, f func(T) T) Stream[T] {
	err := validation.ValidateNotNil("stream", "successor", f)
	return newSourceStream[T]("iterate", &iterateSource[T]{current: seed, next: f}, true, Infinite, err)
}

// IterateWhile is Iterate bounded by hasNext: the stream ends at the first
// element for which hasNext reports false.
func IterateWhile[T any](seed T, hasNext func(T) bool, f func(T) T) Stream[T] {
	err := validation.FirstError(
		validation.ValidateNotNil("stream", "hasNext", hasNext),
		validation.ValidateNotNil("stream", "successor", f),
	)
	src := &iterateSource[T]{current: seed, next: f, hasNext: hasNext}
	return newSourceStream[T]("iterate", src, true, Unknown, err)
}

// Empty returns an empty stream.
func Empty[T any]() Stream[T] {
	return newSourceStream[T]("empty", emptySource[T]{}, true, Finite, nil)
}

// Fail returns a stream whose terminal operation fails with err. Source
// adapters use it to defer construction errors.
func Fail[T any](err error) Stream[T] {
	return newSourceStream[T]("fail", emptySource[T]{}, true, Finite, err)
}

// New creates an ordered stream of unknown size from a custom source.
func New[T any](source Source[T]) Stream[T] {
	return NewWith(source, Characteristics{Ordered: true, Size: Unknown})
}

// NewWith creates a stream from a custom source with the given order and
// size. The Parallel field is ignored; use Parallel on the result.
func NewWith[T any](source Source[T], c Characteristics) Stream[T] {
	if err := validation.ValidateNotNil("stream", "source", source); err != nil {
		return Fail[T](err)
	}
	return newSourceStream[T]("source", source, c.Ordered, c.Size, nil)
}

// Concat creates a stream of every element of a followed by every element of b.
// Both inputs are consumed when the result is.
func Concat[T any](a, b Stream[T]) Stream[T] {
	if err := validation.FirstError(
		validation.ValidateNotNil("stream", "first", a),
		validation.ValidateNotNil("stream", "second", b),
	); err != nil {
		return Fail[T](err)
	}
	first, second := a.impl(), b.impl()

	n := &node{
		op:      "concat",
		arg:     fmt.Sprintf("%s | %s", first.node, second.node),
		ordered: first.node.ordered && second.node.ordered,
		size:    max(first.node.size, second.node.size),
	}
	n.fail(first.node.err)
	n.fail(second.node.err)

	open := func(ec *evalContext, needOrder bool) (iterator[T], error) {
		firstIt, err := attach(ec, first, needOrder)
		if err != nil {
			return nil, err
		}
		secondIt, err := attach(ec, second, needOrder)
		if err != nil {
			return nil, err
		}
		return &concatIterator[T]{parts: []iterator[T]{firstIt, secondIt}}, nil
	}
	return &stream[T]{
		pipe:   newPipeline(nil),
		node:   n,
		open:   open,
		config: first.config,
	}
}

func newSourceStream[T any](op string, src Source[T], ordered bool, size Size, err error) *stream[T] {
	n := &node{op: op, ordered: ordered, size: size, err: err}
	return &stream[T]{
		pipe: newPipeline(src.Close),
		node: n,
		open: func(ec *evalContext, _ bool) (iterator[T], error) {
			return &sourceIterator[T]{ctx: ec.ctx, src: src}, nil
		},
		config: DefaultConfig(),
	}
}

// sourceIterator adapts a Source to the pull loop.
type sourceIterator[T any] struct {
	ctx context.Context
	src Source[T]
}

func (it *sourceIterator[T]) next() (T, bool, error) {
	return it.src.Next(it.ctx)
}

// sliceSource implements Source for slices.
type sliceSource[T any] struct {
	slice []T
	index int
}

func (s *sliceSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.index >= len(s.slice) {
		return zero, false, nil
	}

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	default:
		v := s.slice[s.index]
		s.index++
		return v, true, nil
	}
}

func (s *sliceSource[T]) Close() error {
	return nil
}

// channelSource implements Source for channels.
type channelSource[T any] struct {
	ch <-chan T
}

func (s *channelSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	select {
	case value, ok := <-s.ch:
		if !ok {
			return zero, false, nil
		}
		return value, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (s *channelSource[T]) Close() error {
	return nil
}

// seqSource pulls from an iter.Seq, starting it on first use.
type seqSource[T any] struct {
	seq  iter.Seq[T]
	pull func() (T, bool)
	stop func()
}

func (s *seqSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if s.pull == nil {
		s.pull, s.stop = iter.Pull(s.seq)
	}
	v, ok := s.pull()
	return v, ok, nil
}

func (s *seqSource[T]) Close() error {
	if s.stop != nil {
		s.stop()
	}
	return nil
}

// generatorSource implements Source for generator functions.
type generatorSource[T any] struct {
	generator func() T
}

func (s *generatorSource[T]) Next(ctx context.Context) (T, bool, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	default:
		return s.generator(), true, nil
	}
}

func (s *generatorSource[T]) Close() error {
	return nil
}

// iterateSource yields seed, next(seed), ... optionally bounded by hasNext.
type iterateSource[T any] struct {
	current T
	started bool
	done    bool
	next    func(T) T
	hasNext func(T) bool
}

func (s *iterateSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.done {
		return zero, false, nil
	}
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if s.started {
		s.current = s.next(s.current)
	}
	s.started = true
	if s.hasNext != nil && !s.hasNext(s.current) {
		s.done = true
		return zero, false, nil
	}
	return s.current, true, nil
}

func (s *iterateSource[T]) Close() error {
	return nil
}

// emptySource implements Source for empty streams.
type emptySource[T any] struct{}

func (emptySource[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	return zero, false, nil
}

func (emptySource[T]) Close() error {
	return nil
}

// concatIterator drains its parts in order.
type concatIterator[T any] struct {
	parts []iterator[T]
}

func (it *concatIterator[T]) next() (T, bool, error) {
	for len(it.parts) > 0 {
		v, ok, err := it.parts[0].next()
		if err != nil || ok {
			return v, ok, err
		}
		it.parts = it.parts[1:]
	}
	var zero T
	return zero, false, nil
}
