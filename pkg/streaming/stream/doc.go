/*
Package stream provides lazy sequence pipelines for Go.

A Stream is built from a source, extended with intermediate operations and
evaluated by exactly one terminal operation. Nothing runs until the terminal
operation pulls: each element travels through every stage before the next
one is requested, so Limit and the short-circuiting terminals stop the source
as soon as they have enough.

Core Concepts:

A Stream is:
  - Lazy: intermediate operations only describe work
  - One-shot: every handle derived from a source shares its pipeline; once one
    of them runs a terminal operation, the others fail with ErrStreamClosed
  - Ordered or unordered: slices, channels, Iterate and Range keep encounter
    order, Generate does not, Unordered drops it
  - Finite, Unknown or Infinite: Limit bounds a stream, Sorted and the
    materializing terminals refuse Infinite ones with ErrUnsupportedOperation

Basic Usage:

	result, err := stream.FromSlice([]int{1, 2, 3, 4, 5}).
		Filter(func(x int) bool { return x%2 == 0 }).
		Map(func(x int) int { return x * 2 }).
		ToSlice(ctx)
	// result == [4 8]

Stream Creation:

	stream.Of("a", "b", "c")
	stream.FromChannel(ch)
	stream.FromSeq(maps.Keys(m))
	stream.Range(0, 10)
	stream.Iterate(1, func(x int) int { return x * 3 })
	stream.Generate(rand.Int)
	stream.Concat(a, b)

Type-changing operations are package functions because methods cannot take
type parameters:

	lengths := stream.MapTo(words, func(w string) int { return len(w) })
	chars := stream.FlatMapTo(words, func(w string) stream.Stream[rune] {
		return stream.FromSlice([]rune(w))
	})

Ordering and Short-Circuiting:

Stages apply in the order they are chained. Limit before Sorted sorts only
the elements Limit let through:

	stream.Of("c", "a", "b").Limit(2).Sorted(strings.Compare) // a, c

Sorted after Limit pulls only two elements; Limit after Sorted still sorts
the whole input first.

Collectors:

CollectWith runs a Collector, a supplier/accumulator/finisher triple:

	groups, err := stream.CollectWith(ctx, s, stream.GroupingBy(func(w string) int { return len(w) }))
	parts, err := stream.CollectWith(ctx, s, stream.PartitioningBy(func(w string) bool { return len(w) > 2 }))
	line, err := stream.CollectWith(ctx, s, stream.Joining(", "))

ToStack, ToTreeSet and GroupingBySorted collect into gods containers.

Numeric Terminals:

	total, err := stream.Sum(ctx, numbers)
	stats, err := stream.SummaryStatistics(ctx, numbers)
	longest, err := stream.MaxNatural(ctx, lengths)

Results that may be absent are optional.Optional values:

	first, err := s.FindFirst(ctx)
	first.IfPresent(func(v string) { fmt.Println(v) })

Parallel Evaluation:

Parallel(n) runs the stateless stages (Filter, Map, FlatMap, Peek) on a
worker pool, handing each worker a chunk of elements. Results are merged in
encounter order when the consumer depends on it (Limit, Skip, Sorted,
Distinct, ToSlice, ForEachOrdered, FindFirst, ...) and in completion order
otherwise (ForEach, FindAny, Count, or any unordered stream). Stateful stages
run on the calling goroutine. Prefetching means callbacks may see up to a
window of elements beyond a short-circuit point.

	err := stream.FromSlice(urls).Parallel(8).Map(fetch).ForEach(ctx, store)

Configuration:

WithConfig attaches a name, a zap logger, a metrics registry and parallel
settings. Each terminal operation logs at debug level and records
seqflow_stream_* metrics; failures log at warn level.

Error Handling:

Construction errors (nil functions, negative counts, sorting an infinite
stream) are deferred to the terminal operation:

	_, err := s.Limit(-1).ToSlice(ctx)
	errors.Is(err, gferrors.ErrInvalidArgument) // true

Reusing a consumed stream returns ErrStreamClosed, which wraps
gferrors.ErrInvalidState. Context cancellation surfaces as ctx.Err().

Thread Safety:

A stream is consumed by one terminal operation on one goroutine. User
callbacks on parallel streams run concurrently and must be safe for that.
*/
package stream
