package benchmark

import (
	"context"
	"strconv"
	"testing"

	"github.com/vnykmshr/seqflow/pkg/streaming/stream"
)

var benchSizes = []int{100, 1000, 10000}

func ints(size int) []int {
	data := make([]int, size)
	for i := range data {
		data[i] = i
	}
	return data
}

// BenchmarkFromSlice measures building and closing a pipeline without evaluating it.
func BenchmarkFromSlice(b *testing.B) {
	data := ints(1000)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s := stream.FromSlice(data).
			Filter(func(n int) bool { return n > 0 }).
			Map(func(n int) int { return n + 1 })
		_ = s.Close()
	}
}

// BenchmarkChainedOperations measures a filter, map and reduce chain.
func BenchmarkChainedOperations(b *testing.B) {
	ctx := context.Background()
	for _, size := range benchSizes {
		data := ints(size)
		b.Run(sizeLabel(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = stream.FromSlice(data).
					Filter(func(n int) bool { return n%2 == 0 }).
					Map(func(n int) int { return n * 3 }).
					Reduce(ctx, 0, func(a, b int) int { return a + b })
			}
		})
	}
}

// BenchmarkToSlice measures materialization.
func BenchmarkToSlice(b *testing.B) {
	ctx := context.Background()
	for _, size := range benchSizes {
		data := ints(size)
		b.Run(sizeLabel(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = stream.FromSlice(data).ToSlice(ctx)
			}
		})
	}
}

// BenchmarkSorted measures the stable sort barrier.
func BenchmarkSorted(b *testing.B) {
	ctx := context.Background()
	for _, size := range benchSizes {
		data := make([]int, size)
		for i := range data {
			data[i] = (i * 7919) % size
		}
		b.Run(sizeLabel(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = stream.SortedNatural(stream.FromSlice(data)).ToSlice(ctx)
			}
		})
	}
}

// BenchmarkDistinct measures duplicate removal with a high duplicate rate.
func BenchmarkDistinct(b *testing.B) {
	ctx := context.Background()
	for _, size := range benchSizes {
		data := make([]int, size)
		for i := range data {
			data[i] = i % 10
		}
		b.Run(sizeLabel(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = stream.FromSlice(data).Distinct().Count(ctx)
			}
		})
	}
}

// BenchmarkLimitInfinite measures short-circuiting an infinite source.
func BenchmarkLimitInfinite(b *testing.B) {
	ctx := context.Background()
	for _, size := range benchSizes {
		b.Run(sizeLabel(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = stream.Iterate(0, func(n int) int { return n + 1 }).
					Limit(int64(size)).
					Count(ctx)
			}
		})
	}
}

// BenchmarkFlatMap measures expanding each element into a small inner stream.
func BenchmarkFlatMap(b *testing.B) {
	ctx := context.Background()
	for _, size := range benchSizes {
		data := ints(size)
		b.Run(sizeLabel(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = stream.FromSlice(data).
					FlatMap(func(n int) stream.Stream[int] { return stream.Of(n, n) }).
					Count(ctx)
			}
		})
	}
}

// BenchmarkGroupingBy measures the grouping collector.
func BenchmarkGroupingBy(b *testing.B) {
	ctx := context.Background()
	for _, size := range benchSizes {
		data := ints(size)
		b.Run(sizeLabel(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = stream.CollectWith(ctx, stream.FromSlice(data),
					stream.GroupingBy(func(n int) string { return strconv.Itoa(n % 16) }))
			}
		})
	}
}

// BenchmarkSummaryStatistics measures the numeric statistics terminal.
func BenchmarkSummaryStatistics(b *testing.B) {
	ctx := context.Background()
	for _, size := range benchSizes {
		b.Run(sizeLabel(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = stream.SummaryStatistics(ctx, stream.Range(0, size))
			}
		})
	}
}

// sizeLabel returns a readable label for benchmark sizes.
func sizeLabel(size int) string {
	switch {
	case size >= 10000:
		return "10k"
	case size >= 1000:
		return "1k"
	case size >= 100:
		return "100"
	default:
		return "10"
	}
}
