package stream

import (
	"context"
	"strings"
	"testing"

	"github.com/vnykmshr/seqflow/internal/testutil"
	gferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
)

func TestToList(t *testing.T) {
	list, err := CollectWith(context.Background(), Of("c", "a", "b").Sorted(strings.Compare), ToList[string]())
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, list, []string{"a", "b", "c"})
}

func TestToSet(t *testing.T) {
	set, err := CollectWith(context.Background(), Of("a", "b", "a", "c"), ToSet[string]())
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, set, map[string]struct{}{"a": {}, "b": {}, "c": {}})
}

type bag struct {
	items []int
}

func TestToCollection(t *testing.T) {
	b, err := CollectWith(context.Background(), Of(3, 1, 2),
		ToCollection(func() *bag { return &bag{} }, func(b *bag, v int) { b.items = append(b.items, v) }))
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, b.items, []int{3, 1, 2})
}

func TestJoining(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  string
	}{
		{"several", []string{"a", "b", "c"}, "a, b, c"},
		{"single", []string{"a"}, "a"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CollectWith(context.Background(), FromSlice(tt.input), Joining(", "))
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, got, tt.want)
		})
	}
}

func TestCounting(t *testing.T) {
	n, err := CollectWith(context.Background(), Range(0, 7), Counting[int]())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, int64(7))
}

func TestGroupingBy(t *testing.T) {
	groups, err := CollectWith(context.Background(), Of("a", "bb", "cc", "d", "eee"),
		GroupingBy(func(s string) int { return len(s) }))
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, groups, map[int][]string{
		1: {"a", "d"},
		2: {"bb", "cc"},
		3: {"eee"},
	})
}

func TestGroupingByTo(t *testing.T) {
	counts, err := CollectWith(context.Background(), Of("a", "bb", "cc", "d", "eee"),
		GroupingByTo(func(s string) int { return len(s) }, Counting[string]()))
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, counts, map[int]int64{1: 2, 2: 2, 3: 1})

	joined, err := CollectWith(context.Background(), Of("a", "bb", "cc", "d"),
		GroupingByTo(func(s string) int { return len(s) }, Joining("+")))
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, joined, map[int]string{1: "a+d", 2: "bb+cc"})
}

func TestPartitioningBy(t *testing.T) {
	parts, err := CollectWith(context.Background(), Of("a", "bbb", "cc", "dddd"),
		PartitioningBy(func(s string) bool { return len(s) > 2 }))
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, parts, map[bool][]string{
		false: {"a", "cc"},
		true:  {"bbb", "dddd"},
	})

	empty, err := CollectWith(context.Background(), Empty[string](),
		PartitioningBy(func(s string) bool { return len(s) > 2 }))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(empty), 2)
	testutil.AssertEqual(t, len(empty[true]), 0)
	testutil.AssertEqual(t, len(empty[false]), 0)
}

func TestToMap(t *testing.T) {
	lengths, err := CollectWith(context.Background(), Of("go", "rust", "go"),
		ToMap(func(s string) string { return s }, func(s string) int { return len(s) }, func(a, b int) int { return a + b }))
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, lengths, map[string]int{"go": 4, "rust": 4})
}

func TestCollectorValidation(t *testing.T) {
	_, err := CollectWith(context.Background(), Of(1), GroupingBy[int, int](nil))
	testutil.AssertErrorIs(t, err, gferrors.ErrInvalidArgument)

	_, err = CollectWith(context.Background(), Of(1), Collector[int, int, int]{})
	testutil.AssertErrorIs(t, err, gferrors.ErrInvalidArgument)

	_, err = CollectWith(context.Background(), Of("x"), ToTreeSet[string](nil))
	testutil.AssertErrorIs(t, err, gferrors.ErrInvalidArgument)
}

func TestToStack(t *testing.T) {
	stack, err := CollectWith(context.Background(), Of(1, 2, 3, 5), ToStack[int]())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, stack.Size(), 4)

	top, ok := stack.Peek()
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, top.(int), 5)
	testutil.AssertDeepEqual(t, stack.Values(), []interface{}{5, 3, 2, 1})
}

func TestToTreeSet(t *testing.T) {
	set, err := CollectWith(context.Background(), Of("pear", "apple", "fig", "apple"), ToTreeSet(strings.Compare))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, set.Size(), 3)
	testutil.AssertDeepEqual(t, set.Values(), []interface{}{"apple", "fig", "pear"})
}

func TestGroupingBySorted(t *testing.T) {
	m, err := CollectWith(context.Background(), Of("ccc", "a", "bb", "d"),
		GroupingBySorted(func(s string) int { return len(s) }, func(a, b int) int { return a - b }))
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, m.Keys(), []interface{}{1, 2, 3})

	ones, found := m.Get(1)
	testutil.AssertEqual(t, found, true)
	testutil.AssertSliceEqual(t, ones.([]string), []string{"a", "d"})
}
