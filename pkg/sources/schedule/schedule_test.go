package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/vnykmshr/seqflow/internal/testutil"
	gferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/streaming/stream"
)

var base = time.Date(2024, time.March, 4, 10, 7, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2024, time.March, 4, hour, minute, 0, 0, time.UTC)
}

func TestActivations(t *testing.T) {
	got, err := Activations("*/15 * * * *", base).Limit(4).ToSlice(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, got, []time.Time{at(10, 15), at(10, 30), at(10, 45), at(11, 0)})
}

func TestActivationsAreIncreasing(t *testing.T) {
	got, err := Activations("@hourly", base).Limit(50).ToSlice(context.Background())
	testutil.AssertNoError(t, err)
	for i := 1; i < len(got); i++ {
		if !got[i].After(got[i-1]) {
			t.Fatalf("activation %d (%s) not after %s", i, got[i], got[i-1])
		}
	}
	testutil.AssertEqual(t, got[0], at(11, 0))
}

func TestActivationsWithSeconds(t *testing.T) {
	got, err := ActivationsWithSeconds("30 * * * * *", base).Limit(2).ToSlice(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, got, []time.Time{
		time.Date(2024, time.March, 4, 10, 7, 30, 0, time.UTC),
		time.Date(2024, time.March, 4, 10, 8, 30, 0, time.UTC),
	})
}

func TestActivationsInfinite(t *testing.T) {
	s := Activations("0 9 * * 1-5", base)
	testutil.AssertEqual(t, s.Characteristics().Size, stream.Infinite)

	_, err := s.ToSlice(context.Background())
	testutil.AssertErrorIs(t, err, gferrors.ErrUnsupportedOperation)
}

func TestBetween(t *testing.T) {
	n, err := Between("0 * * * *", at(0, 0), at(12, 0)).Count(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, int64(11))

	_, err = Between("0 * * * *", at(12, 0), at(0, 0)).Count(context.Background())
	testutil.AssertErrorIs(t, err, gferrors.ErrInvalidArgument)
}

func TestNeverFires(t *testing.T) {
	n, err := Activations("0 0 30 2 *", base).Count(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, int64(0))
}

func TestInvalidExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", ""},
		{"garbage", "every tuesday"},
		{"too many fields", "0 0 0 * * * *"},
		{"out of range", "61 * * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Activations(tt.expr, base).Limit(1).ToSlice(context.Background())
			testutil.AssertErrorIs(t, err, gferrors.ErrInvalidArgument)
		})
	}

	_, err := FromSchedule(nil, base).Limit(1).Count(context.Background())
	testutil.AssertErrorIs(t, err, gferrors.ErrInvalidArgument)
}

func TestTimeZone(t *testing.T) {
	first, err := Activations("CRON_TZ=Asia/Tokyo 0 9 * * *", base).FindFirst(context.Background())
	testutil.AssertNoError(t, err)
	tokyo, _ := time.LoadLocation("Asia/Tokyo")
	want := time.Date(2024, time.March, 5, 9, 0, 0, 0, tokyo)
	if !first.MustGet().Equal(want) {
		t.Errorf("first activation = %s, want %s", first.MustGet(), want)
	}
}
