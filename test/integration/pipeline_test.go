package integration

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vnykmshr/seqflow/internal/testutil"
	"github.com/vnykmshr/seqflow/pkg/execution/workerpool"
	"github.com/vnykmshr/seqflow/pkg/metrics"
	"github.com/vnykmshr/seqflow/pkg/sources/schedule"
	"github.com/vnykmshr/seqflow/pkg/streaming/lines"
	"github.com/vnykmshr/seqflow/pkg/streaming/stream"
)

// writeLog creates a log file with n lines, every tenth one an error.
func writeLog(t *testing.T, n int) string {
	t.Helper()
	var sb strings.Builder
	for i := 0; i < n; i++ {
		level := "INFO"
		if i%10 == 0 {
			level = "ERROR"
		}
		sb.WriteString(level + " request " + strconv.Itoa(i) + "\n")
	}
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		t.Fatalf("failed to write log: %v", err)
	}
	return path
}

// TestFileToSinkParallel reads a file, filters and transforms it on a shared
// pool and writes the result through a buffered sink, checking order, logs
// and metrics end to end.
func TestFileToSinkParallel(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	path := writeLog(t, 1000)

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	reg := metrics.NewRegistry(prometheus.NewRegistry())

	pool, err := workerpool.NewWithConfig(workerpool.Config{
		Name:        "integration",
		WorkerCount: 4,
		QueueSize:   8,
		Logger:      logger,
		Metrics:     reg,
	})
	testutil.AssertNoError(t, err)
	defer func() { <-pool.Shutdown() }()

	config := stream.Config{
		Name:    "errors",
		Logger:  logger,
		Metrics: reg,
		Parallel: stream.ParallelConfig{
			ChunkSize: 16,
			Pool:      pool,
		},
	}

	out := testutil.NewMockWriter()
	sink, err := lines.NewSinkWithConfig(out, lines.Config{
		Name:       "report",
		BufferSize: 256,
		Logger:     logger,
		Metrics:    reg,
	})
	testutil.AssertNoError(t, err)

	errorsOnly := lines.FromFile(path).
		WithConfig(config).
		Parallel(0).
		Filter(func(line string) bool { return strings.HasPrefix(line, "ERROR") }).
		Map(strings.ToLower)

	written, err := sink.Drain(ctx, errorsOnly)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, sink.Close())
	testutil.AssertEqual(t, written, int64(100))

	got := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	want := make([]string, 0, 100)
	for i := 0; i < 1000; i += 10 {
		want = append(want, "error request "+strconv.Itoa(i))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sink output mismatch (-want +got):\n%s", diff)
	}

	if sink.Stats().FlushCount < 2 {
		t.Errorf("expected several flushes with a small buffer, got %d", sink.Stats().FlushCount)
	}
	testutil.AssertEqual(t, promtest.ToFloat64(reg.SinkLines.WithLabelValues("report")), float64(100))
	if promtest.ToFloat64(reg.ParallelChunks.WithLabelValues("errors")) == 0 {
		t.Error("expected parallel chunks to be recorded")
	}

	finished := logs.FilterMessage("terminal operation finished").All()
	if len(finished) != 1 {
		t.Fatalf("expected one terminal log entry, got %d", len(finished))
	}
	fields := finished[0].ContextMap()
	testutil.AssertEqual(t, fields["stream"], interface{}("errors"))
	testutil.AssertEqual(t, fields["elements"], interface{}(int64(100)))
}

// TestScheduleReport turns a cron schedule into report lines.
func TestScheduleReport(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 14)

	weekdays := schedule.Between("0 9 * * 1-5", from, to)
	report := stream.MapTo(weekdays, func(ts time.Time) string {
		return ts.Format("Mon 2006-01-02 15:04")
	})

	out := testutil.NewMockWriter()
	n, err := lines.WriteTo(ctx, report, out)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, int64(10))

	first, _, _ := strings.Cut(out.String(), "\n")
	testutil.AssertEqual(t, first, "Mon 2024-01-01 09:00")
}

// TestRoundTripStatistics writes numbers through a sink, reads them back and
// summarizes them.
func TestRoundTripStatistics(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	path := filepath.Join(t.TempDir(), "numbers.txt")
	f, err := os.Create(path)
	testutil.AssertNoError(t, err)

	_, err = lines.WriteTo(ctx, stream.MapTo(stream.RangeClosed(1, 100), strconv.Itoa), f)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, f.Close())

	numbers := stream.MapTo(lines.FromFile(path), func(line string) int {
		n, _ := strconv.Atoi(line)
		return n
	})
	stats, err := stream.SummaryStatistics(ctx, numbers)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, stats.Count, int64(100))
	testutil.AssertEqual(t, stats.Sum, 5050.0)
	testutil.AssertEqual(t, stats.Min, 1)
	testutil.AssertEqual(t, stats.Max, 100)
	testutil.AssertEqual(t, stats.Average(), 50.5)
}

// TestCancelledPipelineReleasesResources stops a parallel pipeline over an
// infinite source and relies on goleak to check nothing is left running.
func TestCancelledPipelineReleasesResources(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := stream.Iterate(0, func(n int) int { return n + 1 }).
		Parallel(4).
		Map(func(n int) int {
			time.Sleep(time.Millisecond)
			return n
		}).
		ForEach(ctx, func(int) {})
	testutil.AssertErrorIs(t, err, context.DeadlineExceeded)
}
