package lines

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	gferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/metrics"
	"github.com/vnykmshr/seqflow/pkg/streaming/stream"
)

// ErrSinkClosed is returned when writing to a closed sink. It wraps
// errors.ErrInvalidState.
var ErrSinkClosed = fmt.Errorf("%w: sink is closed", gferrors.ErrInvalidState)

// Stats holds statistics about a sink.
type Stats struct {
	// LinesWritten is the number of lines accepted.
	LinesWritten int64

	// BytesWritten is the number of bytes handed to the underlying writer.
	BytesWritten int64

	// FlushCount is the number of flushes that wrote data.
	FlushCount int64

	// ErrorCount is the number of failed flushes.
	ErrorCount int64

	// TotalFlushTime is the time spent writing to the underlying writer.
	TotalFlushTime time.Duration

	// LastWriteTime is when the last line was accepted.
	LastWriteTime time.Time

	// BufferUtilization is the current buffer fill (0.0 to 1.0).
	BufferUtilization float64
}

// Config holds configuration options for Sink.
type Config struct {
	// Name labels the sink in logs and metrics.
	Name string

	// BufferSize is the number of bytes buffered before a flush.
	// Default: 64KB
	BufferSize int

	// Separator is appended to every line.
	// Default: "\n"
	Separator string

	// MaxRetries is the number of times to retry a failed write.
	// Default: 3
	MaxRetries int

	// RetryDelay is the delay between retries.
	// Default: 100ms
	RetryDelay time.Duration

	// Logger receives failed flushes. Nil means no logging.
	Logger *zap.Logger

	// Metrics records flushes. Nil disables metrics.
	Metrics *metrics.Registry

	// OnError is called when a flush fails.
	OnError func(error)

	// OnFlush is called after each flush.
	OnFlush func(bytesWritten int, duration time.Duration)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Name:       "lines",
		BufferSize: 64 * 1024,
		Separator:  "\n",
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
	}
}

// Sink writes lines to an io.Writer through an in-memory buffer.
// It is safe for concurrent use.
type Sink struct {
	underlying io.Writer
	config     Config
	logger     *zap.Logger

	mu      sync.Mutex
	buffer  []byte
	pending int64
	closed  bool
	stats   Stats
}

// NewSink creates a sink with the default configuration.
func NewSink(w io.Writer) (*Sink, error) {
	return NewSinkWithConfig(w, DefaultConfig())
}

// NewSinkWithConfig creates a sink. Zero BufferSize, RetryDelay, Name and
// Separator take their defaults, as does a negative MaxRetries.
func NewSinkWithConfig(w io.Writer, config Config) (*Sink, error) {
	if err := validation.ValidateNotNil("lines", "writer", w); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	if config.Name == "" {
		config.Name = defaults.Name
	}
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.Separator == "" {
		config.Separator = defaults.Separator
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = defaults.RetryDelay
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sink{
		underlying: w,
		config:     config,
		logger:     logger.With(zap.String("sink", config.Name)),
		buffer:     make([]byte, 0, config.BufferSize),
	}, nil
}

// WriteLine buffers line followed by the separator, flushing first if the
// buffer would overflow.
func (s *Sink) WriteLine(ctx context.Context, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}

	size := len(line) + len(s.config.Separator)
	if len(s.buffer) > 0 && len(s.buffer)+size > cap(s.buffer) {
		if err := s.flushLocked(ctx); err != nil {
			return err
		}
	}

	s.buffer = append(s.buffer, line...)
	s.buffer = append(s.buffer, s.config.Separator...)
	s.pending++
	s.stats.LinesWritten++
	s.stats.LastWriteTime = time.Now()
	return nil
}

// Flush writes all buffered lines to the underlying writer.
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	return s.flushLocked(ctx)
}

// Close flushes remaining lines and stops accepting new ones. If the final
// flush fails the sink stays open with the unwritten bytes buffered, so
// Close or Flush can be called again.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if err := s.flushLocked(context.Background()); err != nil {
		return err
	}
	s.closed = true
	return nil
}

// IsClosed returns true if the sink is closed.
func (s *Sink) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Stats returns a snapshot of the sink's statistics.
func (s *Sink) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	if cap(s.buffer) > 0 {
		stats.BufferUtilization = float64(len(s.buffer)) / float64(cap(s.buffer))
	}
	return stats
}

// Drain writes every element of src and flushes. It returns the number of
// lines written; a write error stops the stream.
func (s *Sink) Drain(ctx context.Context, src stream.Stream[string]) (int64, error) {
	var n int64
	for line, err := range src.All(ctx) {
		if err != nil {
			return n, err
		}
		if err := s.WriteLine(ctx, line); err != nil {
			return n, err
		}
		n++
	}
	return n, s.Flush(ctx)
}

// WriteTo drains src into w through a default sink and closes the sink.
func WriteTo(ctx context.Context, src stream.Stream[string], w io.Writer) (int64, error) {
	sink, err := NewSink(w)
	if err != nil {
		_ = src.Close()
		return 0, err
	}
	n, err := sink.Drain(ctx, src)
	if closeErr := sink.Close(); err == nil {
		err = closeErr
	}
	return n, err
}

func (s *Sink) flushLocked(ctx context.Context) error {
	if len(s.buffer) == 0 {
		return nil
	}

	start := time.Now()
	written, err := s.writeWithRetries(ctx, s.buffer)
	duration := time.Since(start)

	lines := s.pending
	if err == nil {
		s.buffer = s.buffer[:0]
		s.pending = 0
	} else {
		// Keep what was not written so a later flush can retry it.
		s.buffer = append(s.buffer[:0], s.buffer[written:]...)
		lines = 0
	}

	s.stats.FlushCount++
	s.stats.BytesWritten += int64(written)
	s.stats.TotalFlushTime += duration
	s.config.Metrics.ObserveFlush(s.config.Name, lines, int64(written))

	if s.config.OnFlush != nil {
		s.config.OnFlush(written, duration)
	}

	if err != nil {
		s.stats.ErrorCount++
		err = gferrors.NewOperationError("lines", "Flush", err).
			WithContext(fmt.Sprintf("%d of %d bytes written", written, written+len(s.buffer)))
		s.logger.Warn("flush failed", zap.Int("bytes_written", written), zap.Error(err))
		if s.config.OnError != nil {
			s.config.OnError(err)
		}
	}
	return err
}

// writeWithRetries writes data with retry logic.
func (s *Sink) writeWithRetries(ctx context.Context, data []byte) (int, error) {
	var totalWritten int
	var lastErr error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.config.RetryDelay):
			case <-ctx.Done():
				return totalWritten, ctx.Err()
			}
		}

		written, err := s.underlying.Write(data[totalWritten:])
		totalWritten += written

		if err != nil {
			lastErr = err
			continue
		}

		if totalWritten >= len(data) {
			return totalWritten, nil
		}
	}

	if lastErr == nil {
		lastErr = io.ErrShortWrite
	}
	return totalWritten, lastErr
}
