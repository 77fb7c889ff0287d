package stream

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/execution/workerpool"
	"github.com/vnykmshr/seqflow/pkg/metrics"
)

// DefaultChunkSize is the number of elements handed to a worker at once in
// parallel mode.
const DefaultChunkSize = 64

// Config controls how a stream is evaluated. It is copied onto every handle
// derived from the stream it is set on.
type Config struct {
	// Name labels the stream in logs and metrics.
	Name string

	// Logger receives one debug entry per terminal operation and a warning
	// per failed one. Nil means no logging.
	Logger *zap.Logger

	// Metrics records terminal operations. Nil disables metrics.
	Metrics *metrics.Registry

	// Parallel configures parallel evaluation of stateless stages.
	Parallel ParallelConfig
}

// ParallelConfig configures parallel evaluation.
type ParallelConfig struct {
	// Enabled switches stateless stages to the worker pool.
	Enabled bool

	// Workers is the number of workers. 0 means runtime.GOMAXPROCS(0).
	Workers int

	// ChunkSize is the number of elements per task. 0 means DefaultChunkSize.
	ChunkSize int

	// Pool runs the tasks. Nil means a pool is created for each terminal
	// operation and shut down when it returns.
	Pool workerpool.Pool
}

// DefaultConfig returns a sequential configuration without logging or metrics.
func DefaultConfig() Config {
	return Config{
		Name: "stream",
	}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c Config) name() string {
	if c.Name == "" {
		return "stream"
	}
	return c.Name
}

func (c ParallelConfig) validate() error {
	if c.Workers < 0 {
		return validation.ValidateCount("stream", "Parallel.Workers", int64(c.Workers))
	}
	if c.ChunkSize < 0 {
		return validation.ValidateCount("stream", "Parallel.ChunkSize", int64(c.ChunkSize))
	}
	return nil
}

func (c ParallelConfig) workers() int {
	if c.Pool != nil {
		return c.Pool.Size()
	}
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c ParallelConfig) chunkSize() int {
	if c.ChunkSize > 0 {
		return c.ChunkSize
	}
	return DefaultChunkSize
}

// WithConfig implementation
func (s *stream[T]) WithConfig(config Config) Stream[T] {
	return &stream[T]{
		pipe:   s.pipe,
		node:   s.node,
		open:   s.open,
		config: config,
	}
}

// Parallel implementation
func (s *stream[T]) Parallel(workers int) Stream[T] {
	cfg := s.config
	cfg.Parallel.Enabled = true
	cfg.Parallel.Workers = workers
	if workers < 0 {
		cfg.Parallel.Workers = 0
	}
	return s.WithConfig(cfg)
}

// Sequential implementation
func (s *stream[T]) Sequential() Stream[T] {
	cfg := s.config
	cfg.Parallel.Enabled = false
	return s.WithConfig(cfg)
}
