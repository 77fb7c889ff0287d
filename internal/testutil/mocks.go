package testutil

import (
	"errors"
	"strings"
	"sync"
)

// ErrSimulated is returned by a MockWriter told to fail a specific write.
var ErrSimulated = errors.New("simulated write failure")

// MockWriter is an io.Writer standing in for files and sockets in sink
// tests. It records what it accepted and can fail or shorten writes.
type MockWriter struct {
	mu sync.Mutex

	data    strings.Builder
	calls   int
	failOn  int   // 1-based call that fails with ErrSimulated, 0 for none
	failAll error // returned by every call when set
	limit   int   // max bytes accepted per call, 0 for no limit
}

// NewMockWriter creates a writer that accepts everything.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write implements io.Writer. A limited writer reports a short write
// without an error, as a non-blocking socket would.
func (mw *MockWriter) Write(p []byte) (int, error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	mw.calls++
	switch {
	case mw.failAll != nil:
		return 0, mw.failAll
	case mw.failOn == mw.calls:
		return 0, ErrSimulated
	}

	if mw.limit > 0 && len(p) > mw.limit {
		p = p[:mw.limit]
	}
	return mw.data.Write(p)
}

// String returns everything written so far.
func (mw *MockWriter) String() string {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.data.String()
}

// Lines splits the written data on newlines, dropping a trailing empty line.
func (mw *MockWriter) Lines() []string {
	s := strings.TrimSuffix(mw.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Len returns the number of bytes written.
func (mw *MockWriter) Len() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.data.Len()
}

// WriteCount returns the number of Write calls, failed ones included.
func (mw *MockWriter) WriteCount() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.calls
}

// SetErrorOnNth makes the nth Write call, counting from 1, fail with ErrSimulated.
func (mw *MockWriter) SetErrorOnNth(n int) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.failOn = n
}

// SetAlwaysError makes every Write call fail with err.
func (mw *MockWriter) SetAlwaysError(err error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.failAll = err
}

// SetMaxWriteSize caps the bytes accepted by a single Write call.
func (mw *MockWriter) SetMaxWriteSize(n int) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.limit = n
}

// Reset discards written data, counters and configured failures.
func (mw *MockWriter) Reset() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.data.Reset()
	mw.calls = 0
	mw.failOn = 0
	mw.failAll = nil
	mw.limit = 0
}
