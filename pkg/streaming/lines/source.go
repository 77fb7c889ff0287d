package lines

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"

	gferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/streaming/stream"
)

// MaxLineSize is the longest line a source accepts.
const MaxLineSize = 1024 * 1024

// FromReader returns a finite, ordered stream of the lines of r. The reader
// is not closed.
func FromReader(r io.Reader) stream.Stream[string] {
	if err := validation.ValidateNotNil("lines", "reader", r); err != nil {
		return stream.Fail[string](err)
	}
	src := &lineSource{open: func() (io.Reader, io.Closer, error) { return r, nil, nil }}
	return stream.NewWith[string](src, stream.Characteristics{Ordered: true, Size: stream.Finite})
}

// FromFile returns a finite, ordered stream of the lines of the named file.
func FromFile(path string) stream.Stream[string] {
	if err := validation.ValidateNotEmpty("lines", "path", path); err != nil {
		return stream.Fail[string](err)
	}
	src := &lineSource{open: func() (io.Reader, io.Closer, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	}}
	return stream.NewWith[string](src, stream.Characteristics{Ordered: true, Size: stream.Finite})
}

// lineSource scans lines, opening its input on the first pull.
type lineSource struct {
	open    func() (io.Reader, io.Closer, error)
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

func (s *lineSource) Next(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if s.scanner == nil {
		r, c, err := s.open()
		if err != nil {
			return "", false, gferrors.NewOperationError("lines", "open", err)
		}
		s.closer = c
		s.scanner = bufio.NewScanner(r)
		s.scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	}

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", false, gferrors.NewOperationError("lines", "Next", err).
				WithContext("after line " + strconv.Itoa(s.line))
		}
		return "", false, nil
	}
	s.line++
	return s.scanner.Text(), true, nil
}

func (s *lineSource) Close() error {
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}
