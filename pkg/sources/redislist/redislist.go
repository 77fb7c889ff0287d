package redislist

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	gferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/streaming/stream"
)

// DefaultPageSize is used when a page size of zero is given.
const DefaultPageSize = 100

const module = "redislist"

// FromList streams the elements of the list at key from head to tail,
// fetching pageSize elements per LRANGE. A missing key is an empty list.
func FromList(client redis.Cmdable, key string, pageSize int64) stream.Stream[string] {
	if err := validateArgs(client, "key", key, pageSize); err != nil {
		return stream.Fail[string](err)
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	src := &listSource{client: client, key: key, pageSize: pageSize}
	return stream.NewWith[string](src, stream.Characteristics{Ordered: true, Size: stream.Finite})
}

// FromScan streams the keys matching pattern using SCAN with the given
// count hint. SCAN may report a key more than once; apply Distinct when
// that matters. The order of keys is unspecified.
func FromScan(client redis.Cmdable, pattern string, count int64) stream.Stream[string] {
	if err := validateArgs(client, "pattern", pattern, count); err != nil {
		return stream.Fail[string](err)
	}
	if count == 0 {
		count = DefaultPageSize
	}
	src := &scanSource{client: client, pattern: pattern, count: count}
	return stream.NewWith[string](src, stream.Characteristics{Ordered: false, Size: stream.Finite})
}

func validateArgs(client redis.Cmdable, field, value string, size int64) error {
	return validation.FirstError(
		validation.ValidateNotNil(module, "client", client),
		validation.ValidateNotEmpty(module, field, value),
		validation.ValidateCount(module, "page size", size),
	)
}

// page buffers one round trip worth of elements.
type page struct {
	items []string
	pos   int
	done  bool
}

func (p *page) pop() (string, bool) {
	if p.pos >= len(p.items) {
		return "", false
	}
	v := p.items[p.pos]
	p.pos++
	return v, true
}

func (p *page) reset(items []string) {
	p.items = items
	p.pos = 0
}

type listSource struct {
	client   redis.Cmdable
	key      string
	pageSize int64
	offset   int64
	page
}

func (s *listSource) Next(ctx context.Context) (string, bool, error) {
	for {
		if v, ok := s.pop(); ok {
			return v, true, nil
		}
		if s.done {
			return "", false, nil
		}

		items, err := s.client.LRange(ctx, s.key, s.offset, s.offset+s.pageSize-1).Result()
		if err != nil {
			s.done = true
			return "", false, gferrors.NewOperationError(module, "LRANGE", err).
				WithContext(fmt.Sprintf("key %q at offset %d", s.key, s.offset))
		}
		s.offset += int64(len(items))
		s.done = int64(len(items)) < s.pageSize
		s.reset(items)
	}
}

func (s *listSource) Close() error {
	s.done = true
	s.reset(nil)
	return nil
}

type scanSource struct {
	client  redis.Cmdable
	pattern string
	count   int64
	cursor  uint64
	started bool
	page
}

func (s *scanSource) Next(ctx context.Context) (string, bool, error) {
	for {
		if v, ok := s.pop(); ok {
			return v, true, nil
		}
		// A zero cursor after the first call means the iteration is complete.
		if s.done || (s.started && s.cursor == 0) {
			return "", false, nil
		}

		keys, cursor, err := s.client.Scan(ctx, s.cursor, s.pattern, s.count).Result()
		if err != nil {
			s.done = true
			return "", false, gferrors.NewOperationError(module, "SCAN", err).
				WithContext(fmt.Sprintf("pattern %q at cursor %d", s.pattern, s.cursor))
		}
		s.started = true
		s.cursor = cursor
		s.reset(keys)
	}
}

func (s *scanSource) Close() error {
	s.done = true
	s.reset(nil)
	return nil
}
