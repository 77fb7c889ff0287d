/*
Package seqflow provides lazy, composable sequence pipelines for Go.

A pipeline is built from a source, a chain of deferred intermediate
operations and one terminal operation that pulls elements through the
chain. Nothing runs until the terminal operation is called, and only as
many source elements are read as the terminal needs.

Streaming (pkg/streaming):
  - stream: Sources, intermediate operations, terminals and collectors
  - lines: Line-oriented sources and a buffered line sink

Sources (pkg/sources):
  - schedule: Cron activation times as an infinite ordered stream
  - redislist: Paged Redis list and keyspace scans

Supporting packages:
  - optional: A value that may be absent, returned by short-circuiting terminals
  - execution/workerpool: The worker pool behind parallel evaluation
  - metrics: Prometheus instrumentation for terminals, pools and sinks

Example usage:

	import "github.com/vnykmshr/seqflow/pkg/streaming/stream"

	first, err := stream.Iterate(1, func(n int) int { return n * 3 }).
		Filter(func(n int) bool { return n > 100 }).
		FindFirst(ctx)
*/
package seqflow
