// Package metrics provides Prometheus instrumentation for seqflow components.
//
// A Registry owns the collectors for stream evaluations, worker pools and
// line sinks. Components take a *Registry in their configuration; a nil
// registry disables collection, so instrumentation costs nothing unless it
// is asked for.
//
// # Quick Start
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewRegistry(reg)
//
//	cfg := stream.DefaultConfig()
//	cfg.Name = "orders"
//	cfg.Metrics = m
//
//	n, err := stream.FromSlice(orders).WithConfig(cfg).Count(ctx)
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # Metrics
//
// Stream evaluation (labels operation, stream_name):
//   - seqflow_stream_terminal_operations_total
//   - seqflow_stream_elements_total
//   - seqflow_stream_errors_total
//   - seqflow_stream_terminal_duration_seconds
//   - seqflow_stream_parallel_chunks_total (label stream_name)
//
// Worker pools (label pool_name):
//   - seqflow_workerpool_size, seqflow_workerpool_active_workers, seqflow_workerpool_queued_tasks
//   - seqflow_workerpool_tasks_executed_total, seqflow_workerpool_tasks_failed_total
//   - seqflow_workerpool_task_duration_seconds
//
// Line sinks (label sink_name):
//   - seqflow_sink_lines_written_total, seqflow_sink_bytes_written_total, seqflow_sink_flushes_total
package metrics
