/*
Package workerpool runs tasks on a fixed number of goroutines.

The stream package uses a Pool to evaluate chunks of a parallel pipeline;
callers that run many parallel evaluations can share one Pool between them
through stream.ParallelConfig.Pool instead of paying for a new pool per
evaluation.

Basic usage:

	pool := workerpool.New(4, 16) // 4 workers, queue size 16
	defer func() { <-pool.Shutdown() }()

	err := pool.Submit(workerpool.TaskFunc(func(ctx context.Context) error {
		return process(ctx)
	}))

Shutdown stops intake, lets queued tasks finish, and closes the returned
channel once every worker has exited. A panicking task is recovered, logged,
and reported as a failed Result to Config.OnTaskComplete.
*/
package workerpool
