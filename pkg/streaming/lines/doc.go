/*
Package lines connects text to streams: FromReader and FromFile turn lines of
text into a Stream[string], and Sink writes a Stream[string] back out.

# Reading

	longest, err := stream.MaxNatural(ctx,
		stream.MapTo(lines.FromFile("access.log"), func(l string) int { return len(l) }))

Lines are split with bufio.ScanLines, so the trailing "\r" of CRLF input is
dropped. Read errors surface from the terminal operation as an
errors.OperationError. FromFile opens the file on the first pull and closes it
when the terminal operation ends.

# Writing

Sink buffers lines in memory and writes them to the underlying writer once
the buffer fills, on Flush, and on Close. Failed writes are retried:

	sink, err := lines.NewSinkWithConfig(os.Stdout, lines.Config{
		BufferSize: 64 * 1024,
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
	})
	n, err := sink.Drain(ctx, words)

# Monitoring

Stats reports lines, bytes, flushes and errors. OnFlush and OnError
callbacks, a zap logger and a metrics registry can be set on Config.
*/
package lines
