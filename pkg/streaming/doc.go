/*
Package streaming groups the pipeline engine and its line-oriented adapters.

  - stream: Lazy pipelines with sequential or parallel evaluation
  - lines: Read an io.Reader or file as a stream of lines, and write a
    stream of lines through a buffered, retrying sink

Basic usage:

	n, err := lines.WriteTo(ctx,
		lines.FromFile("app.log").
			Filter(func(l string) bool { return strings.Contains(l, "ERROR") }),
		os.Stdout)

Every terminal operation takes a context.Context; cancelling it stops
evaluation and releases the source.
*/
package streaming
