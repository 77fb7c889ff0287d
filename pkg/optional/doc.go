/*
Package optional provides Optional, a container that either holds a value or
is empty.

Terminal sequence operations that may legitimately produce nothing, such as
FindFirst on an empty stream or a reduction without an identity, return an
Optional instead of a sentinel zero value:

	first, err := stream.Of("a", "b", "c").FindFirst(ctx)
	if err != nil {
		return err
	}
	value, err := first.Get() // errors.ErrNoSuchElement when empty

Unwrapping an empty Optional with Get reports errors.ErrNoSuchElement;
MustGet panics with the same error. OrElse, OrElseGet and IfPresent cover the
common cases without an error check.
*/
package optional
