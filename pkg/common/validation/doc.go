// Package validation checks the arguments handed to sequence sources,
// operations and executors, reporting failures as errors.ValidationError so
// that callers can match them with errors.Is(err, errors.ErrInvalidArgument).
package validation
