// Package schedule exposes the activation times of cron expressions as
// streams. Activations are computed lazily with Schedule.Next, one per pull.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	gferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
	"github.com/vnykmshr/seqflow/pkg/streaming/stream"
)

var (
	// minute, hour, day of month, month, day of week, or a descriptor such as @hourly
	standardParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	// seconds, minute, hour, day of month, month, day of week
	secondsParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
)

// Parse parses a five-field cron expression or descriptor. A leading
// CRON_TZ=<zone> selects the time zone activations are computed in.
func Parse(expr string) (cron.Schedule, error) {
	return parse(standardParser, expr)
}

// ParseWithSeconds parses a six-field cron expression whose first field is seconds.
func ParseWithSeconds(expr string) (cron.Schedule, error) {
	return parse(secondsParser, expr)
}

func parse(parser cron.Parser, expr string) (cron.Schedule, error) {
	if err := validation.ValidateNotEmpty("schedule", "expression", expr); err != nil {
		return nil, err
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, gferrors.NewValidationError("schedule", "expression", expr, err.Error())
	}
	return sched, nil
}

// Activations returns the activation times of expr strictly after from, in
// order. The stream is infinite; bound it with Limit, TakeWhile or Between.
// A schedule that can never fire yields an empty stream.
func Activations(expr string, from time.Time) stream.Stream[time.Time] {
	sched, err := Parse(expr)
	if err != nil {
		return stream.Fail[time.Time](err)
	}
	return FromSchedule(sched, from)
}

// ActivationsWithSeconds is Activations for six-field expressions.
func ActivationsWithSeconds(expr string, from time.Time) stream.Stream[time.Time] {
	sched, err := ParseWithSeconds(expr)
	if err != nil {
		return stream.Fail[time.Time](err)
	}
	return FromSchedule(sched, from)
}

// FromSchedule returns the activation times of sched strictly after from.
func FromSchedule(sched cron.Schedule, from time.Time) stream.Stream[time.Time] {
	if err := validation.ValidateNotNil("schedule", "schedule", sched); err != nil {
		return stream.Fail[time.Time](err)
	}
	first := sched.Next(from)
	if first.IsZero() {
		// cron gives up after searching five years ahead.
		return stream.Empty[time.Time]()
	}
	return stream.Iterate(first, sched.Next)
}

// Between returns the activation times of expr in the half-open interval (from, to).
func Between(expr string, from, to time.Time) stream.Stream[time.Time] {
	if !to.After(from) {
		return stream.Fail[time.Time](gferrors.NewValidationError("schedule", "to", to,
			fmt.Sprintf("must be after %s", from.Format(time.RFC3339))))
	}
	return Activations(expr, from).TakeWhile(func(t time.Time) bool { return t.Before(to) })
}
