package errors

import (
	"context"
	"errors"
)

// Status classifies the result of processing one unit of work.
type Status int

const (
	// Success means the unit was processed and persisted.
	Success Status = iota
	// Skip means the unit was dropped and its siblings continue.
	Skip
	// Fatal means the enclosing partition must stop.
	Fatal
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Skip:
		return "skip"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome pairs a Status with the error that produced it.
type Outcome struct {
	Status Status
	Err    error
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Status == Success
}

// Classify maps an error to the policy applied by the pipeline.
// Schema failures, transport failures and lookup misses skip the unit.
// Storage failures, partition aborts and cancellation are fatal.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Status: Success}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Outcome{Status: Fatal, Err: err}
	case errors.Is(err, ErrStorage):
		return Outcome{Status: Fatal, Err: err}
	case isPartition(err):
		return Outcome{Status: Fatal, Err: err}
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrTransport), errors.Is(err, ErrNotFound):
		return Outcome{Status: Skip, Err: err}
	default:
		return Outcome{Status: Fatal, Err: err}
	}
}

func isPartition(err error) bool {
	var pe *PartitionError
	return errors.As(err, &pe)
}

// Reason names the class of the error for log fields and metric labels.
func (o Outcome) Reason() string {
	switch {
	case o.Err == nil:
		return ""
	case errors.Is(o.Err, context.Canceled), errors.Is(o.Err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(o.Err, ErrInvalidInput):
		return "schema"
	case errors.Is(o.Err, ErrNotFound):
		return "not_found"
	case errors.Is(o.Err, ErrTransport):
		return "transport"
	case errors.Is(o.Err, ErrStorage):
		return "storage"
	default:
		return "error"
	}
}
