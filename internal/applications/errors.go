package applications

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNotFound is returned by stores for unknown application ids.
	ErrNotFound = errors.New("applications: not found")
	// ErrConflict is returned when an application id is already taken.
	ErrConflict = errors.New("applications: already exists")
)

// Reason classifies a store failure.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonNotFound
	ReasonConflict
	// ReasonUnavailable marks failures worth retrying later.
	ReasonUnavailable
)

func (r Reason) String() string {
	switch r {
	case ReasonNotFound:
		return "not_found"
	case ReasonConflict:
		return "conflict"
	case ReasonUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// StoreError wraps a backend failure with the operation and its Reason.
type StoreError struct {
	Op     string
	Reason Reason
	Err    error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Reason.String() + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is matches ErrNotFound and ErrConflict by reason.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Reason == ReasonNotFound
	case ErrConflict:
		return e.Reason == ReasonConflict
	}
	return false
}

// Temporary reports whether the same write may succeed later.
func (e *StoreError) Temporary() bool { return e.Reason == ReasonUnavailable }

// ReasonOf returns the Reason carried by err, or ReasonUnknown.
func ReasonOf(err error) Reason {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ReasonUnknown
}

// fromGRPC classifies a Firestore error by its status code. Cancellation and deadlines
// surface as the context errors.
func fromGRPC(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	reason := ReasonUnknown
	switch status.Code(err) {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	case codes.NotFound:
		reason = ReasonNotFound
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted:
		reason = ReasonConflict
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal:
		reason = ReasonUnavailable
	}
	return &StoreError{Op: op, Reason: reason, Err: err}
}

// fromSQL classifies a SQLite error by sentinel and driver message.
func fromSQL(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	reason := ReasonUnknown
	msg := err.Error()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		reason = ReasonNotFound
	case strings.Contains(msg, "UNIQUE constraint failed"), strings.Contains(msg, "PRIMARY KEY"):
		reason = ReasonConflict
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		reason = ReasonUnavailable
	}
	return &StoreError{Op: op, Reason: reason, Err: err}
}
