package forms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// State is the lifecycle position of a form instance.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions lists every legal edge of the lifecycle.
var transitions = map[State][]State{
	Idle:       {Validating},
	Validating: {Idle, Submitting},
	Submitting: {Succeeded, Failed},
	Failed:     {Idle},
	Succeeded:  {Idle},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var (
	// ErrSubmissionInFlight is returned when Submit is called while a previous
	// submission of the same instance is still validating or being delivered.
	ErrSubmissionInFlight = errors.New("forms: submission already in flight")
	// ErrAlreadySubmitted is returned when Submit is called on a succeeded instance
	// that has not been reset.
	ErrAlreadySubmitted = errors.New("forms: form already submitted")
	// ErrTransport marks delivery failures; match with errors.Is.
	ErrTransport = errors.New("forms: delivery failed")
)

// TransportError wraps the cause of a failed delivery.
type TransportError struct {
	Form string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("forms: deliver %s: %v", e.Form, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTransport) match any TransportError.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Transport delivers a validated submission to its sink. Implementations must send at
// most once per call; retries are not performed.
type Transport interface {
	Deliver(ctx context.Context, schema *Schema, sub Submission) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, schema *Schema, sub Submission) error

// Deliver calls f.
func (f TransportFunc) Deliver(ctx context.Context, schema *Schema, sub Submission) error {
	return f(ctx, schema, sub)
}

// Observer receives lifecycle events, e.g. for metrics. Transition is called with the
// instance lock held and must not call back into the instance.
type Observer interface {
	Transition(form string, from, to State)
	Delivered(form string, elapsed time.Duration, err error)
}

// InstanceOption customises an Instance.
type InstanceOption func(*Instance)

// WithObserver attaches an observer to the instance.
func WithObserver(o Observer) InstanceOption {
	return func(i *Instance) {
		if o != nil {
			i.observer = o
		}
	}
}

// Instance is one form as seen by one visitor: its schema, its transport, and the
// single-flight lifecycle guarding delivery.
type Instance struct {
	schema    *Schema
	transport Transport
	observer  Observer

	mu      sync.Mutex
	state   State
	values  Submission
	lastErr error
}

// NewInstance binds schema to transport.
func NewInstance(schema *Schema, transport Transport, opts ...InstanceOption) *Instance {
	inst := &Instance{schema: schema, transport: transport, observer: nopObserver{}}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// Schema returns the bound schema.
func (i *Instance) Schema() *Schema { return i.schema }

// State returns the current lifecycle state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Values returns a copy of the input retained by the instance: the last submission
// while idle or after a failure, nothing after success.
func (i *Instance) Values() Submission {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.values.Clone()
}

// LastError returns the error of the most recent failed delivery, cleared by the next
// submission.
func (i *Instance) LastError() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastErr
}

// Submit validates sub and, when valid, delivers it exactly once.
//
// It returns nil on success, *ValidationError when fields fail (the transport is not
// called), an error matching ErrTransport when delivery fails, and
// ErrSubmissionInFlight or ErrAlreadySubmitted when the lifecycle forbids a new
// attempt. Validation and delivery failures leave the instance Idle with the input
// retained; success leaves it Succeeded with the input cleared.
func (i *Instance) Submit(ctx context.Context, sub Submission) error {
	i.mu.Lock()
	switch i.state {
	case Validating, Submitting:
		i.mu.Unlock()
		return ErrSubmissionInFlight
	case Succeeded:
		i.mu.Unlock()
		return ErrAlreadySubmitted
	}
	i.values = sub.Clone()
	i.lastErr = nil
	i.transition(Validating)
	i.mu.Unlock()

	if errs := i.schema.Validate(sub); len(errs) > 0 {
		i.mu.Lock()
		i.transition(Idle)
		i.mu.Unlock()
		return &ValidationError{Form: i.schema.Name, Errors: errs}
	}

	i.mu.Lock()
	i.transition(Submitting)
	i.mu.Unlock()

	ctx, span := otel.Tracer("merchanthaus.com/web/internal/forms").Start(ctx, "forms.Deliver")
	span.SetAttributes(attribute.String("form.name", i.schema.Name))
	start := time.Now()
	err := i.transport.Deliver(ctx, i.schema, sub)
	i.observer.Delivered(i.schema.Name, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
	}
	span.End()

	i.mu.Lock()
	defer i.mu.Unlock()
	if err != nil {
		i.lastErr = err
		i.transition(Failed)
		i.transition(Idle)
		return &TransportError{Form: i.schema.Name, Err: err}
	}
	i.values = nil
	i.transition(Succeeded)
	return nil
}

// Reset returns a succeeded or idle instance to Idle with cleared input. It refuses
// while a submission is in flight.
func (i *Instance) Reset() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	switch i.state {
	case Validating, Submitting:
		return ErrSubmissionInFlight
	case Succeeded:
		i.transition(Idle)
	}
	i.values = nil
	i.lastErr = nil
	return nil
}

// transition must be called with mu held.
func (i *Instance) transition(to State) {
	from := i.state
	if !CanTransition(from, to) {
		panic(fmt.Sprintf("forms: illegal transition %s -> %s", from, to))
	}
	i.state = to
	i.observer.Transition(i.schema.Name, from, to)
}

type nopObserver struct{}

func (nopObserver) Transition(string, State, State)          {}
func (nopObserver) Delivered(string, time.Duration, error) {}
