// Package client runs the attendee-facing registration workflow: validate the
// form locally, deliver it to the configured sinks and offer the next steps.
package client

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spiritrise/yogacamp/internal/models"
	"github.com/spiritrise/yogacamp/internal/registrations"
	"github.com/spiritrise/yogacamp/internal/sinks"
)

// State of the registration form.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	SucceededNew
	SucceededDuplicate
	Failed
)

func (s State) String() string {
	return [...]string{"idle", "validating", "submitting", "succeeded_new", "succeeded_duplicate", "failed"}[s]
}

var (
	// ErrBusy is returned when a submission is already in flight.
	ErrBusy = errors.New("a registration is already being submitted")
	// ErrSubmissionFailed is returned when the delivery policy was not met.
	ErrSubmissionFailed = errors.New("Registration failed. Please check your details and try again.")
)

// ValidationError carries per-field messages for display next to the inputs.
type ValidationError struct {
	Fields registrations.FieldErrors
}

func (e *ValidationError) Error() string { return e.Fields.Error() }

// Deliverer sends a validated registration to its destinations.
type Deliverer interface {
	Broadcast(ctx context.Context, reg models.Registration) sinks.Report
}

// Submission is what the attendee sees after a successful registration.
type Submission struct {
	Registration      models.Registration
	AlreadyRegistered bool
	Message           string
	NextSteps         *NextSteps
}

// Form is safe for concurrent use; only one submission runs at a time.
type Form struct {
	mu     sync.Mutex
	state  State
	draft  models.Input
	policy registrations.Policy
	out    Deliverer
	links  Links
	logger *zap.Logger
}

func NewForm(out Deliverer, policy registrations.Policy, links Links, logger *zap.Logger) *Form {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Form{out: out, policy: policy, links: links, logger: logger}
}

// State returns the current state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns the last input that was not accepted, so it can be corrected.
func (f *Form) Draft() models.Input {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Reset returns a finished form to Idle.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Validating && f.state != Submitting {
		f.state = Idle
	}
}

func (f *Form) set(s State) {
	f.mu.Lock()
	f.logger.Debug("form state", zap.Stringer("from", f.state), zap.Stringer("to", s))
	f.state = s
	f.mu.Unlock()
}

// Submit validates in and, when valid, delivers it. Invalid input never reaches a sink.
func (f *Form) Submit(ctx context.Context, in models.Input) (*Submission, error) {
	f.mu.Lock()
	if f.state == Validating || f.state == Submitting {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	f.state = Validating
	f.draft = in
	f.mu.Unlock()

	reg, fieldErrs := registrations.Validate(in, f.policy)
	if len(fieldErrs) > 0 {
		f.set(Idle)
		return nil, &ValidationError{Fields: fieldErrs}
	}

	f.set(Submitting)
	report := f.out.Broadcast(ctx, reg)
	if !report.OK {
		f.set(Failed)
		f.logger.Warn("registration submission failed",
			zap.String("contact", registrations.MaskContact(reg.ContactKey)),
			zap.Int("failed_sinks", len(report.Failures())))
		return nil, ErrSubmissionFailed
	}

	sub := &Submission{
		Registration:      reg,
		AlreadyRegistered: report.AlreadyRegistered(),
		Message:           report.Message(),
		NextSteps:         newNextSteps(f.links),
	}
	if sub.Message == "" {
		sub.Message = reg.Name + " successfully registered for yoga camp!"
		if sub.AlreadyRegistered {
			sub.Message = reg.Name + " is already registered for yoga camp"
		}
	}

	f.mu.Lock()
	f.draft = models.Input{}
	f.mu.Unlock()
	if sub.AlreadyRegistered {
		f.set(SucceededDuplicate)
	} else {
		f.set(SucceededNew)
	}
	return sub, nil
}
