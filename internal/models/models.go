// package models defines the data model for the authorization service
package models

import (
	"errors"
	"fmt"
	"time"
)

// Operation names a flow step, one per HTTP endpoint.
type Operation string

const (
	OperationLogin    Operation = "login"
	OperationCallback Operation = "callback"
	OperationAccess   Operation = "access"
	OperationRefresh  Operation = "refresh"
	OperationSession  Operation = "session"
)

// Outcome describes how a flow step ended.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeStateMismatch  Outcome = "state_mismatch"
	OutcomeProviderDenied Outcome = "provider_denied"
	OutcomeExchangeFailed Outcome = "exchange_failed"
	OutcomeNoop           Outcome = "noop"
	OutcomeInvalid        Outcome = "invalid"
	OutcomeError          Outcome = "error"
)

var ErrInvalidEvent = errors.New("invalid event")

// Event is an audit record of one flow step.
type Event struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	Operation Operation `json:"operation"`
	Outcome   Outcome   `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEvent creates an event stamped with the current UTC time.
func NewEvent(requestID string, op Operation, outcome Outcome, detail string) *Event {
	return &Event{
		RequestID: requestID,
		Operation: op,
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the operation and outcome are known.
func (e *Event) Validate() error {
	switch e.Operation {
	case OperationLogin, OperationCallback, OperationAccess, OperationRefresh, OperationSession:
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidEvent, e.Operation)
	}

	switch e.Outcome {
	case OutcomeOK, OutcomeStateMismatch, OutcomeProviderDenied, OutcomeExchangeFailed, OutcomeNoop, OutcomeInvalid, OutcomeError:
	default:
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidEvent, e.Outcome)
	}

	if e.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	}
	return nil
}
