package auth

import "errors"

// StateMismatchMessage is returned to the client when the callback state does not match the pending login.
const StateMismatchMessage = "The generated state doesn't match the received one, watch out for cross-site request forgery attacks!"

var (
	ErrStateMismatch       = errors.New("state mismatch")
	ErrProviderDenied      = errors.New("provider denied authorization")
	ErrTokenExchangeFailed = errors.New("token exchange failed")
	ErrMissingCredentials  = errors.New("client_id and client_secret are required")
)

// CallbackError is a user-facing callback validation failure.
//
// Message is safe to return to the client; Kind is [ErrStateMismatch] or [ErrProviderDenied].
type CallbackError struct {
	Kind    error
	Message string
}

func (e *CallbackError) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *CallbackError) Unwrap() error {
	return e.Kind
}
