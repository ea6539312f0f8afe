package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Runtime errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrEventLogDisabled   = fmt.Errorf("event log disabled")

	// Input validation errors
	ErrInvalidFlag = fmt.Errorf("invalid flag value")
)
