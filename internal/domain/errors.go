package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrMarginRateMissing = errors.New("margin_rate_missing")
	ErrInvalidMultiplier = errors.New("invalid_multiplier")
	ErrAccountNotFound   = errors.New("account_not_found")
	ErrQueueFull         = errors.New("queue_full")
	ErrManagerStopped    = errors.New("manager_stopped")
	ErrWebhookNotFound   = errors.New("webhook_not_found")
	ErrOrderNotFound     = errors.New("order_not_found")
)

// IsConfigFault reports whether err is a configuration fault that must halt
// processing rather than be encoded in order state.
func IsConfigFault(err error) bool {
	return errors.Is(err, ErrMarginRateMissing) || errors.Is(err, ErrInvalidMultiplier)
}

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
