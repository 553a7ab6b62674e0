package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrIllegalTransition is returned when a swap is driven through a transition its state does not allow
	ErrIllegalTransition = errors.New("illegal swap transition")

	// ErrTransitionInFlight is returned when a transition for the same swap is already pending
	ErrTransitionInFlight = errors.New("swap transition already in flight")
)

// ValidationError is a blocking pre-flight error. It is never sent to the server.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s (%s)", e.Message, strings.Join(e.Fields, ", "))
}

// ServiceError is a recoverable failure reported by, or on the way to, the schedule service
type ServiceError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// PermissionError rejects an action above the caller's permission tier
type PermissionError struct {
	Action   string
	Required int
	Actual   int
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s requires tier %d, caller has tier %d", e.Action, e.Required, e.Actual)
}

// RollbackWindowExpiredError rejects a rollback after the window has closed
type RollbackWindowExpiredError struct {
	SwapID     string
	ExecutedAt time.Time
	Window     time.Duration
}

func (e *RollbackWindowExpiredError) Error() string {
	return fmt.Sprintf("rollback window of %s expired for swap %s (executed %s)",
		e.Window, e.SwapID, e.ExecutedAt.UTC().Format(time.RFC3339))
}

// UserMessage returns a human-readable message for any error, preferring the
// service's own message so banners upstream read the same as the server.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return err.Error()
}
