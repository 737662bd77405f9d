// Package resilience provides the degradation policy, retry and circuit
// breaker patterns, and the error taxonomy shared by the recommendation
// engine and its external clients.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
)

// TransientError wraps an error that is safe to retry (e.g., 429, 5xx,
// network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// ValidationError marks malformed structured output from a reasoning step.
// Retried once, then the component falls back to its direct heuristic.
type ValidationError struct {
	Component string
	Err       error
}

func (e *ValidationError) Error() string {
	return e.Component + ": invalid structured output: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps a structured-output parse failure.
func NewValidationError(component string, err error) *ValidationError {
	return &ValidationError{Component: component, Err: err}
}

// ConsistencyError marks an internal contract violation between components.
// Fatal: the run is aborted and no partial recommendation is returned.
type ConsistencyError struct {
	Detail string
}

func (e *ConsistencyError) Error() string {
	return "consistency violation: " + e.Detail
}

// NewConsistencyError creates a fatal cross-component contract violation.
func NewConsistencyError(detail string) *ConsistencyError {
	return &ConsistencyError{Detail: detail}
}

// ConfigurationError marks invalid league configuration. Fatal at startup,
// before any component runs.
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Detail
}

// NewConfigurationError creates a startup configuration failure.
func NewConfigurationError(detail string) *ConfigurationError {
	return &ConfigurationError{Detail: detail}
}

// ErrInsufficientData signals that a component had no eligible inputs to work
// with. It is a non-fatal empty-result signal, not an exception path: the
// orchestrator converts it to an empty sequence and continues.
var ErrInsufficientData = eris.New("insufficient data for assessment")

// ErrDegraded signals that the retrieval backend is unavailable and the run
// is proceeding without historical context.
var ErrDegraded = eris.New("retrieval backend unavailable, degraded mode")

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient network error patterns.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry. 529 is Anthropic's
// overloaded status.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504, 529:
		return true
	default:
		return false
	}
}

// IsInsufficientData reports whether the error chain carries the
// empty-input signal.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

// IsValidation reports whether the error chain contains a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConsistency reports whether the error chain contains a ConsistencyError.
func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}

// IsConfiguration reports whether the error chain contains a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
