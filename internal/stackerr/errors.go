package stackerr

import (
	"fmt"
	"net/http"

	"github.com/containerd/errdefs"
)

// ConfigurationError reports malformed or inconsistent user input: a missing
// field, a duplicate id, a file whose type or extension does not match.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

// NewConfigurationError constructs a ConfigurationError.
func NewConfigurationError(field, message string, err error) error {
	return &ConfigurationError{Field: field, Message: message, Err: err}
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError reports a status document that fails its structural check.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AmbiguousResourceError is returned when more than one remote object could
// be adopted for a resource and the engine refuses to pick one.
type AmbiguousResourceError struct {
	Service string
	Name    string
	Matches int
}

func (e *AmbiguousResourceError) Error() string {
	return fmt.Sprintf("ambiguous target: %d %s share the name %q, refusing to choose one", e.Matches, e.Service, e.Name)
}

// UnsupportedServiceError is returned when a resource names a service no
// deployer handles.
type UnsupportedServiceError struct {
	Service string
}

func (e *UnsupportedServiceError) Error() string {
	return fmt.Sprintf("resource service %q not supported", e.Service)
}

// RemoteServiceError wraps a failed call to the platform API. It unwraps to
// the errdefs class matching the HTTP status, so errdefs.IsNotFound and
// friends work on it.
type RemoteServiceError struct {
	Method     string
	Path       string
	StatusCode int
	ErrorCode  string // e.g. RESOURCE_ALREADY_EXISTS
	Message    string
}

func (e *RemoteServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.ErrorCode != "" {
		return fmt.Sprintf("remote service error: %s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, e.ErrorCode, msg)
	}
	return fmt.Sprintf("remote service error: %s %s: %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// Unwrap returns the errdefs class of the failure.
func (e *RemoteServiceError) Unwrap() error {
	switch e.ErrorCode {
	case "RESOURCE_ALREADY_EXISTS":
		return errdefs.ErrAlreadyExists
	case "RESOURCE_DOES_NOT_EXIST":
		return errdefs.ErrNotFound
	case "INVALID_PARAMETER_VALUE", "MALFORMED_REQUEST":
		return errdefs.ErrInvalidArgument
	}

	switch {
	case e.StatusCode == http.StatusNotFound:
		return errdefs.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return errdefs.ErrAlreadyExists
	case e.StatusCode == http.StatusBadRequest:
		return errdefs.ErrInvalidArgument
	case e.StatusCode == http.StatusUnauthorized:
		return errdefs.ErrUnauthenticated
	case e.StatusCode == http.StatusForbidden:
		return errdefs.ErrPermissionDenied
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode == http.StatusServiceUnavailable:
		return errdefs.ErrUnavailable
	case e.StatusCode >= http.StatusInternalServerError:
		return errdefs.ErrInternal
	default:
		return errdefs.ErrUnknown
	}
}
