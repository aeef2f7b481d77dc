package gateway

import (
	"errors"
	"fmt"
)

// Failure kinds reported to callers.
const (
	KindUnavailable    = "unavailable"
	KindServiceFailure = "service_failure"
)

// ErrUnavailable means no credential is configured. Retrying will not help.
var ErrUnavailable = errors.New("gateway: analysis service not configured")

// ServiceError wraps a failed or unparseable call to the model. The user
// may retry.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: analysis service failure: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ErrorKind classifies err as KindUnavailable or KindServiceFailure, or
// returns "" for nil.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrUnavailable) {
		return KindUnavailable
	}
	return KindServiceFailure
}

// UserMessage is the short explanation shown next to a failed analysis.
func UserMessage(err error) string {
	switch ErrorKind(err) {
	case "":
		return ""
	case KindUnavailable:
		return "Analysis is unavailable: check credentials."
	default:
		return "Could not reach analysis service. Please try again."
	}
}
