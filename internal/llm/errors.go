package llm

import (
	"errors"
	"fmt"
)

// Kind classifies a provider failure. The orchestrator records the kind in
// the run's issues; none of these are retried by the adapter itself.
type Kind string

const (
	KindTransport       Kind = "transport"
	KindBackend         Kind = "backend"
	KindTimeout         Kind = "timeout"
	KindDeserialization Kind = "deserialization"
)

// Error is the uniform provider failure type.
type Error struct {
	Kind     Kind
	Provider string
	Status   int    // HTTP status for backend errors
	Contract string // target contract for deserialization errors
	Message  string
	Response string // cleaned response text for deserialization diagnosis
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBackend:
		return fmt.Sprintf("%s backend error (status %d): %s", e.Provider, e.Status, e.Message)
	case KindTimeout:
		return fmt.Sprintf("%s request timeout: %s", e.Provider, e.Message)
	case KindDeserialization:
		return fmt.Sprintf("deserialize %s response into %s: %s", e.Provider, e.Contract, e.Message)
	default:
		return fmt.Sprintf("%s transport error: %s", e.Provider, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind, or empty when err is not a provider error.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}
