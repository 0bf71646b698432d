package idempotency

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies store failures so callers can tell retryable conditions from fatal ones.
type Kind string

const (
	// KindConnectivity covers unreachable backends, authentication failures and timeouts.
	KindConnectivity Kind = "connectivity"

	// KindSerialization covers malformed stored payloads and records that cannot be encoded.
	KindSerialization Kind = "serialization"

	// KindConfiguration covers invalid store configuration, reported by New.
	KindConfiguration Kind = "configuration"

	// KindInvalidRecord covers records a caller tried to store that must never be persisted.
	KindInvalidRecord Kind = "invalid_record"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrConnectivity  = &Error{Kind: KindConnectivity}
	ErrSerialization = &Error{Kind: KindSerialization}
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrInvalidRecord = &Error{Kind: KindInvalidRecord}
)

// Error is returned by every Store operation and by New.
type Error struct {
	Kind    Kind
	Backend Backend
	Op      string
	Err     error
}

func (e *Error) Error() string {
	prefix := "idempotency"
	if e.Backend != "" {
		prefix += ": " + string(e.Backend)
	}
	if e.Op != "" {
		prefix += " " + e.Op
	}

	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", prefix, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", prefix, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels such as ErrConnectivity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.Op == "" && t.Backend == "" && t.Kind == e.Kind
}

// Retryable reports whether the same call may succeed later.
// Only connectivity failures qualify, and not when the caller canceled.
func (e *Error) Retryable() bool {
	return e.Kind == KindConnectivity && !errors.Is(e.Err, context.Canceled)
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}
	return ""
}

// IsRetryable reports whether err carries a retryable store failure.
func IsRetryable(err error) bool {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Retryable()
	}
	return false
}

func connectivityError(backend Backend, op string, err error) error {
	return &Error{Kind: KindConnectivity, Backend: backend, Op: op, Err: err}
}

func serializationError(backend Backend, op string, err error) error {
	return &Error{Kind: KindSerialization, Backend: backend, Op: op, Err: err}
}

func configurationError(backend Backend, err error) error {
	return &Error{Kind: KindConfiguration, Backend: backend, Op: "open", Err: err}
}

func invalidRecordError(backend Backend, op string, err error) error {
	return &Error{Kind: KindInvalidRecord, Backend: backend, Op: op, Err: err}
}
