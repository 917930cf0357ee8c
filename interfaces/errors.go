package interfaces

import (
	"context"
	"errors"
	"fmt"
)

// The provisioning error taxonomy. Every failure surfaced by the lifecycle
// controller belongs to exactly one of these types so that callers can
// distinguish configuration problems from connectivity problems from
// third-party artifact problems. None of them are retried internally;
// recovery is always caller-driven.

// PreconditionError reports a malformed or missing input contract, such as a
// wallet transport without a generic request capability. It is surfaced
// immediately and never retried.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return "precondition failed: " + e.Msg }

// NewPreconditionError creates a PreconditionError with a formatted message.
func NewPreconditionError(format string, args ...any) *PreconditionError {
	return &PreconditionError{Msg: fmt.Sprintf(format, args...)}
}

// ConnectivityError reports that an RPC endpoint or node could not be
// reached. It indicates a configuration problem rather than a legitimate
// fallback condition.
type ConnectivityError struct {
	Endpoint string
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("could not reach %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ValidationError reports malformed relayer metadata, a malformed contract
// address, or an SDK candidate failing the capability check. Terminal for
// the attempt it occurs in.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed: %s: %v", e.Msg, e.Err)
	}
	return "validation failed: " + e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError creates a ValidationError wrapping an optional cause.
func NewValidationError(err error, format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// LoadError reports a failure to fetch or activate the SDK artifact.
// Timeout distinguishes the load exceeding its upper bound from an ordinary
// fetch failure.
type LoadError struct {
	Msg     string
	Timeout bool
	Err     error
}

func (e *LoadError) Error() string {
	if e.Timeout {
		return "sdk load timed out: " + e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("sdk load failed: %s: %v", e.Msg, e.Err)
	}
	return "sdk load failed: " + e.Msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// UnsupportedNetworkError reports a chain id that is neither a valid mock
// environment nor a recognized remote network. Terminal, not a retry
// condition.
type UnsupportedNetworkError struct {
	ChainID uint64
}

func (e *UnsupportedNetworkError) Error() string {
	return fmt.Sprintf("chain id %d is not a supported FHE network", e.ChainID)
}

// AbortError marks work whose provisioning attempt was canceled. It must
// never reach the controller's error state; the controller discards it
// silently.
type AbortError struct {
	Reason string
}

func (e *AbortError) Error() string {
	if e.Reason == "" {
		return "provisioning attempt aborted"
	}
	return "provisioning attempt aborted: " + e.Reason
}

// NewAbortError creates an AbortError with the given reason.
func NewAbortError(reason string) *AbortError {
	return &AbortError{Reason: reason}
}

// IsAbort reports whether err represents a canceled attempt, either an
// explicit AbortError or a context cancellation bubbled up from a
// suspension point.
func IsAbort(err error) bool {
	var abort *AbortError
	if errors.As(err, &abort) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// ErrCacheMiss is returned by cache stores when no entry exists for a key.
var ErrCacheMiss = errors.New("cache entry not found")
