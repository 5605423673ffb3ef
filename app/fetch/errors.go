package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Kind buckets upstream failures so callers can decide what is retryable and
// what must surface immediately.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindAuthRequired
	KindRateLimited
	KindRejected
	KindNoData
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthRequired:
		return "auth_required"
	case KindRateLimited:
		return "rate_limited"
	case KindRejected:
		return "rejected"
	case KindNoData:
		return "no_data"
	case KindTransient:
		return "transient"
	default:
		return "unexpected"
	}
}

// FetchError is the single failure type produced by all adapters. The cause
// text is preserved for the channel's last_error field.
type FetchError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, format string, args ...any) *FetchError {
	return &FetchError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, cause error, format string, args ...any) *FetchError {
	return &FetchError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the failure kind, defaulting to KindUnexpected.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnexpected
}

// classifyNetworkError types errors once at the HTTP boundary. Local socket
// exhaustion (the address-reuse failure), dial/DNS trouble and timeouts all
// classify as transient; context cancellation is passed through untouched.
func classifyNetworkError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if errors.Is(err, syscall.EADDRINUSE) || errors.Is(err, syscall.EADDRNOTAVAIL) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return wrapError(KindTransient, err, "%s: transient network failure", op)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return wrapError(KindTransient, err, "%s: DNS failure", op)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return wrapError(KindTransient, err, "%s: timeout", op)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return wrapError(KindTransient, err, "%s: connection failure", op)
	}

	return wrapError(KindUnexpected, err, "%s: request failed", op)
}

// httpStatusError carries a non-2xx status so adapters can map specific codes
// (429, 401/403) onto their own kinds.
type httpStatusError struct {
	StatusCode int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func statusCodeOf(err error) (int, bool) {
	var se *httpStatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}
