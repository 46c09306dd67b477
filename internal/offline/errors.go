// Package offline keeps mutating API calls durable across connectivity loss
// and replays them in order once the API is reachable again.
package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"

	apperrors "github.com/syedzayyan/pomonotes/internal/errors"
)

var (
	// ErrOffline is returned for reads attempted while the API is unreachable.
	ErrOffline = errors.New("offline")
	// ErrStoreUnavailable wraps failures of the durable queue itself.
	ErrStoreUnavailable = errors.New("request queue unavailable")
)

// StatusError is a non-2xx response from the API.
type StatusError struct {
	Status int
	API    *apperrors.APIError
}

func newStatusError(status int, body []byte) *StatusError {
	return &StatusError{Status: status, API: apperrors.Decode(status, body)}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.API.Error())
}

func (e *StatusError) Unwrap() error {
	return e.API
}

// Retryable reports whether replaying the same request later may succeed.
func (e *StatusError) Retryable() bool {
	switch {
	case e.Status >= http.StatusInternalServerError:
		return true
	case e.Status == http.StatusUnauthorized,
		e.Status == http.StatusRequestTimeout,
		e.Status == http.StatusTooManyRequests:
		return true
	}
	return false
}

// IsNetworkError reports whether err is a connectivity failure rather than an
// answer from the server. Context cancellation by the caller is not.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrOffline) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
