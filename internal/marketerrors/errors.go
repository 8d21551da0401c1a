// Package marketerrors defines the error taxonomy shared by the
// repository adapters, the composition service and the HTTP layer.
package marketerrors

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNotFound: the auction or vehicle does not exist. Callers must
	// surface this, never substitute placeholder data.
	ErrNotFound = errors.New("not found")

	// ErrDataIntegrity: an auction references a vehicle that cannot be
	// loaded. Distinct from ErrNotFound because it indicates a
	// referential inconsistency worth alerting on.
	ErrDataIntegrity = errors.New("referential inconsistency")

	// ErrStoreUnavailable: timeout or connection failure talking to the
	// store. Retryable; maps to a 5xx response.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// WrapStore classifies a raw store error, folding timeouts and
// connection failures into ErrStoreUnavailable so callers can match
// with errors.Is.
func WrapStore(op string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
