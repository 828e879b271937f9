package membership

import (
	"errors"
	"fmt"

	"triplea/internal/metrics"
)

var (
	ErrStoreUnavailable   = errors.New("membership store unavailable")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrNotFound           = errors.New("membership record not found")

	ErrPlanNotFound   = errors.New("plan not found")
	ErrInvalidMember  = errors.New("member id is required")
	ErrInvalidDate    = errors.New("invalid calendar date")
	ErrBackdatedStart = errors.New("start date is before today")

	ErrNoActiveMembership = errors.New("no active membership")
	ErrAlreadyInactive    = errors.New("membership already inactive")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrPaymentFailed      = errors.New("payment failed")
)

// IsRetryable reports whether err is transient and the call may be repeated.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrGatewayUnavailable)
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	metrics.RecordStoreError(op)
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
