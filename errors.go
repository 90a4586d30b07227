package pension

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// Account errors
	ErrAccountNotFound = errors.New("pension: account not found")
	ErrInvalidAccount  = errors.New("pension: account id is required")
	ErrInvalidPercent  = errors.New("pension: monthly percent must be within 0..100")
	ErrInvalidAmount   = errors.New("pension: invalid amount")

	// Payout errors
	ErrNotYetEligible = errors.New("pension: not retired yet")
	ErrPayoutTooSoon  = errors.New("pension: payout interval has not elapsed")
	ErrTransferFailed = errors.New("pension: transfer failed")

	// Store errors
	ErrStoreNotReady   = errors.New("pension: store not ready")
	ErrStoreClosed     = errors.New("pension: store is closed")
	ErrMigrationFailed = errors.New("pension: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("pension: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap returns the sentinel the failure maps to, so errors.Is works.
func (e ValidationError) Unwrap() error {
	return e.Err
}

// TransferError wraps the error returned by the transfer collaborator.
// It matches ErrTransferFailed as well as the underlying cause.
type TransferError struct {
	AccountID string
	Amount    string
	Err       error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("pension: transfer of %s to %s failed: %v", e.Amount, e.AccountID, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *TransferError) Unwrap() []error {
	return []error{ErrTransferFailed, e.Err}
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

// IsValidation returns true if the request was rejected as malformed.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidPercent) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidAccount)
}

// IsEligibilityError returns true if a payout was refused because of timing.
func IsEligibilityError(err error) bool {
	return errors.Is(err, ErrNotYetEligible) ||
		errors.Is(err, ErrPayoutTooSoon)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
// Eligibility refusals such as ErrPayoutTooSoon are not retryable; see
// IsEligibilityError.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransferFailed) ||
		errors.Is(err, ErrStoreNotReady)
}
