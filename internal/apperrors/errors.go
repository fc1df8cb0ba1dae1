package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the authenticated user may not perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// Cash custody errors. Handlers translate these to HTTP statuses; the
// services return them with no partial effect (the enclosing DB
// transaction is rolled back).
var (
	// ErrDuplicateFloat is returned when a non-rejected float issuance
	// already exists for the collector and date.
	ErrDuplicateFloat = errors.New("float already issued for this collector and date")

	// ErrUnconfirmedFloat is returned when a collector attempts a cash
	// movement before confirming receipt of the day's float.
	ErrUnconfirmedFloat = errors.New("float not yet confirmed by collector")

	// ErrDayAlreadyClosed is returned for any ledger write after a
	// confirmed handover closed the collector's day.
	ErrDayAlreadyClosed = errors.New("day already closed for this collector")

	// ErrStaleBalance is returned when a concurrent append advanced the
	// collector's balance between read and write. Retryable: the caller
	// re-reads the balance and resubmits.
	ErrStaleBalance = errors.New("balance changed since it was read")

	// ErrInsufficientFloat is returned when a disbursement exceeds the
	// cash on hand or the remaining daily cap.
	ErrInsufficientFloat = errors.New("insufficient float available for disbursement")

	// ErrHandoverPending is returned for ledger writes while a handover
	// initiated by the collector awaits cashier confirmation.
	ErrHandoverPending = errors.New("a pending handover blocks new cash transactions")

	// ErrNotAuthorized is returned when the wrong actor attempts a
	// workflow step, e.g. a collector confirming someone else's float.
	ErrNotAuthorized = errors.New("actor not authorized for this action")
)

// AppError wraps a lower-level error with a status code and a stable
// message for logging.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
