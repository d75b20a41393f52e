package interfaces

import "errors"

// Failure taxonomy for registry operations. Every failure aborts the whole
// operation with no state mutation and no fund movement.
var (
	// ErrPaymentMismatch is returned when the attached payment does not equal
	// the current price exactly, or when the payment could not be settled.
	ErrPaymentMismatch = errors.New("incorrect payment amount")

	// ErrAlreadyHasAccess is returned when the caller already holds an active
	// record or grant.
	ErrAlreadyHasAccess = errors.New("access already purchased")

	// ErrUnauthorized is returned when a non-owner calls an owner-only operation.
	ErrUnauthorized = errors.New("only the owner can call this operation")

	// ErrTransferFailed is returned when the withdrawal's fund-movement step
	// could not complete. The funds pool is left untouched.
	ErrTransferFailed = errors.New("funds transfer failed")
)
