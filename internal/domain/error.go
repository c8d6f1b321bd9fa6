package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrConflict           = errors.New("conflicting operation in progress")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// Billing errors
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrMonthlyNotActive      = errors.New("no active monthly period")
	ErrDepositEmpty          = errors.New("deposit balance is empty")
	ErrSubscriptionCancelled = errors.New("subscription is cancelled")
	ErrOpenPaymentRequest    = errors.New("an open payment request already exists")
	ErrInvalidTransition     = errors.New("invalid payment request transition")
	ErrSweepInProgress       = errors.New("sweep already in progress")
)

// Code maps a domain error to the stable API error code surfaced to clients.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrOpenPaymentRequest),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrMonthlyNotActive),
		errors.Is(err, ErrDepositEmpty),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrSubscriptionCancelled):
		return "CONFLICT"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	default:
		return "INTERNAL_ERROR"
	}
}
