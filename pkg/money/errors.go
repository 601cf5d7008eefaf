package money

import "errors"

// Common money package errors
var (
	// ErrInvalidAmount is returned when an amount cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrTooManyDecimals is returned when an amount carries sub-cent precision.
	ErrTooManyDecimals = errors.New("amount has more than two decimal places")

	// ErrAmountOutOfRange is returned when an amount does not fit the storage range.
	ErrAmountOutOfRange = errors.New("amount out of range")
)
