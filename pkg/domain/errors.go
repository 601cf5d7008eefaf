// Package domain holds the error taxonomy shared by every ledger component.
//
// Each specific error wraps exactly one or more taxonomy sentinels, so callers
// can match either precisely (errors.Is(err, ErrUserNotFound)) or broadly
// (errors.Is(err, ErrNotFound)).
package domain

import (
	"errors"
	"fmt"

	"github.com/amirasaad/codepay/pkg/money"
)

// Taxonomy sentinels
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned when the current state forbids the requested change
	ErrConflict = errors.New("conflict")
	// ErrInsufficientFunds is returned when a debit would cross an account floor
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidArgument is returned when input validation fails
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrExpired is returned when a payment code is past its expiry
	ErrExpired = errors.New("expired")
	// ErrLimitExceeded is returned when an amount is above a configured cap
	ErrLimitExceeded = errors.New("limit exceeded")
)

// Error is a domain error that matches one or more taxonomy sentinels.
type Error struct {
	msg     string
	parents []error
}

// NewError creates an error with the given message that matches parents under errors.Is.
func NewError(msg string, parents ...error) *Error {
	return &Error{msg: msg, parents: parents}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() []error { return e.parents }

// Specific errors
var (
	ErrUserNotFound     = NewError("user not found", ErrNotFound)
	ErrMerchantNotFound = NewError("merchant not found", ErrNotFound)
	ErrBankNotFound     = NewError("bank account not initialized", ErrNotFound)
	ErrCodeNotFound     = NewError("payment code not found", ErrNotFound)
	ErrOrderNotFound    = NewError("order not found", ErrNotFound)
	ErrPaymentNotFound  = NewError("payment not found", ErrNotFound)
	ErrAliasNotFound    = NewError("alias not found", ErrNotFound)

	ErrDuplicateEmail  = NewError("email already registered", ErrConflict)
	ErrAliasInUse      = NewError("alias already in use", ErrConflict)
	ErrOrderNotPending = NewError("order is not pending", ErrConflict)
	// ErrOrderAlreadyProcessed is the non-expiry flavour of ErrOrderNotPending.
	ErrOrderAlreadyProcessed = NewError("order already processed", ErrOrderNotPending)
	ErrAlreadyReversed       = NewError("payment already reversed", ErrConflict)
	ErrCodeSpaceExhausted    = NewError("could not allocate a unique payment code", ErrConflict)

	// ErrCodeExpired matches both ErrExpired and ErrOrderNotPending.
	ErrCodeExpired = NewError("order is expired", ErrExpired, ErrOrderNotPending)

	ErrInvalidAmount       = NewError("amount must be greater than zero", ErrInvalidArgument)
	ErrInvalidPaymentCode  = NewError("payment code must be 8 digits", ErrInvalidArgument)
	ErrSameAccountTransfer = NewError("cannot transfer to the same account", ErrInvalidArgument)
	ErrMissingField        = NewError("required field missing", ErrInvalidArgument)
	ErrInvalidEmail        = NewError("invalid email", ErrInvalidArgument)

	ErrAmountExceedsDailyLimit = NewError("amount exceeds daily transfer limit", ErrLimitExceeded)

	ErrBankInsufficientFunds = NewError("bank has insufficient funds", ErrInsufficientFunds)
)

// InsufficientFundsError reports which account could not cover a debit and by how much.
type InsufficientFundsError struct {
	AccountID   string
	AccountKind string
	Current     money.Amount
	Required    money.Amount
}

// Missing is the shortfall between the required and current balance.
func (e *InsufficientFundsError) Missing() money.Amount {
	return e.Required - e.Current
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in %s %s: current %s, required %s, missing %s",
		e.AccountKind, e.AccountID, e.Current, e.Required, e.Missing())
}

// Is matches ErrInsufficientFunds, and ErrBankInsufficientFunds for the bank account.
func (e *InsufficientFundsError) Is(target error) bool {
	switch target {
	case ErrInsufficientFunds:
		return true
	case ErrBankInsufficientFunds:
		return e.AccountKind == "bank"
	}
	return false
}

// Wrap annotates err with a domain error while keeping both on the errors.Is chain.
func Wrap(de *Error, err error) error {
	if err == nil {
		return de
	}
	return fmt.Errorf("%w: %w", de, err)
}
