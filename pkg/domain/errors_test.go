package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/stretchr/testify/assert"
)

func TestSpecificErrorsMatchTaxonomy(t *testing.T) {
	tests := []struct {
		err    error
		parent error
	}{
		{domain.ErrUserNotFound, domain.ErrNotFound},
		{domain.ErrCodeNotFound, domain.ErrNotFound},
		{domain.ErrDuplicateEmail, domain.ErrConflict},
		{domain.ErrOrderAlreadyProcessed, domain.ErrOrderNotPending},
		{domain.ErrOrderAlreadyProcessed, domain.ErrConflict},
		{domain.ErrCodeExpired, domain.ErrExpired},
		{domain.ErrCodeExpired, domain.ErrOrderNotPending},
		{domain.ErrAmountExceedsDailyLimit, domain.ErrLimitExceeded},
		{domain.ErrBankInsufficientFunds, domain.ErrInsufficientFunds},
		{domain.ErrSameAccountTransfer, domain.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.err, tt.parent), func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.parent)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.parent)
		})
	}
	assert.NotErrorIs(t, domain.ErrOrderAlreadyProcessed, domain.ErrExpired)
}

func TestInsufficientFundsError(t *testing.T) {
	userErr := &domain.InsufficientFundsError{AccountID: "u1", AccountKind: "user", Current: 5000, Required: 7500}
	assert.Equal(t, money.Amount(2500), userErr.Missing())
	assert.ErrorIs(t, userErr, domain.ErrInsufficientFunds)
	assert.NotErrorIs(t, userErr, domain.ErrBankInsufficientFunds)
	assert.Contains(t, userErr.Error(), "missing 25.00")

	bankErr := &domain.InsufficientFundsError{AccountID: "bank", AccountKind: "bank", Current: 10, Required: 20}
	assert.ErrorIs(t, fmt.Errorf("recharge: %w", bankErr), domain.ErrBankInsufficientFunds)

	var target *domain.InsufficientFundsError
	assert.True(t, errors.As(fmt.Errorf("x: %w", bankErr), &target))
	assert.Equal(t, money.Amount(10), target.Missing())
}

func TestWrap(t *testing.T) {
	cause := errors.New("unique constraint")
	err := domain.Wrap(domain.ErrAliasInUse, cause)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, domain.ErrAliasInUse, domain.Wrap(domain.ErrAliasInUse, nil))
}
