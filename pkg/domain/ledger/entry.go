// Package ledger defines the append-only rows that document every balance change.
package ledger

import (
	"fmt"
	"time"

	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/money"
)

// Scope separates the bank's own ledger from user and merchant ledgers.
type Scope string

const (
	ScopeAccount Scope = "account"
	ScopeBank    Scope = "bank"
)

// Type labels the business event a ledger row documents.
type Type string

// Account-scope types
const (
	TypeRecharge    Type = "recharge"
	TypePayment     Type = "payment"
	TypeRefund      Type = "refund"
	TypeTransferIn  Type = "transfer_in"
	TypeTransferOut Type = "transfer_out"
)

// Bank-scope types
const (
	TypeInitialDeposit Type = "initial_deposit"
	TypeUserCreation   Type = "user_creation"
	TypeUserRecharge   Type = "user_recharge"
	TypeFeeCollection  Type = "fee_collection"
	TypeFeeReversal    Type = "fee_reversal"
)

var scopes = map[Type]Scope{
	TypeRecharge:       ScopeAccount,
	TypePayment:        ScopeAccount,
	TypeRefund:         ScopeAccount,
	TypeTransferIn:     ScopeAccount,
	TypeTransferOut:    ScopeAccount,
	TypeInitialDeposit: ScopeBank,
	TypeUserCreation:   ScopeBank,
	TypeUserRecharge:   ScopeBank,
	TypeFeeCollection:  ScopeBank,
	TypeFeeReversal:    ScopeBank,
}

// Scope returns the ledger a row of this type belongs to.
func (t Type) Scope() (Scope, bool) {
	s, ok := scopes[t]
	return s, ok
}

// Entry is one immutable ledger row.
type Entry struct {
	ID            string       `json:"transactionId"`
	AccountID     string       `json:"accountId"`
	Scope         Scope        `json:"scope"`
	Type          Type         `json:"type"`
	Amount        money.Amount `json:"amount"`
	BalanceBefore money.Amount `json:"balanceBefore"`
	BalanceAfter  money.Amount `json:"balanceAfter"`
	Description   string       `json:"description"`
	RelatedID     string       `json:"relatedId,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// Validate checks the row is self-consistent and labelled for the right ledger.
func (e *Entry) Validate() error {
	if e.ID == "" || e.AccountID == "" {
		return fmt.Errorf("ledger entry: %w", domain.ErrMissingField)
	}
	scope, ok := e.Type.Scope()
	if !ok {
		return fmt.Errorf("ledger entry: unknown type %q: %w", e.Type, domain.ErrInvalidArgument)
	}
	if scope != e.Scope {
		return fmt.Errorf("ledger entry: type %q is not valid in %s scope: %w", e.Type, e.Scope, domain.ErrInvalidArgument)
	}
	if e.BalanceAfter != e.BalanceBefore+e.Amount {
		return fmt.Errorf("ledger entry: balance %s + %s != %s: %w",
			e.BalanceBefore, e.Amount, e.BalanceAfter, domain.ErrInvalidArgument)
	}
	return nil
}
