// Package repository declares the storage contracts used by the ledger services.
//
// Every method reports a missing row as domain.ErrNotFound and a unique-key
// violation as domain.ErrConflict; services translate those into specific errors.
package repository

import (
	"context"
	"time"

	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/domain/alias"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/domain/ledger"
	"github.com/amirasaad/codepay/pkg/domain/order"
	"github.com/amirasaad/codepay/pkg/domain/payment"
	"github.com/amirasaad/codepay/pkg/money"
)

// AccountRepository stores the bank, users and merchants.
type AccountRepository interface {
	Get(ctx context.Context, id string) (*account.Account, error)
	// GetForUpdate reads the account holding a row lock until the unit of work ends.
	GetForUpdate(ctx context.Context, id string) (*account.Account, error)
	GetByEmail(ctx context.Context, kind account.Kind, email string) (*account.Account, error)
	// FindByName matches a case-insensitive name fragment, newest first.
	FindByName(ctx context.Context, kind account.Kind, fragment string, limit int) ([]*account.Account, error)
	Create(ctx context.Context, a *account.Account) error
	SetBalance(ctx context.Context, id string, balance money.Amount, at time.Time) error
	// SumBalances totals every account, bank included.
	SumBalances(ctx context.Context) (money.Amount, error)
}

// LedgerRepository is append-only: there is no update or delete.
type LedgerRepository interface {
	Append(ctx context.Context, e *ledger.Entry) error
	// ListByAccount returns rows newest first.
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*ledger.Entry, error)
	// SumByTypeSince totals Amount over rows of typ created at or after since.
	SumByTypeSince(ctx context.Context, accountID string, typ ledger.Type, since time.Time) (money.Amount, error)
}

// OrderRepository stores payment requests.
type OrderRepository interface {
	Create(ctx context.Context, o *order.Order) error
	Get(ctx context.Context, id string) (*order.Order, error)
	GetByCode(ctx context.Context, code string) (*order.Order, error)
	// CodeExists reports whether any order, in any status, holds code.
	CodeExists(ctx context.Context, code string) (bool, error)
	// Transition moves the order from one status to another only if it is still
	// in from. It reports whether the row changed. paymentID is set when non-empty.
	Transition(ctx context.Context, id string, from, to order.Status, paymentID string, at time.Time) (bool, error)
	// ListPending returns pending orders, newest first.
	ListPending(ctx context.Context, limit int) ([]*order.Order, error)
	// ListOverdue returns pending orders whose expiry is before now.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]*order.Order, error)
}

// PaymentRepository stores settled payments.
type PaymentRepository interface {
	Create(ctx context.Context, p *payment.Payment) error
	Get(ctx context.Context, id string) (*payment.Payment, error)
	// MarkReversed moves a confirmed payment to reversed, reporting whether it changed.
	MarkReversed(ctx context.Context, id string, at time.Time) (bool, error)
}

// AliasRepository stores user handles.
type AliasRepository interface {
	Create(ctx context.Context, a *alias.Alias) error
	GetByValue(ctx context.Context, value string) (*alias.Alias, error)
}

// AuditRepository is a write-once sink.
type AuditRepository interface {
	Append(ctx context.Context, r *audit.Record) error
	// ListRecent returns the newest records first, optionally filtered by action.
	ListRecent(ctx context.Context, action audit.Action, limit int) ([]*audit.Record, error)
}
