// Package ledger pairs every balance mutation with the immutable row that
// documents it. Both writes go through the caller's unit of work, so they
// commit or roll back together.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/account"
	ledgerdomain "github.com/amirasaad/codepay/pkg/domain/ledger"
	"github.com/amirasaad/codepay/pkg/ident"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/amirasaad/codepay/pkg/repository"
)

// Applied describes the outcome of ApplyDelta.
type Applied struct {
	Account *account.Account
	Before  money.Amount
	After   money.Amount
	// Delta is what was actually applied; it differs from the request only when clamped.
	Delta money.Amount
	// Shortfall is the part of a clamped debit that could not be applied.
	Shortfall money.Amount
}

// ApplyDelta reads the account under a row lock, checks the floor for its kind
// and writes the new balance. With clamp set, a debit that would cross zero is
// reduced to whatever the balance can cover instead of failing.
//
// Callers must hold the account's process lock and run inside a unit of work.
func ApplyDelta(
	ctx context.Context,
	accounts repository.AccountRepository,
	id string,
	delta money.Amount,
	clamp bool,
	at time.Time,
) (*Applied, error) {
	acct, err := accounts.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	before := acct.Balance
	applied := delta

	switch {
	case clamp && delta < 0 && before+delta < 0:
		applied = -before
		if before <= 0 {
			applied = 0
		}
	case delta < 0:
		if floor, enforced := acct.Kind.Floor(); enforced && before+delta < floor {
			return nil, &domain.InsufficientFundsError{
				AccountID:   acct.ID,
				AccountKind: acct.Kind.String(),
				Current:     before,
				Required:    -delta,
			}
		}
	}

	after := before + applied
	if applied != 0 {
		if err := accounts.SetBalance(ctx, id, after, at); err != nil {
			return nil, fmt.Errorf("set balance of %s: %w", id, err)
		}
	}
	acct.Balance = after
	acct.UpdatedAt = at
	return &Applied{
		Account:   acct,
		Before:    before,
		After:     after,
		Delta:     applied,
		Shortfall: applied - delta,
	}, nil
}

// Posting is one balance change and the row documenting it.
type Posting struct {
	AccountID   string
	Type        ledgerdomain.Type
	Delta       money.Amount
	Description string
	RelatedID   string
	// Clamp reduces a debit to the available balance instead of failing.
	Clamp bool
}

// Result is a committed-in-transaction posting.
type Result struct {
	Entry     *ledgerdomain.Entry
	Account   *account.Account
	Shortfall money.Amount
}

// Recorder writes ledger rows.
type Recorder struct {
	ids ident.Generator
	now func() time.Time
}

// NewRecorder returns a Recorder. now defaults to time.Now in UTC.
func NewRecorder(ids ident.Generator, now func() time.Time) *Recorder {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Recorder{ids: ids, now: now}
}

// Record appends one immutable row and returns its id.
func (r *Recorder) Record(ctx context.Context, repo repository.LedgerRepository, e *ledgerdomain.Entry) (string, error) {
	if e.ID == "" {
		e.ID = r.ids.NewLedgerID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	if err := e.Validate(); err != nil {
		return "", err
	}
	if err := repo.Append(ctx, e); err != nil {
		return "", fmt.Errorf("append ledger row: %w", err)
	}
	return e.ID, nil
}

// Post applies p to its account and records the matching row in uow.
func (r *Recorder) Post(ctx context.Context, uow repository.UnitOfWork, p Posting) (*Result, error) {
	accounts, err := uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	entries, err := uow.LedgerRepository()
	if err != nil {
		return nil, err
	}

	at := r.now()
	applied, err := ApplyDelta(ctx, accounts, p.AccountID, p.Delta, p.Clamp, at)
	if err != nil {
		return nil, err
	}

	scope := ledgerdomain.ScopeAccount
	if applied.Account.IsBank() {
		scope = ledgerdomain.ScopeBank
	}
	desc := p.Description
	if applied.Shortfall != 0 {
		desc = fmt.Sprintf("%s (shortfall %s)", desc, applied.Shortfall)
	}
	e := &ledgerdomain.Entry{
		AccountID:     p.AccountID,
		Scope:         scope,
		Type:          p.Type,
		Amount:        applied.Delta,
		BalanceBefore: applied.Before,
		BalanceAfter:  applied.After,
		Description:   desc,
		RelatedID:     p.RelatedID,
		CreatedAt:     at,
	}
	if _, err := r.Record(ctx, entries, e); err != nil {
		return nil, err
	}
	return &Result{Entry: e, Account: applied.Account, Shortfall: applied.Shortfall}, nil
}
