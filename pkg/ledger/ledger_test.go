package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/codepay/internal/testutil"
	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/account"
	ledgerdomain "github.com/amirasaad/codepay/pkg/domain/ledger"
	"github.com/amirasaad/codepay/pkg/ident"
	"github.com/amirasaad/codepay/pkg/ledger"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/amirasaad/codepay/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, uow repository.UnitOfWork, accts ...*account.Account) {
	t.Helper()
	repo, err := uow.AccountRepository()
	require.NoError(t, err)
	for _, a := range accts {
		require.NoError(t, repo.Create(context.Background(), a))
	}
}

func TestPost_DebitAndCredit(t *testing.T) {
	uow, _ := testutil.NewUoW(t)
	seed(t, uow,
		&account.Account{ID: account.BankID, Kind: account.KindBank, Name: "Bank", Balance: 100000},
		&account.Account{ID: "u1", Kind: account.KindUser, Name: "Ana", Email: "a@x.com", Balance: 0},
	)
	rec := ledger.NewRecorder(ident.New(), func() time.Time { return now })
	ctx := context.Background()

	var bankRow, userRow *ledger.Result
	err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
		var err error
		bankRow, err = rec.Post(ctx, tx, ledger.Posting{AccountID: account.BankID, Type: ledgerdomain.TypeUserCreation, Delta: -10000})
		if err != nil {
			return err
		}
		userRow, err = rec.Post(ctx, tx, ledger.Posting{AccountID: "u1", Type: ledgerdomain.TypeRecharge, Delta: 10000, RelatedID: bankRow.Entry.ID})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, ledgerdomain.ScopeBank, bankRow.Entry.Scope)
	assert.Equal(t, money.Amount(90000), bankRow.Account.Balance)
	assert.Equal(t, ledgerdomain.ScopeAccount, userRow.Entry.Scope)
	assert.Equal(t, money.Amount(10000), userRow.Entry.BalanceAfter)
	assert.Equal(t, bankRow.Entry.ID, userRow.Entry.RelatedID)

	accounts, _ := uow.AccountRepository()
	total, err := accounts.SumBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(100000), total)
}

func TestPost_FloorRejectsOverdraft(t *testing.T) {
	uow, _ := testutil.NewUoW(t)
	seed(t, uow, &account.Account{ID: "u1", Kind: account.KindUser, Name: "Ana", Email: "a@x.com", Balance: 5000})
	rec := ledger.NewRecorder(ident.New(), nil)
	ctx := context.Background()

	err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
		_, err := rec.Post(ctx, tx, ledger.Posting{AccountID: "u1", Type: ledgerdomain.TypePayment, Delta: -7500})
		return err
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	var ife *domain.InsufficientFundsError
	require.ErrorAs(t, err, &ife)
	assert.Equal(t, money.Amount(2500), ife.Missing())

	entries, _ := uow.LedgerRepository()
	rows, err := entries.ListByAccount(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPost_ClampReportsShortfall(t *testing.T) {
	uow, _ := testutil.NewUoW(t)
	seed(t, uow, &account.Account{ID: "m1", Kind: account.KindMerchant, Name: "Shop", Email: "m@x.com", Balance: 3000})
	rec := ledger.NewRecorder(ident.New(), nil)
	ctx := context.Background()

	var res *ledger.Result
	err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
		var err error
		res, err = rec.Post(ctx, tx, ledger.Posting{AccountID: "m1", Type: ledgerdomain.TypePayment, Delta: -9800, Clamp: true})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, money.Amount(6800), res.Shortfall)
	assert.Equal(t, money.Amount(-3000), res.Entry.Amount)
	assert.Equal(t, money.Zero, res.Account.Balance)
	assert.Contains(t, res.Entry.Description, "shortfall 68.00")
}

func TestApplyDelta_MerchantHasNoFloor(t *testing.T) {
	uow, _ := testutil.NewUoW(t)
	seed(t, uow, &account.Account{ID: "m1", Kind: account.KindMerchant, Name: "Shop", Email: "m@x.com", Balance: 100})
	accounts, _ := uow.AccountRepository()

	applied, err := ledger.ApplyDelta(context.Background(), accounts, "m1", -500, false, now)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(-400), applied.After)
	assert.Zero(t, applied.Shortfall)
}

func TestRecord_RejectsInconsistentRow(t *testing.T) {
	uow, _ := testutil.NewUoW(t)
	entries, _ := uow.LedgerRepository()
	rec := ledger.NewRecorder(ident.New(), nil)

	_, err := rec.Record(context.Background(), entries, &ledgerdomain.Entry{
		AccountID: "u1", Scope: ledgerdomain.ScopeAccount, Type: ledgerdomain.TypeRefund,
		Amount: 100, BalanceBefore: 0, BalanceAfter: 99,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
