package repository

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/codepay/infra"
	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/domain/alias"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/domain/ledger"
	"github.com/amirasaad/codepay/pkg/domain/order"
	"github.com/amirasaad/codepay/pkg/domain/payment"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/amirasaad/codepay/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var fixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type RepositoryTestSuite struct {
	suite.Suite
	uow *UoW
	ctx context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	db, err := infra.OpenSQLiteMemory(uuid.NewString())
	s.Require().NoError(err)
	s.Require().NoError(AutoMigrate(db))
	s.T().Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	s.uow = NewUoW(db)
	s.ctx = context.Background()
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func (s *RepositoryTestSuite) createAccount(id string, kind account.Kind, name, email string, bal money.Amount) {
	accounts, err := s.uow.AccountRepository()
	s.Require().NoError(err)
	s.Require().NoError(accounts.Create(s.ctx, &account.Account{
		ID: id, Kind: kind, Name: name, Email: email, Balance: bal,
		CreatedAt: fixedTime, UpdatedAt: fixedTime,
	}))
}

func (s *RepositoryTestSuite) TestAccount_CreateGetAndSum() {
	s.createAccount(account.BankID, account.KindBank, "Bank", "", 100000)
	s.createAccount("u1", account.KindUser, "Ana Perez", "Ana@Example.com", 500)
	s.createAccount("m1", account.KindMerchant, "Tienda", "ana@example.com", 0)

	accounts, _ := s.uow.AccountRepository()

	got, err := accounts.GetByEmail(s.ctx, account.KindUser, "ANA@example.com")
	s.Require().NoError(err)
	s.Equal("u1", got.ID)
	s.Equal(money.Amount(500), got.Balance)

	_, err = accounts.Get(s.ctx, "missing")
	s.ErrorIs(err, domain.ErrNotFound)

	total, err := accounts.SumBalances(s.ctx)
	s.Require().NoError(err)
	s.Equal(money.Amount(100500), total)

	s.Require().NoError(accounts.SetBalance(s.ctx, "u1", 700, fixedTime))
	got, err = accounts.GetForUpdate(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(money.Amount(700), got.Balance)

	s.ErrorIs(accounts.SetBalance(s.ctx, "ghost", 1, fixedTime), domain.ErrNotFound)
}

func (s *RepositoryTestSuite) TestAccount_DuplicateEmailPerKind() {
	s.createAccount("u1", account.KindUser, "Ana", "ana@example.com", 0)
	accounts, _ := s.uow.AccountRepository()
	err := accounts.Create(s.ctx, &account.Account{ID: "u2", Kind: account.KindUser, Name: "Ana 2", Email: "ana@example.com"})
	s.ErrorIs(err, domain.ErrConflict)

	// Two bank-like rows without email do not collide on the unique index.
	s.createAccount("m1", account.KindMerchant, "A", "", 0)
	s.createAccount("m2", account.KindMerchant, "B", "", 0)
}

func (s *RepositoryTestSuite) TestAccount_FindByName() {
	s.createAccount("u1", account.KindUser, "Ana Perez", "a@x.com", 0)
	s.createAccount("u2", account.KindUser, "Juliana", "j@x.com", 0)
	s.createAccount("u3", account.KindUser, "Pedro 100%", "p@x.com", 0)
	s.createAccount("m1", account.KindMerchant, "Ana Shop", "shop@x.com", 0)

	accounts, _ := s.uow.AccountRepository()
	found, err := accounts.FindByName(s.ctx, account.KindUser, "ANA", 10)
	s.Require().NoError(err)
	s.Len(found, 2)

	found, err = accounts.FindByName(s.ctx, account.KindUser, "%", 10)
	s.Require().NoError(err)
	s.Len(found, 1, "wildcards are matched literally")
	s.Equal("u3", found[0].ID)
}

func (s *RepositoryTestSuite) TestLedger_AppendListAndSum() {
	s.createAccount("u1", account.KindUser, "Ana", "a@x.com", 0)
	entries, _ := s.uow.LedgerRepository()

	rows := []*ledger.Entry{
		{ID: "01A", AccountID: "u1", Scope: ledger.ScopeAccount, Type: ledger.TypeTransferOut, Amount: -1000, BalanceBefore: 5000, BalanceAfter: 4000, CreatedAt: fixedTime.Add(-25 * time.Hour)},
		{ID: "01B", AccountID: "u1", Scope: ledger.ScopeAccount, Type: ledger.TypeTransferOut, Amount: -2000, BalanceBefore: 4000, BalanceAfter: 2000, CreatedAt: fixedTime.Add(-time.Hour)},
		{ID: "01C", AccountID: "u1", Scope: ledger.ScopeAccount, Type: ledger.TypeRecharge, Amount: 500, BalanceBefore: 2000, BalanceAfter: 2500, CreatedAt: fixedTime},
	}
	for _, r := range rows {
		s.Require().NoError(entries.Append(s.ctx, r))
	}

	list, err := entries.ListByAccount(s.ctx, "u1", 2)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("01C", list[0].ID)
	s.Equal("01B", list[1].ID)

	sum, err := entries.SumByTypeSince(s.ctx, "u1", ledger.TypeTransferOut, fixedTime.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(money.Amount(-2000), sum)
}

func (s *RepositoryTestSuite) TestOrder_LifecycleQueries() {
	s.createAccount("m1", account.KindMerchant, "Shop", "m@x.com", 0)
	orders, _ := s.uow.OrderRepository()

	o := &order.Order{
		ID: "o1", PaymentCode: "12345678", MerchantID: "m1", MerchantName: "Shop",
		Amount: 7500, Description: "Pago", Status: order.StatusPending,
		CreatedAt: fixedTime, ExpiresAt: fixedTime.Add(15 * time.Minute), UpdatedAt: fixedTime,
	}
	s.Require().NoError(orders.Create(s.ctx, o))

	dup := *o
	dup.ID = "o2"
	s.ErrorIs(orders.Create(s.ctx, &dup), domain.ErrConflict)

	exists, err := orders.CodeExists(s.ctx, "12345678")
	s.Require().NoError(err)
	s.True(exists)

	overdue, err := orders.ListOverdue(s.ctx, fixedTime.Add(16*time.Minute), 10)
	s.Require().NoError(err)
	s.Len(overdue, 1)

	changed, err := orders.Transition(s.ctx, "o1", order.StatusPending, order.StatusConfirmed, "p1", fixedTime)
	s.Require().NoError(err)
	s.True(changed)

	changed, err = orders.Transition(s.ctx, "o1", order.StatusPending, order.StatusExpired, "", fixedTime)
	s.Require().NoError(err)
	s.False(changed)

	changed, err = orders.Transition(s.ctx, "o1", order.StatusConfirmed, order.StatusPending, "", fixedTime)
	s.ErrorIs(err, domain.ErrConflict)
	s.False(changed)

	got, err := orders.GetByCode(s.ctx, "12345678")
	s.Require().NoError(err)
	s.Equal(order.StatusConfirmed, got.Status)
	s.Equal("p1", got.PaymentID)

	pending, err := orders.ListPending(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *RepositoryTestSuite) TestOrder_ListPendingNewestFirst() {
	s.createAccount("m1", account.KindMerchant, "Shop", "m@x.com", 0)
	orders, _ := s.uow.OrderRepository()
	codes := map[string]string{"older": "10000001", "newer": "10000002"}
	for i, id := range []string{"older", "newer"} {
		created := fixedTime.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(orders.Create(s.ctx, &order.Order{
			ID: id, PaymentCode: codes[id], MerchantID: "m1", MerchantName: "Shop",
			Amount: 100, Status: order.StatusPending,
			CreatedAt: created, ExpiresAt: created.Add(15 * time.Minute), UpdatedAt: created,
		}))
	}

	pending, err := orders.ListPending(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal("newer", pending[0].ID)
	s.Equal("older", pending[1].ID)

	overdue, err := orders.ListOverdue(s.ctx, fixedTime.Add(time.Hour), 10)
	s.Require().NoError(err)
	s.Require().Len(overdue, 2)
	s.Equal("older", overdue[0].ID)
}

func (s *RepositoryTestSuite) TestPayment_MarkReversedOnce() {
	payments, _ := s.uow.PaymentRepository()
	p := &payment.Payment{
		ID: "p1", OrderID: "o1", UserID: "u1", MerchantID: "m1",
		Amount: 10000, Fee: 200, AmountToMerchant: 9800,
		Status: payment.StatusConfirmed, ProcessedAt: fixedTime,
	}
	s.Require().NoError(payments.Create(s.ctx, p))

	ok, err := payments.MarkReversed(s.ctx, "p1", fixedTime)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = payments.MarkReversed(s.ctx, "p1", fixedTime)
	s.Require().NoError(err)
	s.False(ok)

	got, err := payments.Get(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(payment.StatusReversed, got.Status)
	s.Require().NotNil(got.ReversedAt)
}

func (s *RepositoryTestSuite) TestAliasAndAudit() {
	aliases, _ := s.uow.AliasRepository()
	s.Require().NoError(aliases.Create(s.ctx, &alias.Alias{ID: "a1", Type: "phone", Value: "0991234567", UserID: "u1", CreatedAt: fixedTime}))
	s.ErrorIs(aliases.Create(s.ctx, &alias.Alias{ID: "a2", Type: "phone", Value: "0991234567", UserID: "u2"}), domain.ErrConflict)

	got, err := aliases.GetByValue(s.ctx, "0991234567")
	s.Require().NoError(err)
	s.Equal("u1", got.UserID)

	audits, _ := s.uow.AuditRepository()
	rec := &audit.Record{
		ID: "r1", Action: audit.ActionAliasCreated, ActorID: "u1", ActorType: audit.ActorUser,
		Status: audit.StatusSuccess, CreatedAt: fixedTime,
		Detail: audit.Detail{Kind: audit.KindAlias, Alias: &audit.AliasDetail{AliasValue: "0991234567", AliasType: "phone"}},
	}
	s.Require().NoError(audits.Append(s.ctx, rec))

	recent, err := audits.ListRecent(s.ctx, audit.ActionAliasCreated, 5)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal("phone", recent[0].Detail.Alias.AliasType)
}

func TestUoW_RollsBackBalanceAndLedgerTogether(t *testing.T) {
	db, err := infra.OpenSQLiteMemory(uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	uow := NewUoW(db)
	ctx := context.Background()

	accounts, _ := uow.AccountRepository()
	require.NoError(t, accounts.Create(ctx, &account.Account{ID: "u1", Kind: account.KindUser, Name: "Ana", Email: "a@x.com", Balance: 1000}))

	err = uow.Do(ctx, func(tx repository.UnitOfWork) error {
		accts, _ := tx.AccountRepository()
		entries, _ := tx.LedgerRepository()
		if err := accts.SetBalance(ctx, "u1", 0, fixedTime); err != nil {
			return err
		}
		if err := entries.Append(ctx, &ledger.Entry{ID: "01X", AccountID: "u1", Scope: ledger.ScopeAccount, Type: ledger.TypePayment, Amount: -1000, BalanceBefore: 1000, CreatedAt: fixedTime}); err != nil {
			return err
		}
		return domain.ErrOrderNotPending
	})
	require.ErrorIs(t, err, domain.ErrOrderNotPending)

	got, err := accounts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, money.Amount(1000), got.Balance)

	entries, _ := uow.LedgerRepository()
	list, err := entries.ListByAccount(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
