package reversal_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/amirasaad/codepay/internal/testutil"
	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/domain/events"
	ledgerdomain "github.com/amirasaad/codepay/pkg/domain/ledger"
	"github.com/amirasaad/codepay/pkg/domain/order"
	"github.com/amirasaad/codepay/pkg/domain/payment"
	"github.com/amirasaad/codepay/pkg/money"
	auditsvc "github.com/amirasaad/codepay/pkg/service/audit"
	ordersvc "github.com/amirasaad/codepay/pkg/service/order"
	"github.com/amirasaad/codepay/pkg/service/reversal"
	"github.com/amirasaad/codepay/pkg/service/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	env      *testutil.Env
	ctx      context.Context
	svc      *reversal.Service
	orders   *ordersvc.Service
	settle   *settlement.Service
	user     *account.Account
	merchant *account.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewEnv(t)
	ctx := context.Background()
	auditsvc.New(env.Deps).Subscribe(env.Bus)
	orders := ordersvc.New(env.Deps)
	settle, err := settlement.New(env.Deps, orders, nil)
	require.NoError(t, err)
	_, err = settle.Bootstrap(ctx)
	require.NoError(t, err)
	user, err := settle.CreateUser(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)
	merchant, err := settle.CreateMerchant(ctx, "Mi Tienda", "tienda@example.com")
	require.NoError(t, err)
	return &fixture{
		env:      env,
		ctx:      ctx,
		svc:      reversal.New(env.Deps),
		orders:   orders,
		settle:   settle,
		user:     user,
		merchant: merchant,
	}
}

func (f *fixture) pay(t *testing.T, amount string) *settlement.Receipt {
	t.Helper()
	o, err := f.orders.CreateOrder(f.ctx, f.merchant.ID, money.MustParse(amount), "")
	require.NoError(t, err)
	r, err := f.settle.ProcessPayment(f.ctx, o.PaymentCode, f.user.ID, "")
	require.NoError(t, err)
	return r
}

func (f *fixture) balance(t *testing.T, id string) money.Amount {
	t.Helper()
	repo, err := f.env.Uow.AccountRepository()
	require.NoError(t, err)
	a, err := repo.Get(f.ctx, id)
	require.NoError(t, err)
	return a.Balance
}

func (f *fixture) setBalance(t *testing.T, id string, amount money.Amount) {
	t.Helper()
	repo, err := f.env.Uow.AccountRepository()
	require.NoError(t, err)
	require.NoError(t, repo.SetBalance(f.ctx, id, amount, f.env.Clock.Now()))
}

func TestReversePayment_RoundTrip(t *testing.T) {
	f := newFixture(t)
	bankBefore := f.balance(t, account.BankID)
	receipt := f.pay(t, "100")

	r, err := f.svc.ReversePayment(f.ctx, receipt.PaymentID, "op-1")
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("100"), r.NewUserBalance)
	assert.Equal(t, money.Zero, r.NewMerchantBalance)
	assert.Equal(t, money.MustParse("2"), r.Fee)
	assert.Equal(t, money.MustParse("98"), r.AmountToMerchant)
	assert.Zero(t, r.MerchantShortfall)
	assert.Zero(t, r.BankShortfall)

	assert.Equal(t, money.MustParse("100"), f.balance(t, f.user.ID))
	assert.Equal(t, money.Zero, f.balance(t, f.merchant.ID))
	assert.Equal(t, bankBefore, f.balance(t, account.BankID))

	payments, _ := f.env.Uow.PaymentRepository()
	p, err := payments.Get(f.ctx, receipt.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusReversed, p.Status)
	require.NotNil(t, p.ReversedAt)

	st, err := f.orders.QueryStatus(f.ctx, receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusReversed, st.Status)

	entries, _ := f.env.Uow.LedgerRepository()
	userRows, err := entries.ListByAccount(f.ctx, f.user.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, ledgerdomain.TypeRefund, userRows[0].Type)
	bankRows, err := entries.ListByAccount(f.ctx, account.BankID, 1)
	require.NoError(t, err)
	assert.Equal(t, ledgerdomain.TypeFeeReversal, bankRows[0].Type)
	assert.Equal(t, money.MustParse("-2"), bankRows[0].Amount)

	rev := f.env.Bus.PublishedOf(events.TypePaymentReversed)
	require.Len(t, rev, 1)
	assert.Equal(t, "op-1", rev[0].Metadata().ActorID)

	_, err = f.svc.ReversePayment(f.ctx, receipt.PaymentID, "")
	assert.ErrorIs(t, err, domain.ErrAlreadyReversed)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestReversePayment_WarnsWhenOrderNotConfirmed(t *testing.T) {
	f := newFixture(t)
	receipt := f.pay(t, "10")
	require.NoError(t, f.env.DB.Exec("UPDATE orders SET status = ? WHERE id = ?", string(order.StatusFailed), receipt.OrderID).Error)

	var logs bytes.Buffer
	deps := f.env.Deps
	deps.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	_, err := reversal.New(deps).ReversePayment(f.ctx, receipt.PaymentID, "op-1")
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "left order unchanged")
	assert.Contains(t, logs.String(), "orderID="+receipt.OrderID)
	st, err := f.orders.QueryStatus(f.ctx, receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusFailed, st.Status)
}

func TestReversePayment_ClampsMerchantAndBank(t *testing.T) {
	f := newFixture(t)
	receipt := f.pay(t, "100")
	f.setBalance(t, f.merchant.ID, money.MustParse("30"))
	f.setBalance(t, account.BankID, money.MustParse("1"))

	r, err := f.svc.ReversePayment(f.ctx, receipt.PaymentID, "")
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("68"), r.MerchantShortfall)
	assert.Equal(t, money.MustParse("1"), r.BankShortfall)
	assert.Equal(t, money.Zero, f.balance(t, f.merchant.ID))
	assert.Equal(t, money.Zero, f.balance(t, account.BankID))
	assert.Equal(t, money.MustParse("100"), f.balance(t, f.user.ID))

	auditRepo, _ := f.env.Uow.AuditRepository()
	records, err := auditRepo.ListRecent(f.ctx, audit.ActionPaymentReversed, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, audit.ActorSystem, records[0].ActorType)
	require.NotNil(t, records[0].Detail.Reversal)
	assert.Equal(t, money.MustParse("68"), records[0].Detail.Reversal.MerchantShortfall)
}

func TestReversePayment_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ReversePayment(f.ctx, "missing", "")
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReversePayment_RecomputesSplit(t *testing.T) {
	f := newFixture(t)
	receipt := f.pay(t, "33.33")
	r, err := f.svc.ReversePayment(f.ctx, receipt.PaymentID, "")
	require.NoError(t, err)
	assert.Equal(t, receipt.Fee, r.Fee)
	assert.Equal(t, receipt.AmountToMerchant, r.AmountToMerchant)
	assert.Equal(t, money.MustParse("100"), r.NewUserBalance)
}
