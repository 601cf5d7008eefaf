package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/amirasaad/codepay/internal/testutil"
	"github.com/amirasaad/codepay/pkg/app"
	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConsole(t *testing.T) (*console, *bytes.Buffer, *app.App) {
	t.Helper()
	color.NoColor = true
	env := testutil.NewEnv(t)
	a, err := app.New(&env.Deps)
	require.NoError(t, err)
	_, err = a.SettlementService.Bootstrap(context.Background())
	require.NoError(t, err)
	out := new(bytes.Buffer)
	return newConsole(a, out), out, a
}

func TestConsole_PaymentRoundTrip(t *testing.T) {
	c, out, a := newTestConsole(t)
	ctx := context.Background()

	require.NoError(t, c.run(ctx, []string{"create-user", "Ana", "ana@example.com"}))
	require.NoError(t, c.run(ctx, []string{"create-merchant", "Tienda", "tienda@example.com"}))
	user, err := a.AccountService.GetUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	merchant, err := a.AccountService.GetMerchantByEmail(ctx, "tienda@example.com")
	require.NoError(t, err)

	require.NoError(t, c.run(ctx, []string{"recharge", user.ID, "50"}))
	assert.Contains(t, out.String(), "new balance 150.00")

	o, err := a.OrderService.CreateOrder(ctx, merchant.ID, money.MustParse("100"), "")
	require.NoError(t, err)
	out.Reset()
	require.NoError(t, c.run(ctx, []string{"pay", o.PaymentCode, user.ID}))
	assert.Contains(t, out.String(), "fee 2.00")
	assert.Contains(t, out.String(), "balance 50.00")

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"bank"}))
	assert.Contains(t, out.String(), "total balances: 100000.00")

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"order", merchant.ID, "12.5", "two", "coffees"}))
	assert.Contains(t, out.String(), "code")
	out.Reset()
	require.NoError(t, c.run(ctx, []string{"pending"}))
	assert.Contains(t, out.String(), "pending orders: 1")
}

func TestConsole_TransferByAlias(t *testing.T) {
	c, out, a := newTestConsole(t)
	ctx := context.Background()
	from, err := a.SettlementService.CreateUser(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)
	to, err := a.SettlementService.CreateUser(ctx, "Beto", "beto@example.com")
	require.NoError(t, err)
	_, err = a.AliasService.Create(ctx, to.ID, "nickname", "beto")
	require.NoError(t, err)

	require.NoError(t, c.run(ctx, []string{"transfer", from.ID, "@beto", "10"}))
	assert.Contains(t, out.String(), "balances 90.00 / 110.00")

	got, err := a.AccountService.GetUser(ctx, to.ID)
	require.NoError(t, err)
	assert.Equal(t, account.KindUser, got.Kind)
	assert.Equal(t, money.MustParse("110"), got.Balance)
}

func TestConsole_Errors(t *testing.T) {
	c, out, _ := newTestConsole(t)
	ctx := context.Background()

	assert.Error(t, c.run(ctx, []string{"nope"}))
	assert.Contains(t, out.String(), "Usage: cli")

	out.Reset()
	assert.ErrorIs(t, c.run(ctx, []string{"recharge", "only-one"}), errUsage)
	assert.True(t, strings.HasPrefix(out.String(), "Usage: recharge"))

	assert.Error(t, c.run(ctx, []string{"recharge", "u", "1.001"}))
	assert.Error(t, c.run(ctx, []string{"reverse", "missing"}))

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"token", "op-1"}))
	assert.Equal(t, 3, len(strings.Split(strings.TrimSpace(out.String()), ".")))
}
