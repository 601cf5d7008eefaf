package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/amirasaad/codepay/pkg/app"
	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/money"
	ordersvc "github.com/amirasaad/codepay/pkg/service/order"
	"github.com/amirasaad/codepay/pkg/service/settlement"
	"github.com/amirasaad/codepay/webapi/common"
	"github.com/fatih/color"
)

var (
	label   = color.New(color.FgYellow).SprintFunc()
	amount  = color.New(color.FgCyan, color.Bold).SprintFunc()
	success = color.New(color.FgGreen, color.Bold).SprintFunc()
	warn    = color.New(color.FgMagenta).SprintFunc()
)

var errUsage = errors.New("wrong number of arguments")

type command struct {
	args string
	min  int
	run  func(c *console, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"bank":            {"", 0, (*console).bank},
	"seed":            {"", 0, (*console).seed},
	"create-user":     {"<name> <email>", 2, (*console).createUser},
	"create-merchant": {"<name> <email>", 2, (*console).createMerchant},
	"recharge":        {"<user_id> <amount>", 2, (*console).recharge},
	"order":           {"<merchant_id> <amount> [description]", 2, (*console).order},
	"pay":             {"<code> <user_id> [method]", 2, (*console).pay},
	"reverse":         {"<payment_id> [operator]", 1, (*console).reverse},
	"transfer":        {"<from_user_id> <to_user_id|@alias> <amount>", 3, (*console).transfer},
	"pending":         {"", 0, (*console).pending},
	"token":           {"<operator>", 1, (*console).token},
}

var commandOrder = []string{
	"bank", "seed", "create-user", "create-merchant", "recharge",
	"order", "pay", "reverse", "transfer", "pending", "token",
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage: cli <command> [arguments]")
	_, _ = fmt.Fprintln(w, "Commands:")
	for _, name := range commandOrder {
		_, _ = fmt.Fprintf(w, "  %-16s %s\n", name, commands[name].args)
	}
}

type console struct {
	app *app.App
	out io.Writer
}

func newConsole(a *app.App, out io.Writer) *console {
	return &console{app: a, out: out}
}

func (c *console) run(ctx context.Context, args []string) error {
	cmd, ok := commands[args[0]]
	if !ok {
		usage(c.out)
		return fmt.Errorf("unknown command %q", args[0])
	}
	rest := args[1:]
	if len(rest) < cmd.min {
		_, _ = fmt.Fprintf(c.out, "Usage: %s %s\n", args[0], cmd.args)
		return errUsage
	}
	return cmd.run(c, ctx, rest)
}

func (c *console) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(c.out, format, a...)
}

func (c *console) printAccount(a *account.Account) {
	c.printf("%s %s (%s) %s %s\n", label(a.Kind.String()+":"), a.Name, a.ID, label("balance"), amount(a.Balance))
}

func (c *console) bank(ctx context.Context, _ []string) error {
	st, err := c.app.AccountService.BankStatus(ctx)
	if err != nil {
		return err
	}
	c.printAccount(st.Bank)
	c.printf("%s %s\n", label("total balances:"), amount(st.TotalBalances))
	return nil
}

func (c *console) seed(ctx context.Context, _ []string) error {
	user, merchant, err := c.app.SettlementService.SeedDemo(ctx)
	if err != nil {
		return err
	}
	c.printAccount(user)
	c.printAccount(merchant)
	return nil
}

func (c *console) createUser(ctx context.Context, args []string) error {
	u, err := c.app.SettlementService.CreateUser(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	c.printf("%s ", success("created"))
	c.printAccount(u)
	return nil
}

func (c *console) createMerchant(ctx context.Context, args []string) error {
	m, err := c.app.SettlementService.CreateMerchant(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	c.printf("%s ", success("created"))
	c.printAccount(m)
	return nil
}

func (c *console) recharge(ctx context.Context, args []string) error {
	amt, err := money.Parse(args[1])
	if err != nil {
		return err
	}
	r, err := c.app.SettlementService.Recharge(ctx, args[0], amt)
	if err != nil {
		return err
	}
	c.printf("%s %s to %s, new balance %s\n", success("recharged"), amount(r.Amount), r.UserID, amount(r.NewBalance))
	return nil
}

func (c *console) order(ctx context.Context, args []string) error {
	amt, err := money.Parse(args[1])
	if err != nil {
		return err
	}
	desc := strings.Join(args[2:], " ")
	o, err := c.app.OrderService.CreateOrder(ctx, args[0], amt, desc)
	if err != nil {
		return err
	}
	c.printf("%s %s %s %s %s %s\n", success("order"), o.ID, label("code"), amount(o.PaymentCode),
		label("expires"), o.ExpiresAt.Format("15:04:05"))
	return nil
}

func (c *console) pay(ctx context.Context, args []string) error {
	method := ""
	if len(args) > 2 {
		method = args[2]
	}
	r, err := c.app.SettlementService.ProcessPayment(ctx, args[0], args[1], method)
	if err != nil {
		return err
	}
	c.printf("%s %s %s %s %s %s %s %s\n", success("paid"), r.PaymentID,
		label("amount"), amount(r.Amount), label("fee"), amount(r.Fee),
		label("balance"), amount(r.NewUserBalance))
	return nil
}

func (c *console) reverse(ctx context.Context, args []string) error {
	operator := ""
	if len(args) > 1 {
		operator = args[1]
	}
	ctx = audit.WithActor(ctx, operator, audit.ActorOperator)
	r, err := c.app.ReversalService.ReversePayment(ctx, args[0], operator)
	if err != nil {
		return err
	}
	c.printf("%s %s %s %s\n", success("reversed"), r.PaymentID, label("refunded"), amount(r.Amount))
	if r.MerchantShortfall > 0 || r.BankShortfall > 0 {
		c.printf("%s merchant %s bank %s\n", warn("shortfall"), amount(r.MerchantShortfall), amount(r.BankShortfall))
	}
	return nil
}

func (c *console) transfer(ctx context.Context, args []string) error {
	amt, err := money.Parse(args[2])
	if err != nil {
		return err
	}
	req := settlement.TransferRequest{FromUserID: args[0], Amount: amt}
	if alias, ok := strings.CutPrefix(args[1], "@"); ok {
		req.ToAlias = alias
	} else {
		req.ToUserID = args[1]
	}
	r, err := c.app.SettlementService.Transfer(ctx, req)
	if err != nil {
		return err
	}
	c.printf("%s %s %s -> %s, balances %s / %s\n", success("transferred"), amount(r.Amount),
		r.FromUserID, r.ToUserID, amount(r.FromBalance), amount(r.ToBalance))
	return nil
}

func (c *console) pending(ctx context.Context, _ []string) error {
	list, err := c.app.OrderService.ListPending(ctx, ordersvc.DefaultPendingLimit)
	if err != nil {
		return err
	}
	c.printf("%s %d\n", label("pending orders:"), len(list))
	for _, o := range list {
		c.printf("  %s %s %s %s\n", o.PaymentCode, o.MerchantName, amount(o.Amount), o.ExpiresAt.Format("15:04:05"))
	}
	return nil
}

func (c *console) token(_ context.Context, args []string) error {
	t, err := common.IssueOperatorToken(c.app.Config.Auth.Jwt, args[0], c.app.Deps.Now())
	if err != nil {
		return err
	}
	c.printf("%s\n", t)
	return nil
}
