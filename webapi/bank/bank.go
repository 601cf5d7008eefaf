package bank

import (
	"github.com/amirasaad/codepay/pkg/app"
	"github.com/amirasaad/codepay/pkg/config"
	accountsvc "github.com/amirasaad/codepay/pkg/service/account"
	ordersvc "github.com/amirasaad/codepay/pkg/service/order"
	"github.com/amirasaad/codepay/pkg/service/settlement"
	"github.com/amirasaad/codepay/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the bank, reconciliation and (in development) seed endpoints.
func Routes(r fiber.Router, a *app.App, cfg *config.App) {
	r.Get("/bank/status", Status(a.AccountService))
	r.Get("/bank/transactions", Transactions(a.AccountService))
	r.Get("/reconciliation/pending", common.JwtProtected(cfg.Auth.Jwt), PendingOrders(a.OrderService))
	if cfg.IsDevelopment() {
		r.Post("/seed", Seed(a.SettlementService))
	}
}

// Status returns the bank account and the sum of every balance.
// @Summary Bank status
// @Tags bank
// @Produce json
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /bank/status [get]
func Status(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.BankStatus(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Bank not available", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Bank status", st)
	}
}

// Transactions returns the newest bank ledger rows.
// @Summary Bank transactions
// @Tags bank
// @Produce json
// @Success 200 {object} common.Response
// @Router /bank/transactions [get]
func Transactions(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := svc.ListBankTransactions(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Bank transactions", rows)
	}
}

// PendingOrders lists orders still awaiting payment.
// @Summary Pending orders
// @Tags reconciliation
// @Produce json
// @Param limit query int false "Max orders"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /reconciliation/pending [get]
// @Security Bearer
func PendingOrders(svc *ordersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.ListPending(c.UserContext(), c.QueryInt("limit", ordersvc.DefaultPendingLimit))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list pending orders", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Pending orders", fiber.Map{
			"count":  len(list),
			"orders": list,
		})
	}
}

// Seed creates the demo user and merchant.
// @Summary Seed demo data
// @Tags bank
// @Produce json
// @Success 200 {object} common.Response
// @Router /seed [post]
func Seed(svc *settlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, merchant, err := svc.SeedDemo(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Seed failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Demo data ready", fiber.Map{
			"user":     user,
			"merchant": merchant,
		})
	}
}
