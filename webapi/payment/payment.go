package payment

import (
	"github.com/amirasaad/codepay/pkg/app"
	"github.com/amirasaad/codepay/pkg/config"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	accountsvc "github.com/amirasaad/codepay/pkg/service/account"
	ordersvc "github.com/amirasaad/codepay/pkg/service/order"
	"github.com/amirasaad/codepay/pkg/service/reversal"
	"github.com/amirasaad/codepay/pkg/service/settlement"
	"github.com/amirasaad/codepay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// ProcessInput represents a user paying an order by its code.
type ProcessInput struct {
	PaymentCode   string `json:"paymentCode" validate:"required,len=8,numeric"`
	UserID        string `json:"userId" validate:"required"`
	PaymentMethod string `json:"paymentMethod" validate:"max=50"`
}

// Routes registers the payment endpoints. Reversal is operator-only.
func Routes(r fiber.Router, a *app.App, cfg *config.App) {
	r.Get("/payments/query/:code", QueryByCode(a.OrderService))
	r.Post("/payments/process", Process(a.SettlementService))
	r.Get("/payments/:id", GetPayment(a.AccountService))
	r.Post("/payments/:id/reverse", common.JwtProtected(cfg.Auth.Jwt), Reverse(a.ReversalService))
}

// QueryByCode shows the order behind a payment code before the user pays.
// @Summary Query a payment code
// @Tags payments
// @Produce json
// @Param code path string true "8-digit payment code"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Failure 410 {object} common.ProblemDetails
// @Router /payments/query/{code} [get]
func QueryByCode(svc *ordersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := svc.QueryByCode(c.UserContext(), c.Params("code"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment code not payable", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Order found", o)
	}
}

// Process settles an order: user debited, merchant credited net, bank credited fee.
// @Summary Pay an order
// @Tags payments
// @Accept json
// @Produce json
// @Param request body ProcessInput true "Code and payer"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Failure 410 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /payments/process [post]
func Process(svc *settlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ProcessInput](c)
		if input == nil {
			return err
		}
		ctx := audit.WithActor(c.UserContext(), input.UserID, audit.ActorUser)
		receipt, err := svc.ProcessPayment(ctx, input.PaymentCode, input.UserID, input.PaymentMethod)
		if err != nil {
			log.Errorf("Payment failed: %v", err)
			return common.ProblemDetailsJSON(c, "Payment failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Payment processed", receipt)
	}
}

// GetPayment returns a payment record.
// @Summary Get payment
// @Tags payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /payments/{id} [get]
func GetPayment(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := svc.GetPayment(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Payment found", p)
	}
}

// Reverse undoes a confirmed payment.
// @Summary Reverse a payment
// @Tags payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /payments/{id}/reverse [post]
// @Security Bearer
func Reverse(svc *reversal.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		receipt, err := svc.ReversePayment(c.UserContext(), c.Params("id"), common.OperatorID(c))
		if err != nil {
			log.Errorf("Reversal failed: %v", err)
			return common.ProblemDetailsJSON(c, "Reversal failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Payment reversed", receipt)
	}
}
