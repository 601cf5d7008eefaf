package order

import (
	"github.com/amirasaad/codepay/pkg/app"
	"github.com/amirasaad/codepay/pkg/money"
	ordersvc "github.com/amirasaad/codepay/pkg/service/order"
	"github.com/amirasaad/codepay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// NewOrder represents the request body for issuing a payment code.
type NewOrder struct {
	MerchantID  string       `json:"merchantId" validate:"required"`
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description" validate:"max=200"`
}

// CancelInput names the merchant withdrawing a pending order.
type CancelInput struct {
	MerchantID string `json:"merchantId" validate:"required"`
}

func Routes(r fiber.Router, a *app.App) {
	r.Post("/orders", CreateOrder(a.OrderService))
	r.Get("/orders/:id/status", GetStatus(a.OrderService))
	r.Post("/orders/:id/cancel", Cancel(a.OrderService))
}

// CreateOrder issues a pending order with a fresh 8-digit payment code.
// @Summary Create an order
// @Tags orders
// @Accept json
// @Produce json
// @Param request body NewOrder true "Order data"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /orders [post]
func CreateOrder(svc *ordersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[NewOrder](c)
		if input == nil {
			return err
		}
		o, err := svc.CreateOrder(c.UserContext(), input.MerchantID, input.Amount, input.Description)
		if err != nil {
			log.Errorf("Failed to create order: %v", err)
			return common.ProblemDetailsJSON(c, "Couldn't create order", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Order created", o)
	}
}

// GetStatus reports an order's status, expiring it first when overdue.
// @Summary Order status
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /orders/{id}/status [get]
func GetStatus(svc *ordersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := svc.QueryStatus(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Order not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Order status", o)
	}
}

// Cancel withdraws a pending order.
// @Summary Cancel an order
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body CancelInput true "Owning merchant"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /orders/{id}/cancel [post]
func Cancel(svc *ordersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CancelInput](c)
		if input == nil {
			return err
		}
		o, err := svc.CancelOrder(c.UserContext(), c.Params("id"), input.MerchantID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't cancel order", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Order cancelled", o)
	}
}
