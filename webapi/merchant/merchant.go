package merchant

import (
	"github.com/amirasaad/codepay/pkg/app"
	accountsvc "github.com/amirasaad/codepay/pkg/service/account"
	"github.com/amirasaad/codepay/pkg/service/settlement"
	"github.com/amirasaad/codepay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// NewMerchant represents the request body for registering a merchant.
type NewMerchant struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=100"`
}

func Routes(r fiber.Router, a *app.App) {
	r.Post("/merchants", CreateMerchant(a.SettlementService))
	r.Get("/merchants/by-email/:email", GetMerchantByEmail(a.AccountService))
	r.Get("/merchants/:id", GetMerchant(a.AccountService))
}

// CreateMerchant registers a merchant with a zero balance.
// @Summary Create a merchant
// @Tags merchants
// @Accept json
// @Produce json
// @Param request body NewMerchant true "Merchant data"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /merchants [post]
func CreateMerchant(svc *settlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[NewMerchant](c)
		if input == nil {
			return err
		}
		m, err := svc.CreateMerchant(c.UserContext(), input.Name, input.Email)
		if err != nil {
			log.Errorf("Failed to create merchant: %v", err)
			return common.ProblemDetailsJSON(c, "Couldn't create merchant", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Merchant created", m)
	}
}

// GetMerchant returns a merchant by id.
// @Summary Get merchant by ID
// @Tags merchants
// @Produce json
// @Param id path string true "Merchant ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /merchants/{id} [get]
func GetMerchant(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := svc.GetMerchant(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Merchant not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Merchant found", m)
	}
}

// GetMerchantByEmail is the merchant console login.
// @Summary Get merchant by email
// @Tags merchants
// @Produce json
// @Param email path string true "Email"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /merchants/by-email/{email} [get]
func GetMerchantByEmail(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := svc.GetMerchantByEmail(c.UserContext(), c.Params("email"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Merchant not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Merchant found", m)
	}
}
