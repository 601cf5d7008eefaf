package transfer

import (
	"github.com/amirasaad/codepay/pkg/app"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/amirasaad/codepay/pkg/service/settlement"
	"github.com/amirasaad/codepay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Input is a user-to-user transfer addressed by id or alias.
type Input struct {
	FromUserID  string       `json:"fromUserId" validate:"required"`
	ToUserID    string       `json:"toUserId" validate:"required_without=ToAlias"`
	ToAlias     string       `json:"toAlias" validate:"required_without=ToUserID"`
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description" validate:"max=200"`
}

func Routes(r fiber.Router, a *app.App) {
	r.Post("/transfers", Transfer(a.SettlementService))
}

// Transfer moves funds between two user wallets.
// @Summary Transfer between users
// @Tags transfers
// @Accept json
// @Produce json
// @Param request body Input true "Transfer data"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /transfers [post]
func Transfer(svc *settlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[Input](c)
		if input == nil {
			return err
		}
		ctx := audit.WithActor(c.UserContext(), input.FromUserID, audit.ActorUser)
		receipt, err := svc.Transfer(ctx, settlement.TransferRequest{
			FromUserID:  input.FromUserID,
			ToUserID:    input.ToUserID,
			ToAlias:     input.ToAlias,
			Amount:      input.Amount,
			Description: input.Description,
		})
		if err != nil {
			log.Errorf("Transfer failed: %v", err)
			return common.ProblemDetailsJSON(c, "Transfer failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transfer completed", receipt)
	}
}
