package alias

import (
	"github.com/amirasaad/codepay/pkg/app"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	aliassvc "github.com/amirasaad/codepay/pkg/service/alias"
	"github.com/amirasaad/codepay/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// NewAlias represents the request body for registering a handle.
type NewAlias struct {
	UserID     string `json:"userId" validate:"required"`
	AliasType  string `json:"aliasType" validate:"required,max=20"`
	AliasValue string `json:"aliasValue" validate:"required,max=100"`
}

func Routes(r fiber.Router, a *app.App) {
	r.Post("/aliases", CreateAlias(a.AliasService))
	r.Get("/aliases/:value", GetAlias(a.AliasService))
}

// CreateAlias binds a unique handle to a user.
// @Summary Create an alias
// @Tags aliases
// @Accept json
// @Produce json
// @Param request body NewAlias true "Alias data"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /aliases [post]
func CreateAlias(svc *aliassvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[NewAlias](c)
		if input == nil {
			return err
		}
		ctx := audit.WithActor(c.UserContext(), input.UserID, audit.ActorUser)
		a, err := svc.Create(ctx, input.UserID, input.AliasType, input.AliasValue)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't create alias", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Alias created", a)
	}
}

// GetAlias resolves a handle.
// @Summary Get alias
// @Tags aliases
// @Produce json
// @Param value path string true "Alias value"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /aliases/{value} [get]
func GetAlias(svc *aliassvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := svc.Get(c.UserContext(), c.Params("value"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Alias not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Alias found", a)
	}
}
