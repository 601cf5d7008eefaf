package user

import (
	"github.com/amirasaad/codepay/pkg/app"
	accountsvc "github.com/amirasaad/codepay/pkg/service/account"
	"github.com/amirasaad/codepay/pkg/service/settlement"
	"github.com/amirasaad/codepay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Routes registers the user wallet endpoints.
func Routes(r fiber.Router, a *app.App) {
	r.Post("/users", CreateUser(a.SettlementService))
	r.Get("/users/by-email/:email", GetUserByEmail(a.AccountService))
	r.Get("/users/search/by-name/:name", SearchUsers(a.AccountService))
	r.Get("/users/:id", GetUser(a.AccountService))
	r.Get("/users/:id/transactions", ListTransactions(a.AccountService))
	r.Post("/users/:id/recharge", Recharge(a.SettlementService))
}

// CreateUser creates a user wallet funded with the welcome grant.
// @Summary Create a new user
// @Description Create a user wallet; the bank funds it with the welcome amount
// @Tags users
// @Accept json
// @Produce json
// @Param request body NewUser true "User creation data"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /users [post]
func CreateUser(svc *settlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[NewUser](c)
		if input == nil {
			return err
		}
		u, err := svc.CreateUser(c.UserContext(), input.Name, input.Email)
		if err != nil {
			log.Errorf("Failed to create user: %v", err)
			return common.ProblemDetailsJSON(c, "Couldn't create user", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "User created", u)
	}
}

// GetUser returns a user by id.
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /users/{id} [get]
func GetUser(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.GetUser(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "User not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User found", u)
	}
}

// GetUserByEmail looks a user up by email, the wallet login.
// @Summary Get user by email
// @Tags users
// @Produce json
// @Param email path string true "Email"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /users/by-email/{email} [get]
func GetUserByEmail(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.GetUserByEmail(c.UserContext(), c.Params("email"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "User not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User found", u)
	}
}

// SearchUsers returns up to ten users whose name contains the fragment.
// @Summary Search users by name
// @Tags users
// @Produce json
// @Param name path string true "Name fragment"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /users/search/by-name/{name} [get]
func SearchUsers(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.SearchUsersByName(c.UserContext(), c.Params("name"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "No matching users", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Users found", users)
	}
}

// ListTransactions returns the newest ledger rows of a user.
// @Summary List user transactions
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /users/{id}/transactions [get]
func ListTransactions(svc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := svc.ListUserTransactions(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions", rows)
	}
}

// Recharge moves funds from the bank into a user wallet.
// @Summary Recharge a user wallet
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body RechargeInput true "Amount"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /users/{id}/recharge [post]
func Recharge(svc *settlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[RechargeInput](c)
		if input == nil {
			return err
		}
		receipt, err := svc.Recharge(c.UserContext(), c.Params("id"), input.Amount)
		if err != nil {
			log.Errorf("Recharge failed: %v", err)
			return common.ProblemDetailsJSON(c, "Recharge failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Recharge completed", receipt)
	}
}
