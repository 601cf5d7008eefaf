// Package webapi exposes the ledger over HTTP. Route groups live in
// sub-packages:
//   - user: wallets, recharge and history
//   - merchant: merchant registration and lookup
//   - order: payment codes and their lifecycle
//   - payment: code query, settlement and reversal
//   - alias, transfer: user-to-user transfers
//   - bank: bank status, reconciliation and demo seed
package webapi

import (
	"errors"

	"github.com/amirasaad/codepay/pkg/app"
	aliasweb "github.com/amirasaad/codepay/webapi/alias"
	bankweb "github.com/amirasaad/codepay/webapi/bank"
	"github.com/amirasaad/codepay/webapi/common"
	merchantweb "github.com/amirasaad/codepay/webapi/merchant"
	orderweb "github.com/amirasaad/codepay/webapi/order"
	paymentweb "github.com/amirasaad/codepay/webapi/payment"
	transferweb "github.com/amirasaad/codepay/webapi/transfer"
	userweb "github.com/amirasaad/codepay/webapi/user"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	cfg := a.Config

	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		PersistAuthorization: true,
	}))

	fiberApp.Use(limiter.New(limiter.Config{
		Max:          cfg.RateLimit.MaxRequests,
		Expiration:   cfg.RateLimit.Window,
		KeyGenerator: common.ClientIP,
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())
	fiberApp.Use(cors.New())
	fiberApp.Use(common.RequestMeta())

	// Health check endpoint
	fiberApp.Get(
		"/",
		func(c *fiber.Ctx) error {
			return c.SendString("codepay API is running! 🚀")
		},
	)

	userweb.Routes(fiberApp, a)
	merchantweb.Routes(fiberApp, a)
	orderweb.Routes(fiberApp, a)
	paymentweb.Routes(fiberApp, a, cfg)
	aliasweb.Routes(fiberApp, a)
	transferweb.Routes(fiberApp, a)
	bankweb.Routes(fiberApp, a, cfg)
	return fiberApp
}
