package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirasaad/codepay/infra/initializer"
	"github.com/amirasaad/codepay/pkg/app"
	"github.com/amirasaad/codepay/pkg/config"
	"github.com/amirasaad/codepay/webapi"
	log "github.com/charmbracelet/log"
)

const shutdownTimeout = 10 * time.Second

// @title codepay API
// @version 1.0.0
// @description Wallet, merchant and payment-code settlement API
// @host localhost:3000
// @BasePath /
//
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description "Enter your Bearer token in the format: `Bearer {token}`"
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal(fmt.Errorf("failed to load application configuration: %w", err))
	}
	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.App) error {
	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer cleanup()
	logger := deps.Logger

	a, err := app.New(deps)
	if err != nil {
		return err
	}
	bank, err := a.SettlementService.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to bootstrap bank: %w", err)
	}
	logger.Info("Bank ready", "name", bank.Name, "balance", bank.Balance.String())

	go a.OrderService.RunSweeper(ctx, cfg.Ledger.SweepInterval)

	fiberApp := webapi.SetupApp(a)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- fiberApp.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutting down server")
	if err := fiberApp.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.Canceled) {
		slog.Default().Error("Graceful shutdown failed", "error", err)
		return err
	}
	return <-errCh
}
