package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/amirasaad/codepay/infra/initializer"
	"github.com/amirasaad/codepay/pkg/app"
	"github.com/amirasaad/codepay/pkg/config"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// quietLogLevel sits above every level the logger emits, so console output
// is not interleaved with service logs.
const quietLogLevel = int(slog.LevelError) + 4

func main() {
	color.NoColor = !term.IsTerminal(int(os.Stdout.Fd()))
	if len(os.Args) < 2 {
		usage(os.Stdout)
		return
	}

	cfg, err := config.Load(".env")
	if err != nil {
		fail(err)
	}
	// The console shares the server's database but never its bus consumers.
	cfg.EventBus.Driver = "memory"
	cfg.Log.Level = quietLogLevel

	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		fail(err)
	}
	defer cleanup()
	a, err := app.New(deps)
	if err != nil {
		fail(err)
	}

	ctx := context.Background()
	if _, err := a.SettlementService.Bootstrap(ctx); err != nil {
		fail(err)
	}
	if err := newConsole(a, os.Stdout).run(ctx, os.Args[1:]); err != nil {
		cleanup()
		fail(err)
	}
}

func fail(err error) {
	_, _ = color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
