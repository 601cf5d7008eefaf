package app

import (
	"fmt"

	"github.com/amirasaad/codepay/pkg/config"
	accountsvc "github.com/amirasaad/codepay/pkg/service/account"
	aliassvc "github.com/amirasaad/codepay/pkg/service/alias"
	auditsvc "github.com/amirasaad/codepay/pkg/service/audit"
	ordersvc "github.com/amirasaad/codepay/pkg/service/order"
	"github.com/amirasaad/codepay/pkg/service/reversal"
	"github.com/amirasaad/codepay/pkg/service/settlement"
)

// App bundles the services behind every outer surface (HTTP, CLI).
type App struct {
	Deps              *config.Deps
	Config            *config.App
	OrderService      *ordersvc.Service
	SettlementService *settlement.Service
	ReversalService   *reversal.Service
	AliasService      *aliassvc.Service
	AccountService    *accountsvc.Service
	AuditSink         *auditsvc.Sink
}

// New builds every service from deps and subscribes the event handlers.
func New(deps *config.Deps) (*App, error) {
	app := &App{
		Deps:   deps,
		Config: deps.Config,
	}
	app.OrderService = ordersvc.New(*deps)
	app.AliasService = aliassvc.New(*deps)
	app.AccountService = accountsvc.New(*deps)
	app.ReversalService = reversal.New(*deps)
	app.AuditSink = auditsvc.New(*deps)

	settle, err := settlement.New(*deps, app.OrderService, app.AliasService)
	if err != nil {
		return nil, fmt.Errorf("settlement policy: %w", err)
	}
	app.SettlementService = settle

	app.setupEventBus()
	return app, nil
}
