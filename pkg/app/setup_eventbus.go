// Package app wires the services together and registers the event handlers
// every committed operation fans out to.
package app

import (
	"context"

	"github.com/amirasaad/codepay/pkg/domain/events"
)

// setupEventBus registers all event handlers with the configured bus.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	a.AuditSink.Subscribe(bus)
	a.setupAliasHandlers()
}

// setupAliasHandlers keeps the alias cache warm on instances that did not
// serve the creating request.
func (a *App) setupAliasHandlers() {
	c := a.Deps.AliasCache
	if c == nil || a.Config == nil || a.Config.AliasCache == nil {
		return
	}
	ttl := a.Config.AliasCache.TTL
	a.Deps.EventBus.Register(
		events.TypeAliasCreated,
		func(ctx context.Context, evt events.Event) error {
			e, ok := evt.(*events.AliasCreated)
			if !ok {
				return nil
			}
			return c.Set(ctx, e.AliasValue, e.UserID, ttl)
		},
	)
}
