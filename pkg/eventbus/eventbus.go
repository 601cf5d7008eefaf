// Package eventbus defines the publish/subscribe contract for domain events.
package eventbus

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/domain/events"
)

// HandlerFunc handles one event.
type HandlerFunc func(ctx context.Context, event events.Event) error

// Bus delivers events to handlers registered by type.
type Bus interface {
	Register(eventType string, handler HandlerFunc)
	Emit(ctx context.Context, event events.Event) error
}

// Publish stamps evt with the request metadata in ctx and emits it. Delivery
// is best-effort: committed ledger work is never undone because an event was
// lost, so failures are logged and swallowed.
func Publish(ctx context.Context, bus Bus, logger *slog.Logger, evt events.Stampable, at time.Time) {
	if bus == nil {
		return
	}
	evt.SetMeta(events.Meta{RequestMeta: audit.RequestMetaFrom(ctx), OccurredAt: at})
	// Handlers must not be cancelled by the end of the request that emitted the event.
	if err := bus.Emit(context.WithoutCancel(ctx), evt); err != nil && logger != nil {
		logger.Error("failed to emit event", "type", evt.Type(), "error", err)
	}
}
