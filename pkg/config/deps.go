package config

import (
	"log/slog"
	"time"

	"github.com/amirasaad/codepay/pkg/cache"
	"github.com/amirasaad/codepay/pkg/eventbus"
	"github.com/amirasaad/codepay/pkg/ident"
	"github.com/amirasaad/codepay/pkg/lock"
	"github.com/amirasaad/codepay/pkg/repository"
)

// Deps holds the shared collaborators every service is built from.
type Deps struct {
	Uow        repository.UnitOfWork
	EventBus   eventbus.Bus
	AliasCache cache.AliasCache
	Locks      *lock.Keyed
	IDs        ident.Generator
	// Clock returns the current time in UTC.
	Clock  func() time.Time
	Logger *slog.Logger
	Config *App
}

// Now returns the time from Clock, or time.Now in UTC when unset.
func (d Deps) Now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now().UTC()
}
