// Package alias resolves human-friendly handles to user ids.
package alias

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/codepay/pkg/cache"
	"github.com/amirasaad/codepay/pkg/config"
	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/domain/alias"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/domain/events"
	"github.com/amirasaad/codepay/pkg/eventbus"
	"github.com/amirasaad/codepay/pkg/ident"
	"github.com/amirasaad/codepay/pkg/repository"
	"golang.org/x/sync/singleflight"
)

// Service creates and resolves aliases.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	cache  cache.AliasCache
	ttl    time.Duration
	ids    ident.Generator
	now    func() time.Time
	group  singleflight.Group
	logger *slog.Logger
}

// New creates a Service. A nil cache disables caching.
func New(deps config.Deps) *Service {
	ttl := 10 * time.Minute
	if deps.Config != nil && deps.Config.AliasCache != nil {
		ttl = deps.Config.AliasCache.TTL
	}
	return &Service{
		uow:    deps.Uow,
		bus:    deps.EventBus,
		cache:  deps.AliasCache,
		ttl:    ttl,
		ids:    deps.IDs,
		now:    deps.Now,
		logger: deps.Logger.With("service", "alias"),
	}
}

// Create binds aliasValue to userID.
func (s *Service) Create(ctx context.Context, userID, aliasType, aliasValue string) (*alias.Alias, error) {
	aliasType = strings.TrimSpace(aliasType)
	aliasValue = strings.TrimSpace(aliasValue)
	logger := s.logger.With("userID", userID, "aliasType", aliasType, "aliasValue", aliasValue)
	logger.Info("Create alias started")
	if userID == "" || aliasType == "" || aliasValue == "" {
		return nil, domain.ErrMissingField
	}

	a := &alias.Alias{
		ID:        s.ids.NewID(),
		Type:      aliasType,
		Value:     aliasValue,
		UserID:    userID,
		CreatedAt: s.now(),
	}
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		aliases, err := uow.AliasRepository()
		if err != nil {
			return err
		}
		user, err := accounts.Get(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && user.Kind != account.KindUser) {
			return domain.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if _, err := aliases.GetByValue(ctx, aliasValue); err == nil {
			return domain.ErrAliasInUse
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err := aliases.Create(ctx, a); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return domain.ErrAliasInUse
			}
			return err
		}
		return nil
	})
	if err != nil {
		logger.Error("Create alias failed", "error", err)
		return nil, err
	}

	s.store(ctx, a.Value, a.UserID)
	logger.Info("Create alias succeeded", "aliasID", a.ID)
	eventbus.Publish(audit.WithActor(ctx, userID, audit.ActorUser), s.bus, s.logger, &events.AliasCreated{
		AliasID:    a.ID,
		UserID:     a.UserID,
		AliasType:  a.Type,
		AliasValue: a.Value,
	}, a.CreatedAt)
	return a, nil
}

// Get returns the alias record for value.
func (s *Service) Get(ctx context.Context, value string) (*alias.Alias, error) {
	aliases, err := s.uow.AliasRepository()
	if err != nil {
		return nil, err
	}
	a, err := aliases.GetByValue(ctx, strings.TrimSpace(value))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrAliasNotFound
	}
	return a, err
}

// Resolve returns the user id bound to value. Cache misses for the same value
// share one storage lookup.
func (s *Service) Resolve(ctx context.Context, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", domain.ErrMissingField
	}
	if s.cache != nil {
		if id, ok, err := s.cache.Get(ctx, value); err != nil {
			s.logger.Warn("alias cache read failed", "error", err)
		} else if ok {
			return id, nil
		}
	}

	v, err, _ := s.group.Do(value, func() (any, error) {
		a, err := s.Get(ctx, value)
		if err != nil {
			return "", err
		}
		s.store(ctx, a.Value, a.UserID)
		return a.UserID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Service) store(ctx context.Context, value, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, value, userID, s.ttl); err != nil {
		s.logger.Warn("alias cache write failed", "error", err)
	}
}
