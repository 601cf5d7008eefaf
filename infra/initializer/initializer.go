package initializer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/codepay/infra"
	infracache "github.com/amirasaad/codepay/infra/cache"
	infraeventbus "github.com/amirasaad/codepay/infra/eventbus"
	"github.com/amirasaad/codepay/infra/migrations"
	infrarepo "github.com/amirasaad/codepay/infra/repository"
	"github.com/amirasaad/codepay/pkg/cache"
	"github.com/amirasaad/codepay/pkg/config"
	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/eventbus"
	"github.com/amirasaad/codepay/pkg/ident"
	"github.com/amirasaad/codepay/pkg/lock"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitializeDependencies builds the logger, database, event bus, alias cache
// and lock table described by cfg. The returned cleanup releases them in
// reverse order.
func InitializeDependencies(cfg *config.App) (
	deps *config.Deps,
	cleanup func(),
	err error,
) {
	logger := setupLogger(cfg.Log)
	var closers []func() error
	cleanup = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("Failed to release resource", "error", err)
			}
		}
	}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	// Initialize database
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, nil, err
	}
	closers = append(closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	if cfg.DB.Migrate {
		if err = migrateSchema(db, cfg.DB, logger); err != nil {
			return nil, nil, err
		}
	}

	bus, closeBus, err := initEventBus(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeBus)

	aliasCache, closeCache, err := initAliasCache(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeCache)

	deps = &config.Deps{
		Uow:        infrarepo.NewUoW(db),
		EventBus:   bus,
		AliasCache: aliasCache,
		Locks:      lock.NewKeyed(account.BankID, cfg.Ledger.LockTimeout),
		IDs:        ident.New(),
		Logger:     logger,
		Config:     cfg,
	}
	return deps, cleanup, nil
}

// migrateSchema runs the versioned SQL migrations on postgres and gorm's
// AutoMigrate on sqlite.
func migrateSchema(db *gorm.DB, cfg *config.DB, logger *slog.Logger) error {
	if infra.IsSQLite(cfg.Url) {
		logger.Info("Auto-migrating sqlite schema")
		return infrarepo.AutoMigrate(db)
	}
	if err := migrations.Up(db); err != nil {
		logger.Error("Failed to apply migrations", "error", err)
		return err
	}
	version, dirty, err := migrations.Version(db)
	if err != nil {
		return err
	}
	logger.Info("Schema up to date", "version", version, "dirty", dirty)
	return nil
}

func noopClose() error { return nil }

// initEventBus selects the bus driver. A redis or kafka bus that cannot be
// reached falls back to the in-process bus so the ledger keeps serving.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, func() error, error) {
	driver := "memory"
	if cfg.EventBus != nil && cfg.EventBus.Driver != "" {
		driver = cfg.EventBus.Driver
	}

	switch driver {
	case "memory":
		logger.Info("Using in-memory event bus")
		return infraeventbus.NewWithMemory(logger), noopClose, nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, nil, errors.New("EVENTBUS_DRIVER=redis requires REDIS_URL")
		}
		bus, err := infraeventbus.NewWithRedis(
			cfg.Redis.URL,
			cfg.EventBus.RedisStream,
			cfg.EventBus.RedisGroup,
			nil,
			logger,
		)
		if err != nil {
			logger.Warn("Redis event bus unavailable, falling back to memory", "error", err)
			return infraeventbus.NewWithMemory(logger), noopClose, nil
		}
		logger.Info("Using Redis Streams event bus", "stream", cfg.EventBus.RedisStream)
		return bus, bus.Close, nil
	case "kafka":
		if cfg.Kafka == nil || cfg.Kafka.Brokers == "" {
			return nil, nil, errors.New("EVENTBUS_DRIVER=kafka requires KAFKA_BROKERS")
		}
		kcfg := infraeventbus.DefaultKafkaConfig()
		kcfg.GroupID = cfg.Kafka.GroupID
		kcfg.TopicPrefix = cfg.Kafka.TopicPrefix
		kcfg.SASLUsername = cfg.Kafka.SASLUsername
		kcfg.SASLPassword = cfg.Kafka.SASLPassword
		kcfg.TLSEnabled = cfg.Kafka.TLSEnabled
		bus, err := infraeventbus.NewWithKafka(cfg.Kafka.Brokers, logger, kcfg)
		if err != nil {
			logger.Warn("Kafka event bus unavailable, falling back to memory", "error", err)
			return infraeventbus.NewWithMemory(logger), noopClose, nil
		}
		logger.Info("Using Kafka event bus", "brokers", cfg.Kafka.Brokers)
		return bus, bus.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported event bus driver %q", driver)
	}
}

func initAliasCache(cfg *config.App, logger *slog.Logger) (cache.AliasCache, func() error, error) {
	driver, purgeEvery := "memory", time.Duration(0)
	if cfg.AliasCache != nil {
		purgeEvery = cfg.AliasCache.TTL
		if cfg.AliasCache.Driver != "" {
			driver = cfg.AliasCache.Driver
		}
	}

	switch driver {
	case "memory":
		c := infracache.NewMemoryCache(purgeEvery)
		return c, func() error { c.Close(); return nil }, nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, nil, errors.New("ALIAS_CACHE_DRIVER=redis requires REDIS_URL")
		}
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opt.PoolSize = cfg.Redis.PoolSize
		opt.DialTimeout = cfg.Redis.DialTimeout
		opt.ReadTimeout = cfg.Redis.ReadTimeout
		opt.WriteTimeout = cfg.Redis.WriteTimeout
		c := infracache.NewRedisCacheWithOptions(opt, cfg.Redis.KeyPrefix, logger)
		logger.Info("Using Redis alias cache", "prefix", cfg.Redis.KeyPrefix)
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported alias cache driver %q", driver)
	}
}
