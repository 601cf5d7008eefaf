package initializer

import (
	"io"
	"log/slog"
	"testing"
	"time"

	infracache "github.com/amirasaad/codepay/infra/cache"
	infraeventbus "github.com/amirasaad/codepay/infra/eventbus"
	"github.com/amirasaad/codepay/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitEventBus_DefaultsToMemoryWhenNoExplicitDriver(t *testing.T) {
	cfg := &config.App{
		Redis:    &config.Redis{URL: "redis://localhost:6379/0"},
		EventBus: &config.EventBus{Driver: ""},
	}

	bus, closeBus, err := initEventBus(cfg, discard())
	require.NoError(t, err)
	require.IsType(t, &infraeventbus.MemoryBus{}, bus)
	assert.NoError(t, closeBus())
}

func TestInitEventBus_ExplicitRedisRequiresURL(t *testing.T) {
	cfg := &config.App{
		Redis:    &config.Redis{URL: ""},
		EventBus: &config.EventBus{Driver: "redis"},
	}

	_, _, err := initEventBus(cfg, discard())
	require.Error(t, err)
}

func TestInitEventBus_RedisConnectionErrorFallsBackToMemory(t *testing.T) {
	cfg := &config.App{
		Redis:    &config.Redis{URL: "redis://127.0.0.1:1"},
		EventBus: &config.EventBus{Driver: "redis", RedisStream: "s", RedisGroup: "g"},
	}

	bus, _, err := initEventBus(cfg, discard())
	require.NoError(t, err)
	require.IsType(t, &infraeventbus.MemoryBus{}, bus)
}

func TestInitEventBus_ExplicitKafkaRequiresBrokers(t *testing.T) {
	cfg := &config.App{
		EventBus: &config.EventBus{Driver: "kafka"},
		Kafka:    &config.Kafka{Brokers: ""},
	}

	_, _, err := initEventBus(cfg, discard())
	require.Error(t, err)
}

func TestInitEventBus_KafkaConnectionErrorFallsBackToMemory(t *testing.T) {
	cfg := &config.App{
		EventBus: &config.EventBus{Driver: "kafka"},
		Kafka:    &config.Kafka{Brokers: "127.0.0.1:1", TopicPrefix: "codepay.events", GroupID: "codepay"},
	}

	bus, _, err := initEventBus(cfg, discard())
	require.NoError(t, err)
	require.IsType(t, &infraeventbus.MemoryBus{}, bus)
}

func TestInitEventBus_UnsupportedDriverErrors(t *testing.T) {
	cfg := &config.App{
		EventBus: &config.EventBus{Driver: "nope"},
	}

	_, _, err := initEventBus(cfg, discard())
	require.Error(t, err)
}

func TestInitAliasCache(t *testing.T) {
	c, closeCache, err := initAliasCache(&config.App{
		AliasCache: &config.AliasCache{Driver: "memory", TTL: time.Minute},
	}, discard())
	require.NoError(t, err)
	require.IsType(t, &infracache.MemoryCache{}, c)
	assert.NoError(t, closeCache())

	_, _, err = initAliasCache(&config.App{
		AliasCache: &config.AliasCache{Driver: "redis"},
	}, discard())
	assert.Error(t, err)

	_, _, err = initAliasCache(&config.App{
		AliasCache: &config.AliasCache{Driver: "memcached"},
	}, discard())
	assert.Error(t, err)
}

func TestInitializeDependencies_SQLite(t *testing.T) {
	cfg := &config.App{
		Env:        "test",
		Log:        &config.Log{Format: "text", Level: 4},
		DB:         &config.DB{Url: "sqlite://file:init_test?mode=memory&cache=shared", Migrate: true},
		EventBus:   &config.EventBus{Driver: "memory"},
		AliasCache: &config.AliasCache{Driver: "memory", TTL: time.Minute},
		Ledger:     &config.Ledger{LockTimeout: time.Second},
	}

	deps, cleanup, err := InitializeDependencies(cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, deps.Uow)
	assert.NotNil(t, deps.Locks)
	assert.Same(t, cfg, deps.Config)
	_, err = deps.Uow.AccountRepository()
	assert.NoError(t, err)
}
