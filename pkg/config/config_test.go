package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := loadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "Banco Central Deuna", cfg.Ledger.BankName)
	assert.True(t, decimal.RequireFromString("100000").Equal(cfg.Ledger.BankSeed))
	assert.True(t, decimal.RequireFromString("0.02").Equal(cfg.Ledger.FeeRate))
	assert.Equal(t, 15*time.Minute, cfg.Ledger.CodeTTL)
	assert.Equal(t, 24*time.Hour, cfg.Ledger.TransferWindow)
	assert.Equal(t, "memory", cfg.EventBus.Driver)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("LEDGER_FEE_RATE", "0.035")
	t.Setenv("LEDGER_CODE_TTL", "30s")
	t.Setenv("APP_ENV", "production")

	cfg, err := loadFromEnv()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.035").Equal(cfg.Ledger.FeeRate))
	assert.Equal(t, 30*time.Second, cfg.Ledger.CodeTTL)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"fee rate too high": {"LEDGER_FEE_RATE", "1.5"},
		"zero code ttl":     {"LEDGER_CODE_TTL", "0s"},
		"no retries":        {"LEDGER_CODE_RETRIES", "0"},
		"unknown bus":       {"EVENTBUS_DRIVER", "nats"},
		"unknown cache":     {"ALIAS_CACHE_DRIVER", "memcached"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := loadFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "****", maskValue("abc"))
	assert.Equal(t, "po****able", maskValue("postgres://u:p@h/db?sslmode=disable"))
}
