package config

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

var decimalOne = decimal.NewFromInt(1)

func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	if len(envFilePath) == 0 {
		logger.Debug("No environment file specified, trying default .env")
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env file found in current directory")
		}
		return loadFromEnv()
	}

	for _, path := range envFilePath {
		logger.Debug("Looking for environment file", "path", path)
		foundPath, err := FindEnvTest(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}

		logger.Info("Loading environment from file", "path", foundPath)
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		return loadFromEnv()
	}

	logger.Info("No valid environment files found, using default .env")
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found in current directory")
	}
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := slog.Default()
	logger.Info("App config loaded",
		"env", cfg.Env,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
		"db", maskValue(cfg.DB.Url),
		"eventbus_driver", cfg.EventBus.Driver,
		"alias_cache_driver", cfg.AliasCache.Driver,
		"jwt_secret", maskValue(cfg.Auth.Jwt.Secret),
		"fee_rate", cfg.Ledger.FeeRate.String(),
		"code_ttl", cfg.Ledger.CodeTTL,
		"transfer_limit", cfg.Ledger.TransferLimit.String(),
	)
	return &cfg, nil
}

func (a *App) validate() error {
	l := a.Ledger
	if l.FeeRate.IsNegative() || l.FeeRate.GreaterThanOrEqual(decimalOne) {
		return fmt.Errorf("LEDGER_FEE_RATE must be in [0, 1), got %s", l.FeeRate)
	}
	if l.BankSeed.IsNegative() || l.WelcomeAmount.IsNegative() || !l.TransferLimit.IsPositive() {
		return fmt.Errorf("LEDGER amounts must be non-negative and the transfer limit positive")
	}
	if l.CodeTTL <= 0 {
		return fmt.Errorf("LEDGER_CODE_TTL must be positive, got %s", l.CodeTTL)
	}
	if l.CodeRetries < 1 {
		return fmt.Errorf("LEDGER_CODE_RETRIES must be at least 1, got %d", l.CodeRetries)
	}
	switch a.EventBus.Driver {
	case "memory", "redis", "kafka":
	default:
		return fmt.Errorf("unsupported EVENTBUS_DRIVER %q", a.EventBus.Driver)
	}
	switch a.AliasCache.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported ALIAS_CACHE_DRIVER %q", a.AliasCache.Driver)
	}
	return nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
