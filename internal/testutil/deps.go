package testutil

import (
	"sync"
	"testing"
	"time"

	infracache "github.com/amirasaad/codepay/infra/cache"
	infrabus "github.com/amirasaad/codepay/infra/eventbus"
	infrarepo "github.com/amirasaad/codepay/infra/repository"
	"github.com/amirasaad/codepay/pkg/config"
	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/ident"
	"github.com/amirasaad/codepay/pkg/lock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Epoch is the instant every test clock starts at.
var Epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Env is a fully wired set of service dependencies over sqlite.
type Env struct {
	Deps  config.Deps
	Uow   *infrarepo.UoW
	DB    *gorm.DB
	Bus   *infrabus.MemoryBus
	Cache *infracache.MemoryCache
	Clock *Clock
}

// AppConfig returns the default application settings used by tests.
func AppConfig() *config.App {
	return &config.App{
		Env: "test",
		Ledger: &config.Ledger{
			BankName:       "Banco Central Deuna",
			BankSeed:       decimal.RequireFromString("100000"),
			WelcomeAmount:  decimal.RequireFromString("100"),
			FeeRate:        decimal.RequireFromString("0.02"),
			CodeTTL:        15 * time.Minute,
			CodeRetries:    5,
			TransferLimit:  decimal.RequireFromString("5000"),
			TransferWindow: 24 * time.Hour,
			LockTimeout:    5 * time.Second,
		},
		AliasCache: &config.AliasCache{Driver: "memory", TTL: 10 * time.Minute},
		Auth:       &config.Auth{Jwt: &config.Jwt{Secret: "test-secret", Expiry: time.Hour}},
		RateLimit:  &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
	}
}

// NewEnv wires a fresh database, memory bus, memory cache and clock.
func NewEnv(tb testing.TB) *Env {
	tb.Helper()
	uow, db := NewUoW(tb)
	clock := NewClock(Epoch)
	logger := DiscardLogger()
	bus := infrabus.NewWithMemory(logger)
	c := infracache.NewMemoryCache(0)
	tb.Cleanup(c.Close)
	cfg := AppConfig()
	return &Env{
		Deps: config.Deps{
			Uow:        uow,
			EventBus:   bus,
			AliasCache: c,
			Locks:      lock.NewKeyed(account.BankID, cfg.Ledger.LockTimeout),
			IDs:        ident.New(),
			Clock:      clock.Now,
			Logger:     logger,
			Config:     cfg,
		},
		Uow:   uow,
		DB:    db,
		Bus:   bus,
		Cache: c,
		Clock: clock,
	}
}

// ScriptedCodes is a Generator whose payment codes come from a fixed list
// before falling back to random ones.
type ScriptedCodes struct {
	ident.Random
	mu    sync.Mutex
	codes []string
}

// NewScriptedCodes returns a generator that hands out codes in order.
func NewScriptedCodes(codes ...string) *ScriptedCodes {
	return &ScriptedCodes{codes: codes}
}

func (g *ScriptedCodes) NewPaymentCode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.codes) == 0 {
		return g.Random.NewPaymentCode()
	}
	c := g.codes[0]
	g.codes = g.codes[1:]
	return c
}
