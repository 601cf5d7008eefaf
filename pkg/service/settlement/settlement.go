// Package settlement moves money between the bank, users and merchants.
//
// Every operation follows the same discipline: validate, take the process
// locks of every touched account in global order (bank last), then apply all
// balance changes and their ledger rows in a single unit of work. Events are
// published only after commit and after the locks are released.
package settlement

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/codepay/pkg/config"
	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/eventbus"
	"github.com/amirasaad/codepay/pkg/ident"
	"github.com/amirasaad/codepay/pkg/ledger"
	"github.com/amirasaad/codepay/pkg/lock"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/amirasaad/codepay/pkg/repository"
	ordersvc "github.com/amirasaad/codepay/pkg/service/order"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// AliasResolver maps an alias value to a user id.
type AliasResolver interface {
	Resolve(ctx context.Context, value string) (string, error)
}

// Policy is the monetary configuration of the engine.
type Policy struct {
	BankName       string
	BankSeed       money.Amount
	WelcomeAmount  money.Amount
	FeeRate        decimal.Decimal
	TransferLimit  money.Amount
	TransferWindow time.Duration
}

// PolicyFromConfig converts the ledger settings to cents.
func PolicyFromConfig(c *config.Ledger) (Policy, error) {
	seed, err := money.FromDecimal(c.BankSeed)
	if err != nil {
		return Policy{}, err
	}
	welcome, err := money.FromDecimal(c.WelcomeAmount)
	if err != nil {
		return Policy{}, err
	}
	limit, err := money.FromDecimal(c.TransferLimit)
	if err != nil {
		return Policy{}, err
	}
	return Policy{
		BankName:       c.BankName,
		BankSeed:       seed,
		WelcomeAmount:  welcome,
		FeeRate:        c.FeeRate,
		TransferLimit:  limit,
		TransferWindow: c.TransferWindow,
	}, nil
}

// Service is the settlement engine.
type Service struct {
	uow      repository.UnitOfWork
	bus      eventbus.Bus
	locks    *lock.Keyed
	ids      ident.Generator
	recorder *ledger.Recorder
	orders   *ordersvc.Service
	aliases  AliasResolver
	policy   Policy
	now      func() time.Time
	validate *validator.Validate
	logger   *slog.Logger
}

// New builds the engine. orders supplies lazy expiry; aliases may be nil when
// transfers by alias are not needed.
func New(deps config.Deps, orders *ordersvc.Service, aliases AliasResolver) (*Service, error) {
	policy, err := PolicyFromConfig(deps.Config.Ledger)
	if err != nil {
		return nil, err
	}
	return &Service{
		uow:      deps.Uow,
		bus:      deps.EventBus,
		locks:    deps.Locks,
		ids:      deps.IDs,
		recorder: ledger.NewRecorder(deps.IDs, deps.Now),
		orders:   orders,
		aliases:  aliases,
		policy:   policy,
		now:      deps.Now,
		validate: validator.New(),
		logger:   deps.Logger.With("service", "settlement"),
	}, nil
}

// Policy returns the engine's monetary settings.
func (s *Service) Policy() Policy { return s.policy }

// Split computes the fee and merchant share of amount.
func (s *Service) Split(amount money.Amount) money.Split {
	return money.SplitFee(amount, s.policy.FeeRate)
}

// lockAccounts takes the process locks for keys; the bank always goes last.
func (s *Service) lockAccounts(ctx context.Context, keys ...string) (func(), error) {
	return s.locks.Lock(ctx, keys...)
}

// getAccount loads id and checks its kind, translating a miss to notFound.
func getAccount(ctx context.Context, repo repository.AccountRepository, id string, kind account.Kind, notFound error) (*account.Account, error) {
	if id == "" {
		return nil, notFound
	}
	a, err := repo.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	if a.Kind != kind {
		return nil, notFound
	}
	return a, nil
}

func (s *Service) validIdentity(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return "", "", domain.ErrMissingField
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return "", "", domain.ErrInvalidEmail
	}
	return name, email, nil
}
