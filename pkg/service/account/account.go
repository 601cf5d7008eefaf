// Package account answers read-only questions about balances and history.
package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/amirasaad/codepay/pkg/config"
	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/account"
	ledgerdomain "github.com/amirasaad/codepay/pkg/domain/ledger"
	"github.com/amirasaad/codepay/pkg/domain/payment"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/amirasaad/codepay/pkg/repository"
)

// Default page sizes.
const (
	SearchLimit      = 10
	UserHistoryLimit = 50
	BankHistoryLimit = 100
)

// BankStatus summarizes the bank and the money held across all accounts.
type BankStatus struct {
	Bank *account.Account `json:"bank"`
	// TotalBalances covers bank, users and merchants. It moves only when the
	// bank is seeded.
	TotalBalances money.Amount `json:"totalBalances"`
}

// Service provides account queries.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates a Service from deps.
func New(deps config.Deps) *Service {
	return &Service{uow: deps.Uow, logger: deps.Logger.With("service", "account")}
}

func (s *Service) get(ctx context.Context, id string, kind account.Kind, notFound error) (*account.Account, error) {
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	a, err := accounts.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && a.Kind != kind) {
		return nil, notFound
	}
	return a, err
}

func (s *Service) getByEmail(ctx context.Context, kind account.Kind, email string, notFound error) (*account.Account, error) {
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	a, err := accounts.GetByEmail(ctx, kind, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, notFound
	}
	return a, err
}

func (s *Service) GetUser(ctx context.Context, id string) (*account.Account, error) {
	return s.get(ctx, id, account.KindUser, domain.ErrUserNotFound)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.getByEmail(ctx, account.KindUser, email, domain.ErrUserNotFound)
}

func (s *Service) GetMerchant(ctx context.Context, id string) (*account.Account, error) {
	return s.get(ctx, id, account.KindMerchant, domain.ErrMerchantNotFound)
}

func (s *Service) GetMerchantByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.getByEmail(ctx, account.KindMerchant, email, domain.ErrMerchantNotFound)
}

// SearchUsersByName matches a case-insensitive name fragment.
func (s *Service) SearchUsersByName(ctx context.Context, fragment string) ([]*account.Account, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, domain.ErrMissingField
	}
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	users, err := accounts.FindByName(ctx, account.KindUser, fragment, SearchLimit)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return users, nil
}

// ListUserTransactions returns the newest ledger rows of a user.
func (s *Service) ListUserTransactions(ctx context.Context, userID string) ([]*ledgerdomain.Entry, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.history(ctx, userID, UserHistoryLimit)
}

// BankStatus returns the bank account and the conservation total.
func (s *Service) BankStatus(ctx context.Context) (*BankStatus, error) {
	bank, err := s.get(ctx, account.BankID, account.KindBank, domain.ErrBankNotFound)
	if err != nil {
		return nil, err
	}
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	total, err := accounts.SumBalances(ctx)
	if err != nil {
		return nil, err
	}
	return &BankStatus{Bank: bank, TotalBalances: total}, nil
}

// ListBankTransactions returns the newest bank ledger rows.
func (s *Service) ListBankTransactions(ctx context.Context) ([]*ledgerdomain.Entry, error) {
	return s.history(ctx, account.BankID, BankHistoryLimit)
}

func (s *Service) history(ctx context.Context, id string, limit int) ([]*ledgerdomain.Entry, error) {
	entries, err := s.uow.LedgerRepository()
	if err != nil {
		return nil, err
	}
	return entries.ListByAccount(ctx, id, limit)
}

// GetPayment returns a payment by id.
func (s *Service) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	payments, err := s.uow.PaymentRepository()
	if err != nil {
		return nil, err
	}
	p, err := payments.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	return p, err
}
