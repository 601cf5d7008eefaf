package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/domain/events"
	ledgerdomain "github.com/amirasaad/codepay/pkg/domain/ledger"
	"github.com/amirasaad/codepay/pkg/eventbus"
	"github.com/amirasaad/codepay/pkg/ledger"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/amirasaad/codepay/pkg/repository"
)

// Demo identities created by SeedDemo.
const (
	DemoUserEmail     = "cliente@demo.com"
	DemoUserName      = "Cliente Demo"
	DemoMerchantEmail = "comercio@demo.com"
	DemoMerchantName  = "Mi Tienda Demo"
)

// RechargeReceipt is the outcome of a bank-funded top-up.
type RechargeReceipt struct {
	UserID            string       `json:"userId"`
	Amount            money.Amount `json:"amount"`
	NewBalance        money.Amount `json:"newBalance"`
	TransactionID     string       `json:"transactionId"`
	BankTransactionID string       `json:"bankTransactionId"`
}

// Bootstrap loads the bank account, creating it with the configured seed
// and an initial_deposit row when absent.
func (s *Service) Bootstrap(ctx context.Context) (*account.Account, error) {
	unlock, err := s.lockAccounts(ctx, account.BankID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var bank *account.Account
	created := false
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		bank, err = accounts.Get(ctx, account.BankID)
		if err == nil || !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		now := s.now()
		bank = &account.Account{
			ID:        account.BankID,
			Kind:      account.KindBank,
			Name:      s.policy.BankName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := accounts.Create(ctx, bank); err != nil {
			return err
		}
		created = true
		if s.policy.BankSeed == 0 {
			return nil
		}
		res, err := s.recorder.Post(ctx, uow, ledger.Posting{
			AccountID:   account.BankID,
			Type:        ledgerdomain.TypeInitialDeposit,
			Delta:       s.policy.BankSeed,
			Description: "Depósito inicial del banco",
		})
		if err != nil {
			return err
		}
		bank = res.Account
		return nil
	})
	if err != nil {
		s.logger.Error("Bootstrap failed", "error", err)
		return nil, err
	}
	if created {
		s.logger.Info("bank created", "name", bank.Name, "balance", bank.Balance)
	}
	return bank, nil
}

// CreateUser opens a user wallet funded by the bank with the welcome amount.
func (s *Service) CreateUser(ctx context.Context, name, email string) (*account.Account, error) {
	logger := s.logger.With("email", email)
	logger.Info("CreateUser started")
	name, email, err := s.validIdentity(name, email)
	if err != nil {
		logger.Warn("CreateUser failed", "error", err)
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, account.KindUser, email); err != nil {
		logger.Warn("CreateUser failed", "error", err)
		return nil, err
	}

	now := s.now()
	user := &account.Account{
		ID:        s.ids.NewID(),
		Kind:      account.KindUser,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	unlock, err := s.lockAccounts(ctx, user.ID, account.BankID)
	if err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		if err := accounts.Create(ctx, user); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return domain.ErrDuplicateEmail
			}
			return err
		}
		if s.policy.WelcomeAmount == 0 {
			return nil
		}
		bankRes, err := s.recorder.Post(ctx, uow, ledger.Posting{
			AccountID:   account.BankID,
			Type:        ledgerdomain.TypeUserCreation,
			Delta:       -s.policy.WelcomeAmount,
			Description: fmt.Sprintf("Saldo inicial para %s", name),
			RelatedID:   user.ID,
		})
		if err != nil {
			return bankErr(err)
		}
		userRes, err := s.recorder.Post(ctx, uow, ledger.Posting{
			AccountID:   user.ID,
			Type:        ledgerdomain.TypeRecharge,
			Delta:       s.policy.WelcomeAmount,
			Description: "Saldo inicial de bienvenida",
			RelatedID:   bankRes.Entry.ID,
		})
		if err != nil {
			return err
		}
		*user = *userRes.Account
		return nil
	})
	unlock()
	if err != nil {
		logger.Error("CreateUser failed", "error", err)
		return nil, err
	}

	logger.Info("CreateUser succeeded", "userID", user.ID, "balance", user.Balance)
	eventbus.Publish(audit.WithActor(ctx, user.ID, audit.ActorUser), s.bus, s.logger, &events.UserCreated{
		UserID:        user.ID,
		Name:          user.Name,
		Email:         user.Email,
		WelcomeAmount: s.policy.WelcomeAmount,
	}, now)
	return user, nil
}

// CreateMerchant opens a merchant account with a zero balance.
func (s *Service) CreateMerchant(ctx context.Context, name, email string) (*account.Account, error) {
	logger := s.logger.With("email", email)
	logger.Info("CreateMerchant started")
	name, email, err := s.validIdentity(name, email)
	if err != nil {
		logger.Warn("CreateMerchant failed", "error", err)
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, account.KindMerchant, email); err != nil {
		logger.Warn("CreateMerchant failed", "error", err)
		return nil, err
	}

	now := s.now()
	merchant := &account.Account{
		ID:        s.ids.NewID(),
		Kind:      account.KindMerchant,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	if err := accounts.Create(ctx, merchant); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			err = domain.ErrDuplicateEmail
		}
		logger.Error("CreateMerchant failed", "error", err)
		return nil, err
	}

	logger.Info("CreateMerchant succeeded", "merchantID", merchant.ID)
	eventbus.Publish(audit.WithActor(ctx, merchant.ID, audit.ActorMerchant), s.bus, s.logger, &events.MerchantCreated{
		MerchantID: merchant.ID,
		Name:       merchant.Name,
		Email:      merchant.Email,
	}, now)
	return merchant, nil
}

// Recharge tops up a user wallet from the bank.
func (s *Service) Recharge(ctx context.Context, userID string, amount money.Amount) (*RechargeReceipt, error) {
	logger := s.logger.With("userID", userID, "amount", amount)
	logger.Info("Recharge started")
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	if _, err := getAccount(ctx, accounts, userID, account.KindUser, domain.ErrUserNotFound); err != nil {
		logger.Warn("Recharge failed", "error", err)
		return nil, err
	}

	unlock, err := s.lockAccounts(ctx, userID, account.BankID)
	if err != nil {
		return nil, err
	}
	receipt := &RechargeReceipt{UserID: userID, Amount: amount}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		bankRes, err := s.recorder.Post(ctx, uow, ledger.Posting{
			AccountID:   account.BankID,
			Type:        ledgerdomain.TypeUserRecharge,
			Delta:       -amount,
			Description: "Recarga de saldo a usuario",
			RelatedID:   userID,
		})
		if err != nil {
			return bankErr(err)
		}
		userRes, err := s.recorder.Post(ctx, uow, ledger.Posting{
			AccountID:   userID,
			Type:        ledgerdomain.TypeRecharge,
			Delta:       amount,
			Description: "Recarga desde banco",
			RelatedID:   bankRes.Entry.ID,
		})
		if err != nil {
			return err
		}
		receipt.NewBalance = userRes.Account.Balance
		receipt.TransactionID = userRes.Entry.ID
		receipt.BankTransactionID = bankRes.Entry.ID
		return nil
	})
	unlock()
	if err != nil {
		logger.Error("Recharge failed", "error", err)
		return nil, err
	}

	logger.Info("Recharge succeeded", "newBalance", receipt.NewBalance)
	eventbus.Publish(audit.WithActor(ctx, userID, audit.ActorUser), s.bus, s.logger, &events.UserRecharged{
		UserID:      userID,
		Amount:      amount,
		NewBalance:  receipt.NewBalance,
		BankEntryID: receipt.BankTransactionID,
		UserEntryID: receipt.TransactionID,
	}, s.now())
	return receipt, nil
}

// SeedDemo makes sure the bank, the demo user and the demo merchant exist.
func (s *Service) SeedDemo(ctx context.Context) (user, merchant *account.Account, err error) {
	if _, err = s.Bootstrap(ctx); err != nil {
		return nil, nil, err
	}
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, nil, err
	}

	user, err = accounts.GetByEmail(ctx, account.KindUser, DemoUserEmail)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = s.CreateUser(ctx, DemoUserName, DemoUserEmail)
	}
	if err != nil {
		return nil, nil, err
	}

	merchant, err = accounts.GetByEmail(ctx, account.KindMerchant, DemoMerchantEmail)
	if errors.Is(err, domain.ErrNotFound) {
		merchant, err = s.CreateMerchant(ctx, DemoMerchantName, DemoMerchantEmail)
	}
	if err != nil {
		return nil, nil, err
	}
	return user, merchant, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, kind account.Kind, email string) error {
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return err
	}
	_, err = accounts.GetByEmail(ctx, kind, email)
	switch {
	case err == nil:
		return domain.ErrDuplicateEmail
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

// bankErr maps a missing bank row to ErrBankNotFound.
func bankErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrBankNotFound
	}
	return err
}
