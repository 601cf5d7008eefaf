package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/domain/events"
	ledgerdomain "github.com/amirasaad/codepay/pkg/domain/ledger"
	"github.com/amirasaad/codepay/pkg/domain/order"
	"github.com/amirasaad/codepay/pkg/domain/payment"
	"github.com/amirasaad/codepay/pkg/eventbus"
	"github.com/amirasaad/codepay/pkg/ledger"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/amirasaad/codepay/pkg/repository"
	ordersvc "github.com/amirasaad/codepay/pkg/service/order"
)

// Receipt is the outcome of a settled payment.
type Receipt struct {
	PaymentID        string         `json:"paymentId"`
	OrderID          string         `json:"orderId"`
	Amount           money.Amount   `json:"amount"`
	Fee              money.Amount   `json:"fee"`
	AmountToMerchant money.Amount   `json:"amountToMerchant"`
	NewUserBalance   money.Amount   `json:"newUserBalance"`
	Status           payment.Status `json:"status"`
	ProcessedAt      time.Time      `json:"processedAt"`
}

// errOverdue marks an order that ran past its deadline while waiting for locks.
var errOverdue = errors.New("order overdue")

// ProcessPayment redeems code on behalf of userID. The user is debited the
// full amount, the merchant credited the amount net of fee and the bank
// credited the fee, all in one unit of work gated by the pending→confirmed
// transition of the order.
func (s *Service) ProcessPayment(ctx context.Context, code, userID, method string) (*Receipt, error) {
	logger := s.logger.With("paymentCode", code, "userID", userID)
	logger.Info("ProcessPayment started")
	if !order.ValidCode(code) {
		return nil, domain.ErrInvalidPaymentCode
	}
	if userID == "" {
		return nil, domain.ErrMissingField
	}
	if method == "" {
		method = payment.DefaultMethod
	}

	o, err := s.payableOrder(ctx, code)
	if err != nil {
		logger.Warn("ProcessPayment failed", "error", err)
		return nil, err
	}
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	user, err := getAccount(ctx, accounts, userID, account.KindUser, domain.ErrUserNotFound)
	if err != nil {
		logger.Warn("ProcessPayment failed", "error", err)
		return nil, err
	}

	unlock, err := s.lockAccounts(ctx, "code:"+code, user.ID, o.MerchantID, account.BankID)
	if err != nil {
		logger.Error("ProcessPayment failed: lock", "error", err)
		return nil, err
	}
	split := s.Split(o.Amount)
	var (
		pay     *payment.Payment
		userRes *ledger.Result
	)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		orders, err := uow.OrderRepository()
		if err != nil {
			return err
		}
		payments, err := uow.PaymentRepository()
		if err != nil {
			return err
		}
		current, err := orders.Get(ctx, o.ID)
		if err != nil {
			return err
		}
		now := s.now()
		if current.Overdue(now) {
			return errOverdue
		}
		if err := ordersvc.Payable(current); err != nil {
			return err
		}

		pay = &payment.Payment{
			ID:               s.ids.NewID(),
			OrderID:          current.ID,
			UserID:           user.ID,
			UserName:         user.Name,
			MerchantID:       current.MerchantID,
			Amount:           current.Amount,
			Fee:              split.Fee,
			AmountToMerchant: split.Net,
			PaymentMethod:    method,
			Status:           payment.StatusConfirmed,
			ProcessedAt:      now,
		}
		changed, err := orders.Transition(ctx, current.ID, order.StatusPending, order.StatusConfirmed, pay.ID, now)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrOrderAlreadyProcessed
		}

		userRes, err = s.recorder.Post(ctx, uow, ledger.Posting{
			AccountID:   user.ID,
			Type:        ledgerdomain.TypePayment,
			Delta:       -current.Amount,
			Description: fmt.Sprintf("Pago a %s", current.MerchantName),
			RelatedID:   pay.ID,
		})
		if err != nil {
			return err
		}
		if _, err := s.recorder.Post(ctx, uow, ledger.Posting{
			AccountID:   current.MerchantID,
			Type:        ledgerdomain.TypePayment,
			Delta:       split.Net,
			Description: fmt.Sprintf("Cobro de %s", user.Name),
			RelatedID:   pay.ID,
		}); err != nil {
			return err
		}
		if split.Fee > 0 {
			if _, err := s.recorder.Post(ctx, uow, ledger.Posting{
				AccountID:   account.BankID,
				Type:        ledgerdomain.TypeFeeCollection,
				Delta:       split.Fee,
				Description: fmt.Sprintf("Comisión pago %s", current.PaymentCode),
				RelatedID:   pay.ID,
			}); err != nil {
				return err
			}
		}
		return payments.Create(ctx, pay)
	})
	unlock()

	if errors.Is(err, errOverdue) {
		if expErr := s.orders.ExpireIfOverdue(ctx, o); expErr != nil {
			logger.Error("ProcessPayment failed to persist expiry", "error", expErr)
		}
		err = domain.ErrCodeExpired
	}
	if err != nil {
		logger.Warn("ProcessPayment failed", "error", err)
		return nil, err
	}

	logger.Info("ProcessPayment succeeded", "paymentID", pay.ID, "orderID", o.ID, "fee", split.Fee)
	eventbus.Publish(audit.WithActor(ctx, user.ID, audit.ActorUser), s.bus, s.logger, &events.PaymentSettled{
		PaymentID:        pay.ID,
		OrderID:          pay.OrderID,
		UserID:           pay.UserID,
		MerchantID:       pay.MerchantID,
		Amount:           pay.Amount,
		Fee:              pay.Fee,
		AmountToMerchant: pay.AmountToMerchant,
		PaymentMethod:    pay.PaymentMethod,
	}, pay.ProcessedAt)

	return &Receipt{
		PaymentID:        pay.ID,
		OrderID:          pay.OrderID,
		Amount:           pay.Amount,
		Fee:              pay.Fee,
		AmountToMerchant: pay.AmountToMerchant,
		NewUserBalance:   userRes.Account.Balance,
		Status:           pay.Status,
		ProcessedAt:      pay.ProcessedAt,
	}, nil
}

// payableOrder resolves code and applies lazy expiry.
func (s *Service) payableOrder(ctx context.Context, code string) (*order.Order, error) {
	orders, err := s.uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	o, err := orders.GetByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.orders.ExpireIfOverdue(ctx, o); err != nil {
		return nil, err
	}
	if err := ordersvc.Payable(o); err != nil {
		return nil, err
	}
	return o, nil
}
