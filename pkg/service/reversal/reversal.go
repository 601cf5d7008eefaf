// Package reversal undoes settled payments.
//
// The fee split is recomputed from the payment amount rather than read back,
// so a reversal mirrors the original settlement exactly. Merchant and bank
// debits are clamped at zero; whatever could not be recovered is reported as
// a shortfall instead of failing the reversal.
package reversal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/codepay/pkg/config"
	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/domain/events"
	ledgerdomain "github.com/amirasaad/codepay/pkg/domain/ledger"
	"github.com/amirasaad/codepay/pkg/domain/order"
	"github.com/amirasaad/codepay/pkg/domain/payment"
	"github.com/amirasaad/codepay/pkg/eventbus"
	"github.com/amirasaad/codepay/pkg/ledger"
	"github.com/amirasaad/codepay/pkg/lock"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/amirasaad/codepay/pkg/repository"
	"github.com/shopspring/decimal"
)

// Receipt is the outcome of a reversal.
type Receipt struct {
	PaymentID          string       `json:"paymentId"`
	OrderID            string       `json:"orderId"`
	Amount             money.Amount `json:"amount"`
	Fee                money.Amount `json:"fee"`
	AmountToMerchant   money.Amount `json:"amountToMerchant"`
	NewUserBalance     money.Amount `json:"newUserBalance"`
	NewMerchantBalance money.Amount `json:"newMerchantBalance"`
	MerchantShortfall  money.Amount `json:"merchantShortfall"`
	BankShortfall      money.Amount `json:"bankShortfall"`
	ReversedAt         time.Time    `json:"reversedAt"`
}

// Service reverses payments.
type Service struct {
	uow      repository.UnitOfWork
	bus      eventbus.Bus
	locks    *lock.Keyed
	recorder *ledger.Recorder
	feeRate  decimal.Decimal
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a Service from deps.
func New(deps config.Deps) *Service {
	return &Service{
		uow:      deps.Uow,
		bus:      deps.EventBus,
		locks:    deps.Locks,
		recorder: ledger.NewRecorder(deps.IDs, deps.Now),
		feeRate:  deps.Config.Ledger.FeeRate,
		now:      deps.Now,
		logger:   deps.Logger.With("service", "reversal"),
	}
}

// ReversePayment refunds the user in full and takes back the merchant share
// and the fee. actorID names who asked for it; empty means the system.
func (s *Service) ReversePayment(ctx context.Context, paymentID, actorID string) (*Receipt, error) {
	actorType := audit.ActorOperator
	if actorID == "" {
		actorID, actorType = audit.ActorSystem, audit.ActorSystem
	}
	logger := s.logger.With("paymentID", paymentID, "actorID", actorID)
	logger.Info("ReversePayment started")

	payments, err := s.uow.PaymentRepository()
	if err != nil {
		return nil, err
	}
	p, err := payments.Get(ctx, paymentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Status != payment.StatusConfirmed {
		return nil, domain.ErrAlreadyReversed
	}

	unlock, err := s.locks.Lock(ctx, p.UserID, p.MerchantID, account.BankID)
	if err != nil {
		return nil, err
	}
	split := money.SplitFee(p.Amount, s.feeRate)
	receipt := &Receipt{
		PaymentID:        p.ID,
		OrderID:          p.OrderID,
		Amount:           p.Amount,
		Fee:              split.Fee,
		AmountToMerchant: split.Net,
	}
	var orderReversed bool
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		payments, err := uow.PaymentRepository()
		if err != nil {
			return err
		}
		orders, err := uow.OrderRepository()
		if err != nil {
			return err
		}
		now := s.now()
		changed, err := payments.MarkReversed(ctx, p.ID, now)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrAlreadyReversed
		}
		orderReversed, err = orders.Transition(ctx, p.OrderID, order.StatusConfirmed, order.StatusReversed, "", now)
		if err != nil {
			return err
		}

		userRes, err := s.recorder.Post(ctx, uow, ledger.Posting{
			AccountID:   p.UserID,
			Type:        ledgerdomain.TypeRefund,
			Delta:       p.Amount,
			Description: fmt.Sprintf("Reverso de pago %s", p.ID),
			RelatedID:   p.ID,
		})
		if err != nil {
			return err
		}
		merchantRes, err := s.recorder.Post(ctx, uow, ledger.Posting{
			AccountID:   p.MerchantID,
			Type:        ledgerdomain.TypePayment,
			Delta:       -split.Net,
			Description: fmt.Sprintf("Reverso de cobro %s", p.ID),
			RelatedID:   p.ID,
			Clamp:       true,
		})
		if err != nil {
			return err
		}
		receipt.NewUserBalance = userRes.Account.Balance
		receipt.NewMerchantBalance = merchantRes.Account.Balance
		receipt.MerchantShortfall = merchantRes.Shortfall
		receipt.ReversedAt = now

		if split.Fee > 0 {
			bankRes, err := s.recorder.Post(ctx, uow, ledger.Posting{
				AccountID:   account.BankID,
				Type:        ledgerdomain.TypeFeeReversal,
				Delta:       -split.Fee,
				Description: fmt.Sprintf("Reverso de comisión %s", p.ID),
				RelatedID:   p.ID,
				Clamp:       true,
			})
			if err != nil {
				return err
			}
			receipt.BankShortfall = bankRes.Shortfall
		}
		return nil
	})
	unlock()
	if err != nil {
		logger.Error("ReversePayment failed", "error", err)
		return nil, err
	}

	if !orderReversed {
		logger.Warn("ReversePayment left order unchanged: order was not confirmed", "orderID", p.OrderID)
	}
	if receipt.MerchantShortfall != 0 || receipt.BankShortfall != 0 {
		logger.Warn("ReversePayment clamped at floor",
			"merchantShortfall", receipt.MerchantShortfall,
			"bankShortfall", receipt.BankShortfall,
		)
	}
	logger.Info("ReversePayment succeeded", "newUserBalance", receipt.NewUserBalance)
	eventbus.Publish(audit.WithActor(ctx, actorID, actorType), s.bus, s.logger, &events.PaymentReversed{
		PaymentID:         p.ID,
		OrderID:           p.OrderID,
		UserID:            p.UserID,
		MerchantID:        p.MerchantID,
		Amount:            p.Amount,
		Fee:               split.Fee,
		AmountToMerchant:  split.Net,
		MerchantShortfall: receipt.MerchantShortfall,
		BankShortfall:     receipt.BankShortfall,
	}, receipt.ReversedAt)
	return receipt, nil
}
