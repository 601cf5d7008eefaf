// Package order manages payment requests from creation to a terminal status.
//
// Expiry is lazy: any read that finds a pending order past its deadline
// persists the expired status before answering. The Sweeper does the same
// in the background so reconciliation views stay accurate.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/codepay/pkg/config"
	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/domain/events"
	"github.com/amirasaad/codepay/pkg/domain/order"
	"github.com/amirasaad/codepay/pkg/eventbus"
	"github.com/amirasaad/codepay/pkg/ident"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/amirasaad/codepay/pkg/repository"
)

const (
	// DefaultPendingLimit bounds the reconciliation view.
	DefaultPendingLimit = 200
	sweepBatch          = 500
)

// Service provides order lifecycle operations.
type Service struct {
	uow     repository.UnitOfWork
	bus     eventbus.Bus
	ids     ident.Generator
	now     func() time.Time
	ttl     time.Duration
	retries int
	logger  *slog.Logger
}

// New creates a Service from deps.
func New(deps config.Deps) *Service {
	return &Service{
		uow:     deps.Uow,
		bus:     deps.EventBus,
		ids:     deps.IDs,
		now:     deps.Now,
		ttl:     deps.Config.Ledger.CodeTTL,
		retries: deps.Config.Ledger.CodeRetries,
		logger:  deps.Logger.With("service", "order"),
	}
}

// CreateOrder issues a payment code for merchantID.
func (s *Service) CreateOrder(ctx context.Context, merchantID string, amount money.Amount, description string) (*order.Order, error) {
	logger := s.logger.With("merchantID", merchantID, "amount", amount)
	logger.Info("CreateOrder started")
	if !amount.IsPositive() {
		logger.Warn("CreateOrder failed: invalid amount")
		return nil, domain.ErrInvalidAmount
	}
	if description == "" {
		description = order.DefaultDescription
	}

	var o *order.Order
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		orders, err := uow.OrderRepository()
		if err != nil {
			return err
		}
		merchant, err := accounts.Get(ctx, merchantID)
		if err != nil || merchant.Kind != account.KindMerchant {
			return notFound(err, domain.ErrMerchantNotFound)
		}
		code, err := s.allocateCode(ctx, orders)
		if err != nil {
			return err
		}
		now := s.now()
		o = &order.Order{
			ID:           s.ids.NewID(),
			PaymentCode:  code,
			MerchantID:   merchant.ID,
			MerchantName: merchant.Name,
			Amount:       amount,
			Description:  description,
			Status:       order.StatusPending,
			CreatedAt:    now,
			ExpiresAt:    now.Add(s.ttl),
			UpdatedAt:    now,
		}
		return orders.Create(ctx, o)
	})
	if err != nil {
		logger.Error("CreateOrder failed", "error", err)
		return nil, err
	}

	logger.Info("CreateOrder succeeded", "orderID", o.ID, "paymentCode", o.PaymentCode)
	eventbus.Publish(ctx, s.bus, s.logger, &events.OrderCreated{
		OrderID:     o.ID,
		MerchantID:  o.MerchantID,
		PaymentCode: o.PaymentCode,
		Amount:      o.Amount,
		ExpiresAt:   o.ExpiresAt,
	}, s.now())
	return o, nil
}

// allocateCode draws codes until one is free, at most retries times.
func (s *Service) allocateCode(ctx context.Context, orders repository.OrderRepository) (string, error) {
	for i := 0; i < s.retries; i++ {
		code := s.ids.NewPaymentCode()
		taken, err := orders.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
		s.logger.Warn("payment code collision, re-rolling", "attempt", i+1)
	}
	return "", domain.ErrCodeSpaceExhausted
}

// QueryByCode returns the pending order holding code. Orders that are no
// longer payable fail with ErrCodeExpired or ErrOrderAlreadyProcessed.
func (s *Service) QueryByCode(ctx context.Context, code string) (*order.Order, error) {
	if !order.ValidCode(code) {
		return nil, domain.ErrInvalidPaymentCode
	}
	orders, err := s.uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	o, err := orders.GetByCode(ctx, code)
	if err != nil {
		return nil, notFound(err, domain.ErrCodeNotFound)
	}
	if err := s.ExpireIfOverdue(ctx, o); err != nil {
		return nil, err
	}
	if err := Payable(o); err != nil {
		return nil, err
	}
	return o, nil
}

// Payable reports why o cannot be settled, or nil when it can.
func Payable(o *order.Order) error {
	switch o.Status {
	case order.StatusPending:
		return nil
	case order.StatusExpired:
		return domain.ErrCodeExpired
	default:
		return domain.ErrOrderAlreadyProcessed
	}
}

// QueryStatus returns the order whatever its status, applying lazy expiry.
func (s *Service) QueryStatus(ctx context.Context, orderID string) (*order.Order, error) {
	orders, err := s.uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	o, err := orders.Get(ctx, orderID)
	if err != nil {
		return nil, notFound(err, domain.ErrOrderNotFound)
	}
	if err := s.ExpireIfOverdue(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ExpireIfOverdue persists pending→expired when o is past its deadline and
// updates o in place. Losing the race to another transition re-reads o.
func (s *Service) ExpireIfOverdue(ctx context.Context, o *order.Order) error {
	now := s.now()
	if !o.Overdue(now) {
		return nil
	}
	orders, err := s.uow.OrderRepository()
	if err != nil {
		return err
	}
	changed, err := orders.Transition(ctx, o.ID, order.StatusPending, order.StatusExpired, "", now)
	if err != nil {
		return fmt.Errorf("expire order %s: %w", o.ID, err)
	}
	if !changed {
		fresh, err := orders.Get(ctx, o.ID)
		if err != nil {
			return err
		}
		*o = *fresh
		return nil
	}
	o.Status = order.StatusExpired
	o.UpdatedAt = now
	s.logger.Info("order expired", "orderID", o.ID, "paymentCode", o.PaymentCode)
	eventbus.Publish(ctx, s.bus, s.logger, &events.OrderExpired{
		OrderID:     o.ID,
		PaymentCode: o.PaymentCode,
		Amount:      o.Amount,
	}, now)
	return nil
}

// CancelOrder withdraws a pending order. When merchantID is set the order must
// belong to that merchant.
func (s *Service) CancelOrder(ctx context.Context, orderID, merchantID string) (*order.Order, error) {
	logger := s.logger.With("orderID", orderID, "merchantID", merchantID)
	logger.Info("CancelOrder started")

	o, err := s.QueryStatus(ctx, orderID)
	if err != nil {
		logger.Error("CancelOrder failed", "error", err)
		return nil, err
	}
	if merchantID != "" && o.MerchantID != merchantID {
		logger.Warn("CancelOrder failed: order belongs to another merchant")
		return nil, domain.ErrOrderNotFound
	}
	if err := Payable(o); err != nil {
		logger.Warn("CancelOrder failed", "status", o.Status)
		return nil, err
	}

	orders, err := s.uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	now := s.now()
	changed, err := orders.Transition(ctx, o.ID, order.StatusPending, order.StatusCancelled, "", now)
	if err != nil {
		logger.Error("CancelOrder failed", "error", err)
		return nil, err
	}
	if !changed {
		logger.Warn("CancelOrder lost race to another transition")
		return nil, domain.ErrOrderAlreadyProcessed
	}
	o.Status = order.StatusCancelled
	o.UpdatedAt = now

	logger.Info("CancelOrder succeeded")
	eventbus.Publish(ctx, s.bus, s.logger, &events.OrderCancelled{
		OrderID:     o.ID,
		MerchantID:  o.MerchantID,
		PaymentCode: o.PaymentCode,
		Amount:      o.Amount,
	}, now)
	return o, nil
}

// ListPending returns pending orders newest first. Overdue ones are expired
// on the way and left out.
func (s *Service) ListPending(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = DefaultPendingLimit
	}
	orders, err := s.uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	list, err := orders.ListPending(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*order.Order, 0, len(list))
	for _, o := range list {
		if err := s.ExpireIfOverdue(ctx, o); err != nil {
			return nil, err
		}
		if o.Status == order.StatusPending {
			out = append(out, o)
		}
	}
	return out, nil
}

// ExpireOverdue expires every pending order past its deadline and returns
// how many changed.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	orders, err := s.uow.OrderRepository()
	if err != nil {
		return 0, err
	}
	total := 0
	for {
		list, err := orders.ListOverdue(ctx, s.now(), sweepBatch)
		if err != nil {
			return total, err
		}
		for _, o := range list {
			before := o.Status
			if err := s.ExpireIfOverdue(ctx, o); err != nil {
				return total, err
			}
			if before == order.StatusPending && o.Status == order.StatusExpired {
				total++
			}
		}
		if len(list) < sweepBatch {
			return total, nil
		}
	}
}

func notFound(err, specific error) error {
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return specific
	}
	return err
}
