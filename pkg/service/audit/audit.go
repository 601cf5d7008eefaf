// Package audit turns domain events into audit records.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/codepay/pkg/config"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/domain/events"
	"github.com/amirasaad/codepay/pkg/domain/order"
	"github.com/amirasaad/codepay/pkg/eventbus"
	"github.com/amirasaad/codepay/pkg/ident"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/amirasaad/codepay/pkg/repository"
)

// Sink writes one audit record per event.
type Sink struct {
	uow    repository.UnitOfWork
	ids    ident.Generator
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Sink from deps.
func New(deps config.Deps) *Sink {
	return &Sink{
		uow:    deps.Uow,
		ids:    deps.IDs,
		now:    deps.Now,
		logger: deps.Logger.With("service", "audit"),
	}
}

// Subscribe registers the sink for every known event type.
func (s *Sink) Subscribe(bus eventbus.Bus) {
	for _, t := range events.Types() {
		bus.Register(t, s.Handle)
	}
}

// Handle persists the record for evt.
func (s *Sink) Handle(ctx context.Context, evt events.Event) error {
	rec, err := s.Record(evt)
	if err != nil {
		return err
	}
	if err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AuditRepository()
		if err != nil {
			return err
		}
		return repo.Append(ctx, rec)
	}); err != nil {
		s.logger.Error("failed to write audit record", "action", rec.Action, "error", err)
		return err
	}
	return nil
}

// Record builds the audit record describing evt.
func (s *Sink) Record(evt events.Event) (*audit.Record, error) {
	meta := evt.Metadata()
	rec := &audit.Record{
		ID:        s.ids.NewID(),
		ActorID:   meta.ActorID,
		ActorType: meta.ActorType,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Status:    audit.StatusSuccess,
		CreatedAt: meta.OccurredAt,
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	switch e := evt.(type) {
	case *events.UserCreated:
		rec.Action = audit.ActionUserCreated
		rec.Detail = accountDetail(e.UserID, "user", e.WelcomeAmount)
	case *events.MerchantCreated:
		rec.Action = audit.ActionMerchantCreated
		rec.Detail = accountDetail(e.MerchantID, "merchant", 0)
	case *events.UserRecharged:
		rec.Action = audit.ActionUserRecharged
		rec.Detail = accountDetail(e.UserID, "user", e.Amount)
	case *events.OrderCreated:
		rec.Action = audit.ActionOrderCreated
		rec.Detail = orderDetail(e.OrderID, e.PaymentCode, e.Amount, order.StatusPending)
		defaultActor(rec, e.MerchantID, audit.ActorMerchant)
	case *events.OrderExpired:
		rec.Action = audit.ActionOrderExpired
		rec.Detail = orderDetail(e.OrderID, e.PaymentCode, e.Amount, order.StatusExpired)
	case *events.OrderCancelled:
		rec.Action = audit.ActionOrderCancelled
		rec.Detail = orderDetail(e.OrderID, e.PaymentCode, e.Amount, order.StatusCancelled)
		defaultActor(rec, e.MerchantID, audit.ActorMerchant)
	case *events.PaymentSettled:
		rec.Action = audit.ActionPaymentProcessed
		rec.Detail = audit.Detail{Kind: audit.KindPayment, Payment: &audit.PaymentDetail{
			PaymentID:     e.PaymentID,
			OrderID:       e.OrderID,
			Amount:        e.Amount,
			Fee:           e.Fee,
			PaymentMethod: e.PaymentMethod,
		}}
		defaultActor(rec, e.UserID, audit.ActorUser)
	case *events.PaymentReversed:
		rec.Action = audit.ActionPaymentReversed
		rec.Detail = audit.Detail{Kind: audit.KindReversal, Reversal: &audit.ReversalDetail{
			PaymentID:         e.PaymentID,
			OrderID:           e.OrderID,
			Amount:            e.Amount,
			Fee:               e.Fee,
			AmountToMerchant:  e.AmountToMerchant,
			MerchantShortfall: e.MerchantShortfall,
			BankShortfall:     e.BankShortfall,
		}}
	case *events.TransferCompleted:
		rec.Action = audit.ActionTransfer
		rec.Detail = audit.Detail{Kind: audit.KindTransfer, Transfer: &audit.TransferDetail{
			FromUserID: e.FromUserID,
			ToUserID:   e.ToUserID,
			Amount:     e.Amount,
			ToAlias:    e.ToAlias,
		}}
		defaultActor(rec, e.FromUserID, audit.ActorUser)
	case *events.AliasCreated:
		rec.Action = audit.ActionAliasCreated
		rec.Detail = audit.Detail{Kind: audit.KindAlias, Alias: &audit.AliasDetail{
			AliasValue: e.AliasValue,
			AliasType:  e.AliasType,
		}}
		defaultActor(rec, e.UserID, audit.ActorUser)
	default:
		return nil, fmt.Errorf("no audit mapping for event %q", evt.Type())
	}

	defaultActor(rec, audit.ActorSystem, audit.ActorSystem)
	return rec, nil
}

func defaultActor(rec *audit.Record, id, typ string) {
	if rec.ActorID == "" {
		rec.ActorID, rec.ActorType = id, typ
	}
}

func accountDetail(id, kind string, amount money.Amount) audit.Detail {
	return audit.Detail{Kind: audit.KindAccount, Account: &audit.AccountDetail{AccountID: id, Kind: kind, Amount: amount}}
}

func orderDetail(id, code string, amount money.Amount, status order.Status) audit.Detail {
	return audit.Detail{Kind: audit.KindOrder, Order: &audit.OrderDetail{
		OrderID:     id,
		PaymentCode: code,
		Amount:      amount,
		Status:      string(status),
	}}
}
