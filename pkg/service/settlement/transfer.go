package settlement

import (
	"context"
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

// TransferRequest moves funds between two users. The receiver is named either
// by ToUserID or, when that is empty, by ToAlias.
type TransferRequest struct {
	FromUserID  string
	ToUserID    string
	ToAlias     string
	Amount      money.Amount
	Description string
}

// TransferReceipt is the outcome of a transfer.
type TransferReceipt struct {
	FromUserID       string       `json:"fromUserId"`
	ToUserID         string       `json:"toUserId"`
	Amount           money.Amount `json:"amount"`
	FromBalance      money.Amount `json:"fromBalance"`
	ToBalance        money.Amount `json:"toBalance"`
	OutTransactionID string       `json:"outTransactionId"`
	InTransactionID  string       `json:"inTransactionId"`
	SentInWindow     money.Amount `json:"sentInWindow"`
}

// Transfer debits the sender and credits the receiver. The configured limit
// caps the total sent by one user within the rolling transfer window,
// this transfer included.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*TransferReceipt, error) {
	logger := s.logger.With("fromUserID", req.FromUserID, "toUserID", req.ToUserID, "toAlias", req.ToAlias, "amount", req.Amount)
	logger.Info("Transfer started")
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if req.FromUserID == "" {
		return nil, domain.ErrMissingField
	}
	if req.Amount > s.policy.TransferLimit {
		logger.Warn("Transfer failed: over limit")
		return nil, domain.ErrAmountExceedsDailyLimit
	}

	toID := req.ToUserID
	if toID == "" {
		if req.ToAlias == "" || s.aliases == nil {
			return nil, domain.ErrMissingField
		}
		resolved, err := s.aliases.Resolve(ctx, req.ToAlias)
		if err != nil {
			logger.Warn("Transfer failed: alias", "error", err)
			return nil, err
		}
		toID = resolved
	}
	if toID == req.FromUserID {
		return nil, domain.ErrSameAccountTransfer
	}

	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	from, err := getAccount(ctx, accounts, req.FromUserID, account.KindUser, domain.ErrUserNotFound)
	if err != nil {
		logger.Warn("Transfer failed", "error", err)
		return nil, err
	}
	to, err := getAccount(ctx, accounts, toID, account.KindUser, domain.ErrUserNotFound)
	if err != nil {
		logger.Warn("Transfer failed", "error", err)
		return nil, err
	}

	unlock, err := s.lockAccounts(ctx, from.ID, to.ID)
	if err != nil {
		return nil, err
	}
	receipt := &TransferReceipt{FromUserID: from.ID, ToUserID: to.ID, Amount: req.Amount}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		entries, err := uow.LedgerRepository()
		if err != nil {
			return err
		}
		since := s.now().Add(-s.policy.TransferWindow)
		out, err := entries.SumByTypeSince(ctx, from.ID, ledgerdomain.TypeTransferOut, since)
		if err != nil {
			return err
		}
		sent := -out + req.Amount
		if sent > s.policy.TransferLimit {
			return domain.ErrAmountExceedsDailyLimit
		}
		receipt.SentInWindow = sent

		desc := req.Description
		if desc == "" {
			desc = "Transferencia"
		}
		outRes, err := s.recorder.Post(ctx, uow, ledger.Posting{
			AccountID:   from.ID,
			Type:        ledgerdomain.TypeTransferOut,
			Delta:       -req.Amount,
			Description: fmt.Sprintf("%s a %s", desc, to.Name),
			RelatedID:   to.ID,
		})
		if err != nil {
			return err
		}
		inRes, err := s.recorder.Post(ctx, uow, ledger.Posting{
			AccountID:   to.ID,
			Type:        ledgerdomain.TypeTransferIn,
			Delta:       req.Amount,
			Description: fmt.Sprintf("%s de %s", desc, from.Name),
			RelatedID:   outRes.Entry.ID,
		})
		if err != nil {
			return err
		}
		receipt.FromBalance = outRes.Account.Balance
		receipt.ToBalance = inRes.Account.Balance
		receipt.OutTransactionID = outRes.Entry.ID
		receipt.InTransactionID = inRes.Entry.ID
		return nil
	})
	unlock()
	if err != nil {
		logger.Warn("Transfer failed", "error", err)
		return nil, err
	}

	logger.Info("Transfer succeeded", "fromBalance", receipt.FromBalance)
	eventbus.Publish(audit.WithActor(ctx, from.ID, audit.ActorUser), s.bus, s.logger, &events.TransferCompleted{
		FromUserID: from.ID,
		ToUserID:   to.ID,
		ToAlias:    req.ToAlias,
		Amount:     req.Amount,
	}, s.now())
	return receipt, nil
}
