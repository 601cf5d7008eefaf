// Package audit defines the write-once observability records produced after
// every successful ledger operation.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/money"
)

// Action names the audited operation.
type Action string

const (
	ActionUserCreated      Action = "user_created"
	ActionMerchantCreated  Action = "merchant_created"
	ActionUserRecharged    Action = "user_recharged"
	ActionOrderCreated     Action = "order_created"
	ActionOrderExpired     Action = "order_expired"
	ActionOrderCancelled   Action = "order_cancelled"
	ActionPaymentProcessed Action = "payment_processed"
	ActionPaymentReversed  Action = "payment_reversed"
	ActionTransfer         Action = "transfer"
	ActionAliasCreated     Action = "alias_created"
)

// Actor types
const (
	ActorUser     = "user"
	ActorMerchant = "merchant"
	ActorOperator = "operator"
	ActorSystem   = "system"
)

// StatusSuccess is the only status written today; failed operations are not audited.
const StatusSuccess = "success"

// Record is one audit row.
type Record struct {
	ID        string    `json:"auditId"`
	Action    Action    `json:"action"`
	ActorID   string    `json:"actorId"`
	ActorType string    `json:"actorType"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Status    string    `json:"status"`
	Detail    Detail    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

// DetailKind tags which payload of a Detail is set.
type DetailKind string

const (
	KindPayment  DetailKind = "payment"
	KindReversal DetailKind = "reversal"
	KindTransfer DetailKind = "transfer"
	KindAlias    DetailKind = "alias"
	KindAccount  DetailKind = "account"
	KindOrder    DetailKind = "order"
)

// Detail is a tagged union: Kind names the one non-nil payload.
type Detail struct {
	Kind     DetailKind      `json:"kind"`
	Payment  *PaymentDetail  `json:"payment,omitempty"`
	Reversal *ReversalDetail `json:"reversal,omitempty"`
	Transfer *TransferDetail `json:"transfer,omitempty"`
	Alias    *AliasDetail    `json:"alias,omitempty"`
	Account  *AccountDetail  `json:"account,omitempty"`
	Order    *OrderDetail    `json:"order,omitempty"`
}

type PaymentDetail struct {
	PaymentID     string       `json:"paymentId"`
	OrderID       string       `json:"orderId"`
	Amount        money.Amount `json:"amount"`
	Fee           money.Amount `json:"fee"`
	PaymentMethod string       `json:"paymentMethod"`
}

type ReversalDetail struct {
	PaymentID         string       `json:"paymentId"`
	OrderID           string       `json:"orderId"`
	Amount            money.Amount `json:"amount"`
	Fee               money.Amount `json:"fee"`
	AmountToMerchant  money.Amount `json:"amountToMerchant"`
	MerchantShortfall money.Amount `json:"merchantShortfall"`
	BankShortfall     money.Amount `json:"bankShortfall"`
}

type TransferDetail struct {
	FromUserID string       `json:"fromUserId"`
	ToUserID   string       `json:"toUserId"`
	Amount     money.Amount `json:"amount"`
	ToAlias    string       `json:"toAlias,omitempty"`
}

type AliasDetail struct {
	AliasValue string `json:"aliasValue"`
	AliasType  string `json:"aliasType"`
}

type AccountDetail struct {
	AccountID string       `json:"accountId"`
	Kind      string       `json:"kind"`
	Amount    money.Amount `json:"amount"`
}

type OrderDetail struct {
	OrderID     string       `json:"orderId"`
	PaymentCode string       `json:"paymentCode"`
	Amount      money.Amount `json:"amount"`
	Status      string       `json:"status"`
}

// Validate checks that exactly the payload named by Kind is present.
func (d Detail) Validate() error {
	set := map[DetailKind]bool{
		KindPayment:  d.Payment != nil,
		KindReversal: d.Reversal != nil,
		KindTransfer: d.Transfer != nil,
		KindAlias:    d.Alias != nil,
		KindAccount:  d.Account != nil,
		KindOrder:    d.Order != nil,
	}
	present, ok := set[d.Kind]
	if !ok || !present {
		return fmt.Errorf("audit detail %q has no payload: %w", d.Kind, domain.ErrInvalidArgument)
	}
	for k, v := range set {
		if v && k != d.Kind {
			return fmt.Errorf("audit detail %q also carries %q: %w", d.Kind, k, domain.ErrInvalidArgument)
		}
	}
	return nil
}

// RequestMeta identifies who triggered an operation and from where.
type RequestMeta struct {
	ActorID   string `json:"actorId,omitempty"`
	ActorType string `json:"actorType,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

type requestMetaKey struct{}

// WithRequestMeta returns a context carrying m.
func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, m)
}

// RequestMetaFrom returns the request metadata in ctx, if any.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return m
}

// WithActor returns a context whose request metadata names the given actor,
// keeping any transport details already present.
func WithActor(ctx context.Context, actorID, actorType string) context.Context {
	m := RequestMetaFrom(ctx)
	m.ActorID, m.ActorType = actorID, actorType
	return WithRequestMeta(ctx, m)
}
