// Package events defines the domain events emitted after each committed ledger
// operation. Events are JSON-encodable so that every bus driver can carry them.
package events

import (
	"time"

	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/money"
)

// Event is anything published on the event bus.
type Event interface {
	Type() string
	Metadata() Meta
}

// Stampable events accept request metadata at emission time.
type Stampable interface {
	Event
	SetMeta(Meta)
}

// Meta carries who triggered an event, from where and when.
type Meta struct {
	audit.RequestMeta
	OccurredAt time.Time `json:"occurredAt"`
}

func (m Meta) Metadata() Meta { return m }

func (m *Meta) SetMeta(v Meta) { *m = v }

// Event type names
const (
	TypeUserCreated       = "user.created"
	TypeMerchantCreated   = "merchant.created"
	TypeUserRecharged     = "user.recharged"
	TypeOrderCreated      = "order.created"
	TypeOrderExpired      = "order.expired"
	TypeOrderCancelled    = "order.cancelled"
	TypePaymentSettled    = "payment.settled"
	TypePaymentReversed   = "payment.reversed"
	TypeTransferCompleted = "transfer.completed"
	TypeAliasCreated      = "alias.created"
)

type UserCreated struct {
	Meta
	UserID        string       `json:"userId"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	WelcomeAmount money.Amount `json:"welcomeAmount"`
}

func (UserCreated) Type() string { return TypeUserCreated }

type MerchantCreated struct {
	Meta
	MerchantID string `json:"merchantId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

func (MerchantCreated) Type() string { return TypeMerchantCreated }

type UserRecharged struct {
	Meta
	UserID      string       `json:"userId"`
	Amount      money.Amount `json:"amount"`
	NewBalance  money.Amount `json:"newBalance"`
	BankEntryID string       `json:"bankTransactionId"`
	UserEntryID string       `json:"userTransactionId"`
}

func (UserRecharged) Type() string { return TypeUserRecharged }

type OrderCreated struct {
	Meta
	OrderID     string       `json:"orderId"`
	MerchantID  string       `json:"merchantId"`
	PaymentCode string       `json:"paymentCode"`
	Amount      money.Amount `json:"amount"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

func (OrderCreated) Type() string { return TypeOrderCreated }

type OrderExpired struct {
	Meta
	OrderID     string       `json:"orderId"`
	PaymentCode string       `json:"paymentCode"`
	Amount      money.Amount `json:"amount"`
}

func (OrderExpired) Type() string { return TypeOrderExpired }

type OrderCancelled struct {
	Meta
	OrderID     string       `json:"orderId"`
	MerchantID  string       `json:"merchantId"`
	PaymentCode string       `json:"paymentCode"`
	Amount      money.Amount `json:"amount"`
}

func (OrderCancelled) Type() string { return TypeOrderCancelled }

type PaymentSettled struct {
	Meta
	PaymentID        string       `json:"paymentId"`
	OrderID          string       `json:"orderId"`
	UserID           string       `json:"userId"`
	MerchantID       string       `json:"merchantId"`
	Amount           money.Amount `json:"amount"`
	Fee              money.Amount `json:"fee"`
	AmountToMerchant money.Amount `json:"amountToMerchant"`
	PaymentMethod    string       `json:"paymentMethod"`
}

func (PaymentSettled) Type() string { return TypePaymentSettled }

type PaymentReversed struct {
	Meta
	PaymentID         string       `json:"paymentId"`
	OrderID           string       `json:"orderId"`
	UserID            string       `json:"userId"`
	MerchantID        string       `json:"merchantId"`
	Amount            money.Amount `json:"amount"`
	Fee               money.Amount `json:"fee"`
	AmountToMerchant  money.Amount `json:"amountToMerchant"`
	MerchantShortfall money.Amount `json:"merchantShortfall"`
	BankShortfall     money.Amount `json:"bankShortfall"`
}

func (PaymentReversed) Type() string { return TypePaymentReversed }

type TransferCompleted struct {
	Meta
	FromUserID string       `json:"fromUserId"`
	ToUserID   string       `json:"toUserId"`
	ToAlias    string       `json:"toAlias,omitempty"`
	Amount     money.Amount `json:"amount"`
}

func (TransferCompleted) Type() string { return TypeTransferCompleted }

type AliasCreated struct {
	Meta
	AliasID    string `json:"aliasId"`
	UserID     string `json:"userId"`
	AliasType  string `json:"aliasType"`
	AliasValue string `json:"aliasValue"`
}

func (AliasCreated) Type() string { return TypeAliasCreated }

// Registry builds an empty event for each known type, for decoding off the wire.
var Registry = map[string]func() Event{
	TypeUserCreated:       func() Event { return &UserCreated{} },
	TypeMerchantCreated:   func() Event { return &MerchantCreated{} },
	TypeUserRecharged:     func() Event { return &UserRecharged{} },
	TypeOrderCreated:      func() Event { return &OrderCreated{} },
	TypeOrderExpired:      func() Event { return &OrderExpired{} },
	TypeOrderCancelled:    func() Event { return &OrderCancelled{} },
	TypePaymentSettled:    func() Event { return &PaymentSettled{} },
	TypePaymentReversed:   func() Event { return &PaymentReversed{} },
	TypeTransferCompleted: func() Event { return &TransferCompleted{} },
	TypeAliasCreated:      func() Event { return &AliasCreated{} },
}

// Types lists every registered event type.
func Types() []string {
	out := make([]string, 0, len(Registry))
	for t := range Registry {
		out = append(out, t)
	}
	return out
}
