// Package order models merchant-issued payment requests bound to a short-lived code.
package order

import (
	"time"

	"github.com/amirasaad/codepay/pkg/money"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
	StatusReversed  Status = "reversed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// DefaultDescription is used when an order is created without one.
const DefaultDescription = "Pago"

// CodeLength is the number of digits in a payment code.
const CodeLength = 8

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusExpired, StatusCancelled, StatusFailed},
	StatusConfirmed: {StatusReversed},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Order is a payment request. PaymentID is empty until the order is confirmed.
type Order struct {
	ID           string       `json:"orderId"`
	PaymentCode  string       `json:"paymentCode"`
	MerchantID   string       `json:"merchantId"`
	MerchantName string       `json:"merchantName"`
	Amount       money.Amount `json:"amount"`
	Description  string       `json:"description"`
	Status       Status       `json:"status"`
	PaymentID    string       `json:"paymentId,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Overdue reports whether a pending order has passed its expiry at now.
func (o *Order) Overdue(now time.Time) bool {
	return o.Status == StatusPending && now.After(o.ExpiresAt)
}

// ValidCode reports whether code is exactly CodeLength ASCII digits.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
