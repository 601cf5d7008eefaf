// Package payment models a settled order.
package payment

import (
	"time"

	"github.com/amirasaad/codepay/pkg/money"
)

// Status is the state of a payment. Payments are created confirmed and may
// only move to reversed.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusReversed  Status = "reversed"
	StatusRefunded  Status = "refunded"
)

// Payment records the split of a settled order.
type Payment struct {
	ID               string       `json:"paymentId"`
	OrderID          string       `json:"orderId"`
	UserID           string       `json:"userId"`
	UserName         string       `json:"userName"`
	MerchantID       string       `json:"merchantId"`
	Amount           money.Amount `json:"amount"`
	Fee              money.Amount `json:"fee"`
	AmountToMerchant money.Amount `json:"amountToMerchant"`
	PaymentMethod    string       `json:"paymentMethod"`
	Status           Status       `json:"status"`
	ProcessedAt      time.Time    `json:"processedAt"`
	ReversedAt       *time.Time   `json:"reversedAt,omitempty"`
}

// DefaultMethod labels payments made without an explicit method.
const DefaultMethod = "wallet"
