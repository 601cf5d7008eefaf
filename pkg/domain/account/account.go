// Package account models the three kinds of balance-holding parties.
package account

import (
	"time"

	"github.com/amirasaad/codepay/pkg/money"
)

// Kind is the party type that owns an account.
type Kind string

const (
	KindBank     Kind = "bank"
	KindUser     Kind = "user"
	KindMerchant Kind = "merchant"
)

// BankID is the fixed id of the singleton bank account.
const BankID = "bank"

// Account is a balance-holding party: the bank, a user wallet or a merchant.
type Account struct {
	ID        string       `json:"id"`
	Kind      Kind         `json:"kind"`
	Name      string       `json:"name"`
	Email     string       `json:"email,omitempty"`
	Balance   money.Amount `json:"balance"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Floor returns the minimum balance enforced on debits for this kind of
// account. Merchants carry no enforced floor.
func (k Kind) Floor() (money.Amount, bool) {
	switch k {
	case KindBank, KindUser:
		return 0, true
	default:
		return 0, false
	}
}

func (k Kind) String() string { return string(k) }

// IsBank reports whether the account is the bank singleton.
func (a *Account) IsBank() bool { return a.Kind == KindBank }
