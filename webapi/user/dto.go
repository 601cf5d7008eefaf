package user

import "github.com/amirasaad/codepay/pkg/money"

// NewUser represents the request body for creating a new user.
type NewUser struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=100"`
}

// RechargeInput represents the request body for topping up a user wallet.
type RechargeInput struct {
	Amount money.Amount `json:"amount"`
}
