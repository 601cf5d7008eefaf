// Package alias maps human-friendly handles to user ids.
package alias

import "time"

// Alias is a unique handle (phone, email, nickname) pointing at a user.
type Alias struct {
	ID        string    `json:"aliasId"`
	Type      string    `json:"aliasType"`
	Value     string    `json:"aliasValue"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
