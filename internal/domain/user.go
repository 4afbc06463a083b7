// internal/domain/user.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User carries the wallet projection of an account: the single running
// balance scalar maintained incrementally by the ledger service. It equals
// the signed sum over the user's transactions at every quiescent point.
type User struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	WalletBalance decimal.Decimal `db:"wallet_balance" json:"walletBalance"` // NUMERIC(20, 4) in DB
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// NewUser creates a User with a zero wallet balance.
func NewUser(name string) *User {
	now := time.Now().UTC()
	return &User{
		ID:            uuid.New(),
		Name:          name,
		WalletBalance: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
