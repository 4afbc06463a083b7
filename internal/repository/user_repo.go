// internal/repository/user_repo.go
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souma9830/WalletWise/internal/domain"
)

// UserRepository defines the interface for user data operations, including
// the wallet balance accumulator. AdjustWalletBalance is only ever called
// from inside the ledger service's atomic scope.
type UserRepository interface {
	// CreateUser adds a new user with a zero wallet balance.
	CreateUser(ctx context.Context, q DBExecutor, user *domain.User) error
	// GetUserByID retrieves a user by id, util.ErrNotFound when absent.
	GetUserByID(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.User, error)
	// AdjustWalletBalance applies wallet_balance += delta as a single atomic
	// read-modify-write statement.
	AdjustWalletBalance(ctx context.Context, q DBExecutor, userID uuid.UUID, delta decimal.Decimal) error
	// GetWalletBalance reads the current balance scalar.
	GetWalletBalance(ctx context.Context, q DBExecutor, userID uuid.UUID) (decimal.Decimal, error)
}
