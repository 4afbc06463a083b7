// internal/repository/postgres/user_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/souma9830/WalletWise/internal/domain"
	"github.com/souma9830/WalletWise/internal/repository"
	"github.com/souma9830/WalletWise/internal/util"
)

// UserRepository implements repository.UserRepository for PostgreSQL.
type UserRepository struct{}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &UserRepository{}
}

// CreateUser inserts a new user using the provided DBExecutor.
func (r *UserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	query := `INSERT INTO users (id, name, wallet_balance, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := q.ExecContext(ctx, query, user.ID, user.Name, user.WalletBalance, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by id using the provided DBExecutor.
func (r *UserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, name, wallet_balance, created_at, updated_at FROM users WHERE id = $1`
	err := q.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &user, nil
}

// AdjustWalletBalance applies wallet_balance += delta as a single atomic
// read-modify-write statement. Inside a transaction this takes a row lock on
// the user, which is what serializes concurrent ledger mutations per user.
func (r *UserRepository) AdjustWalletBalance(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, delta decimal.Decimal) error {
	query := `UPDATE users SET wallet_balance = wallet_balance + $1, updated_at = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, delta, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to adjust wallet balance for user %s: %w", userID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected adjusting balance for user %s: %w", userID, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// GetWalletBalance reads the current balance scalar using the provided DBExecutor.
func (r *UserRepository) GetWalletBalance(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := q.GetContext(ctx, &balance, `SELECT wallet_balance FROM users WHERE id = $1`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, util.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get wallet balance for user %s: %w", userID, err)
	}
	return balance, nil
}
