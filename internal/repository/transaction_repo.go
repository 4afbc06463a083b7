// internal/repository/transaction_repo.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/souma9830/WalletWise/internal/domain"
)

// SortOrder is a whitelisted listing sort key.
type SortOrder string

const (
	SortNewest     SortOrder = "newest" // date desc, default
	SortOldest     SortOrder = "oldest"
	SortAmountHigh SortOrder = "amount-high"
	SortAmountLow  SortOrder = "amount-low"
)

// ListFilter narrows and pages a transaction listing. Zero values mean
// "no filter"; Page and Limit are expected to be normalized (>= 1) by the
// caller.
type ListFilter struct {
	Type      domain.TransactionType // empty means all
	Search    string                 // substring over description OR category, case-insensitive
	StartDate *time.Time             // inclusive
	EndDate   *time.Time             // inclusive through end of day
	Sort      SortOrder
	Page      int
	Limit     int
}

// Offset returns the SQL offset for the filter's page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// TransactionRepository defines the interface for ledger data operations.
// Mutations receive a DBExecutor so the service can run them inside an open
// transaction.
type TransactionRepository interface {
	// Create inserts a new transaction row.
	Create(ctx context.Context, q DBExecutor, tx *domain.Transaction) error
	// GetByID retrieves a transaction owned by userID, util.ErrNotFound otherwise.
	GetByID(ctx context.Context, q DBExecutor, userID, id uuid.UUID) (*domain.Transaction, error)
	// List retrieves a filtered, sorted page of transactions plus the total match count.
	List(ctx context.Context, q DBExecutor, userID uuid.UUID, filter ListFilter) ([]domain.Transaction, int64, error)
	// Update rewrites the mutable fields of an owned row, util.ErrNotFound when absent.
	Update(ctx context.Context, q DBExecutor, tx *domain.Transaction) error
	// Delete removes an owned row, util.ErrNotFound when absent.
	Delete(ctx context.Context, q DBExecutor, userID, id uuid.UUID) error
	// ListDue retrieves recurring templates of one user with next_execution_date <= now.
	ListDue(ctx context.Context, q DBExecutor, userID uuid.UUID, now time.Time) ([]domain.Transaction, error)
	// ListDueUserIDs retrieves the distinct owners of due recurring templates.
	ListDueUserIDs(ctx context.Context, q DBExecutor, now time.Time) ([]uuid.UUID, error)
	// AdvanceNextExecution moves a template's next due date forward.
	AdvanceNextExecution(ctx context.Context, q DBExecutor, id uuid.UUID, next time.Time) error
}
