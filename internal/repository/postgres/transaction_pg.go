// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/souma9830/WalletWise/internal/domain"
	"github.com/souma9830/WalletWise/internal/repository"
	"github.com/souma9830/WalletWise/internal/util"
)

const transactionColumns = `id, user_id, type, amount, category, description, payment_method, mood, date,
	is_recurring, recurring_interval, next_execution_date, created_at, updated_at`

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) repository.TransactionRepository {
	return &TransactionRepository{}
}

// Create inserts a new transaction row using the provided DBExecutor.
func (r *TransactionRepository) Create(ctx context.Context, q repository.DBExecutor, tx *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := q.ExecContext(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Type,
		tx.Amount,
		tx.Category,
		tx.Description,
		tx.PaymentMethod,
		tx.Mood,
		tx.Date,
		tx.IsRecurring,
		tx.RecurringInterval,
		tx.NextExecutionDate,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction owned by userID using the provided DBExecutor.
func (r *TransactionRepository) GetByID(ctx context.Context, q repository.DBExecutor, userID, id uuid.UUID) (*domain.Transaction, error) {
	var tx domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND id = $2`
	err := q.GetContext(ctx, &tx, query, userID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return &tx, nil
}

// ListQuery builds the filtered listing SQL and argument list. Exposed at
// package level so the pagination and ordering logic is testable without a
// live database.
func ListQuery(userID uuid.UUID, filter repository.ListFilter) (dataQuery string, countQuery string, args []interface{}) {
	var where strings.Builder
	where.WriteString("WHERE user_id = $1")
	args = append(args, userID)

	if filter.Type != "" {
		args = append(args, filter.Type)
		fmt.Fprintf(&where, " AND type = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		fmt.Fprintf(&where, " AND date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, domain.EndOfDay(*filter.EndDate))
		fmt.Fprintf(&where, " AND date <= $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		fmt.Fprintf(&where, " AND (description ILIKE $%d OR category ILIKE $%d)", len(args), len(args))
	}

	orderBy := map[repository.SortOrder]string{
		repository.SortNewest:     "date DESC, created_at DESC",
		repository.SortOldest:     "date ASC, created_at ASC",
		repository.SortAmountHigh: "amount DESC, date DESC",
		repository.SortAmountLow:  "amount ASC, date DESC",
	}[filter.Sort]
	if orderBy == "" {
		orderBy = "date DESC, created_at DESC"
	}

	countQuery = "SELECT COUNT(*) FROM transactions " + where.String()

	args = append(args, filter.Limit, filter.Offset())
	dataQuery = fmt.Sprintf("SELECT %s FROM transactions %s ORDER BY %s LIMIT $%d OFFSET $%d",
		transactionColumns, where.String(), orderBy, len(args)-1, len(args))
	return dataQuery, countQuery, args
}

// List retrieves a filtered, sorted page of transactions plus the total
// match count. Two queries, same predicate.
func (r *TransactionRepository) List(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, filter repository.ListFilter) ([]domain.Transaction, int64, error) {
	dataQuery, countQuery, args := ListQuery(userID, filter)

	transactions := []domain.Transaction{}
	if err := q.SelectContext(ctx, &transactions, dataQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions for user %s: %w", userID, err)
	}

	var total int64
	// The count query shares the predicate args but not limit/offset.
	if err := q.GetContext(ctx, &total, countQuery, args[:len(args)-2]...); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions for user %s: %w", userID, err)
	}

	return transactions, total, nil
}

// Update rewrites the mutable fields of an owned row using the provided DBExecutor.
func (r *TransactionRepository) Update(ctx context.Context, q repository.DBExecutor, tx *domain.Transaction) error {
	query := `UPDATE transactions
	          SET type = $1, amount = $2, category = $3, description = $4, payment_method = $5,
	              mood = $6, date = $7, is_recurring = $8, recurring_interval = $9,
	              next_execution_date = $10, updated_at = $11
	          WHERE user_id = $12 AND id = $13`
	result, err := q.ExecContext(ctx, query,
		tx.Type,
		tx.Amount,
		tx.Category,
		tx.Description,
		tx.PaymentMethod,
		tx.Mood,
		tx.Date,
		tx.IsRecurring,
		tx.RecurringInterval,
		tx.NextExecutionDate,
		time.Now().UTC(),
		tx.UserID,
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", tx.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected updating transaction %s: %w", tx.ID, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// Delete removes an owned row using the provided DBExecutor.
func (r *TransactionRepository) Delete(ctx context.Context, q repository.DBExecutor, userID, id uuid.UUID) error {
	result, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected deleting transaction %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// ListDue retrieves one user's recurring templates that have come due.
func (r *TransactionRepository) ListDue(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, now time.Time) ([]domain.Transaction, error) {
	templates := []domain.Transaction{}
	query := `SELECT ` + transactionColumns + ` FROM transactions
	          WHERE user_id = $1 AND is_recurring = TRUE AND next_execution_date <= $2
	          ORDER BY next_execution_date ASC`
	if err := q.SelectContext(ctx, &templates, query, userID, now); err != nil {
		return nil, fmt.Errorf("failed to list due templates for user %s: %w", userID, err)
	}
	return templates, nil
}

// ListDueUserIDs retrieves the distinct owners of due recurring templates.
func (r *TransactionRepository) ListDueUserIDs(ctx context.Context, q repository.DBExecutor, now time.Time) ([]uuid.UUID, error) {
	userIDs := []uuid.UUID{}
	query := `SELECT DISTINCT user_id FROM transactions
	          WHERE is_recurring = TRUE AND next_execution_date <= $1`
	if err := q.SelectContext(ctx, &userIDs, query, now); err != nil {
		return nil, fmt.Errorf("failed to list users with due templates: %w", err)
	}
	return userIDs, nil
}

// AdvanceNextExecution moves a template's next due date forward.
func (r *TransactionRepository) AdvanceNextExecution(ctx context.Context, q repository.DBExecutor, id uuid.UUID, next time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE transactions SET next_execution_date = $1, updated_at = $2 WHERE id = $3 AND is_recurring = TRUE`,
		next, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to advance template %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected advancing template %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
