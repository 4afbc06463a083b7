// internal/service/ledger_service.go
package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/souma9830/WalletWise/internal/domain"
	"github.com/souma9830/WalletWise/internal/repository"
	"github.com/souma9830/WalletWise/internal/util"
	"github.com/souma9830/WalletWise/pkg/db"
)

// CreateTransactionInput is the payload for adding a transaction. Enum
// fields arrive as raw strings and are validated before any atomic scope
// opens.
type CreateTransactionInput struct {
	Type              string
	Amount            decimal.Decimal
	Category          string
	Description       string
	PaymentMethod     string
	Mood              string
	Date              *time.Time
	IsRecurring       bool
	RecurringInterval string
}

// UpdateTransactionInput carries partial updates; nil fields are left
// untouched.
type UpdateTransactionInput struct {
	Type              *string
	Amount            *decimal.Decimal
	Category          *string
	Description       *string
	PaymentMethod     *string
	Mood              *string
	Date              *time.Time
	IsRecurring       *bool
	RecurringInterval *string
}

// ListParams are the raw listing request parameters; Type and Sort are
// validated against their closed sets.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	Type      string // income|expense|all
	StartDate *time.Time
	EndDate   *time.Time
	Sort      string // newest|oldest|amount-high|amount-low
}

// TransactionPage is a listing result with pagination metadata.
type TransactionPage struct {
	Transactions []domain.Transaction
	Total        int64
	Page         int
	Pages        int
	Limit        int
}

// LedgerService is the transactional coordinator: the only component that
// mutates the wallet balance, and it does so exclusively inside the same
// atomic scope as the ledger write it pairs with.
type LedgerService interface {
	AddTransaction(ctx context.Context, userID uuid.UUID, input CreateTransactionInput) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, userID uuid.UUID, transactionID string, input UpdateTransactionInput) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID uuid.UUID, transactionID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, params ListParams) (*TransactionPage, error)
	GetWalletBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	// MaterializeRecurring turns a due template into a concrete transaction
	// and advances the template's next due date, all in one atomic scope.
	// Called by the recurrence engine only.
	MaterializeRecurring(ctx context.Context, template *domain.Transaction, now time.Time) (*domain.Transaction, error)
}

type ledgerService struct {
	dbBeginner      db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor      repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	userRepo        repository.UserRepository
	transactionRepo repository.TransactionRepository
	categories      *domain.CategoryRegistry
	clock           clockwork.Clock
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	transactionRepo repository.TransactionRepository,
	categories *domain.CategoryRegistry,
	clock clockwork.Clock,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) LedgerService {
	return &ledgerService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		categories:      categories,
		clock:           clock,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
	}
}

// parseTransactionID validates an externally supplied identifier before it
// reaches any query. A malformed id is a validation failure, never a store
// lookup.
func parseTransactionID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		verr := &util.ValidationError{}
		return uuid.Nil, verr.Add("transactionId", "must be a well-formed UUID")
	}
	return id, nil
}

func (s *ledgerService) validateCreate(userID uuid.UUID, input CreateTransactionInput) (*domain.Transaction, error) {
	verr := &util.ValidationError{}

	txType := domain.TransactionType(input.Type)
	if !domain.ValidType(txType) {
		verr.Add("type", "must be either income or expense")
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		verr.Add("amount", "must be a valid number greater than 0")
	}
	category, ok := s.categories.Resolve(input.Category)
	if !ok {
		verr.Add("category", "must be one of the configured categories")
	}
	paymentMethod := domain.PaymentMethod(input.PaymentMethod)
	if input.PaymentMethod != "" && !domain.ValidPaymentMethod(paymentMethod) {
		verr.Add("paymentMethod", "must be one of cash, card, upi, online")
	}
	mood := domain.Mood(input.Mood)
	if input.Mood != "" && !domain.ValidMood(mood) {
		verr.Add("mood", "must be one of happy, stressed, bored, sad, calm, neutral")
	}
	interval := domain.RecurringInterval(input.RecurringInterval)
	if input.IsRecurring && !domain.ValidInterval(interval) {
		verr.Add("recurringInterval", "must be one of daily, weekly, monthly")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	date := now
	if input.Date != nil {
		date = *input.Date
	}
	tx := domain.NewTransaction(userID, txType, input.Amount, category, input.Description, paymentMethod, mood, date)
	// Stamp from the injected clock; NewTransaction only knows wall time.
	tx.CreatedAt = now
	tx.UpdatedAt = now
	if input.IsRecurring {
		tx.IsRecurring = true
		tx.RecurringInterval = &interval
		next := domain.NextExecution(interval, now)
		tx.NextExecutionDate = &next
	}
	return tx, nil
}

// AddTransaction creates a ledger row and applies its signed delta to the
// wallet balance in one atomic scope.
func (s *ledgerService) AddTransaction(ctx context.Context, userID uuid.UUID, input CreateTransactionInput) (*domain.Transaction, error) {
	tx, err := s.validateCreate(userID, input)
	if err != nil {
		return nil, err
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("add transaction: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("add transaction: transaction controller does not implement DBExecutor")
	}

	if err := s.transactionRepo.Create(ctx, txExecutor, tx); err != nil {
		return nil, db.TranslateError(fmt.Errorf("add transaction: %w", err))
	}
	if err := s.userRepo.AdjustWalletBalance(ctx, txExecutor, userID, tx.SignedAmount()); err != nil {
		return nil, db.TranslateError(fmt.Errorf("add transaction: failed to adjust wallet balance: %w", err))
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("add transaction: failed to commit transaction: %w", err)
	}
	return tx, nil
}

// UpdateTransaction rewrites supplied fields of an owned row and applies the
// net balance delta (new contribution minus old) in one atomic scope.
func (s *ledgerService) UpdateTransaction(ctx context.Context, userID uuid.UUID, transactionID string, input UpdateTransactionInput) (*domain.Transaction, error) {
	id, err := parseTransactionID(transactionID)
	if err != nil {
		return nil, err
	}
	if err := s.validateUpdate(input); err != nil {
		return nil, err
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("update transaction: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("update transaction: transaction controller does not implement DBExecutor")
	}

	existing, err := s.transactionRepo.GetByID(ctx, txExecutor, userID, id)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	// An interval only makes sense on a row that is (or becomes) recurring;
	// checkable only once the row is loaded.
	if input.RecurringInterval != nil && input.IsRecurring == nil && !existing.IsRecurring {
		verr := &util.ValidationError{}
		return nil, verr.Add("recurringInterval", "only valid on recurring transactions")
	}
	oldDelta := existing.SignedAmount()

	updated := *existing
	s.applyUpdate(&updated, input)
	netDelta := updated.SignedAmount().Sub(oldDelta)

	if err := s.transactionRepo.Update(ctx, txExecutor, &updated); err != nil {
		return nil, db.TranslateError(fmt.Errorf("update transaction: %w", err))
	}
	// Skipping the zero-delta balance write is an optimization; correctness
	// never depends on it.
	if !netDelta.IsZero() {
		if err := s.userRepo.AdjustWalletBalance(ctx, txExecutor, userID, netDelta); err != nil {
			return nil, db.TranslateError(fmt.Errorf("update transaction: failed to adjust wallet balance: %w", err))
		}
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("update transaction: failed to commit transaction: %w", err)
	}
	return &updated, nil
}

func (s *ledgerService) validateUpdate(input UpdateTransactionInput) error {
	verr := &util.ValidationError{}
	if input.Type != nil && !domain.ValidType(domain.TransactionType(*input.Type)) {
		verr.Add("type", "must be either income or expense")
	}
	if input.Amount != nil && input.Amount.LessThanOrEqual(decimal.Zero) {
		verr.Add("amount", "must be a valid number greater than 0")
	}
	if input.Category != nil {
		if _, ok := s.categories.Resolve(*input.Category); !ok {
			verr.Add("category", "must be one of the configured categories")
		}
	}
	if input.PaymentMethod != nil && !domain.ValidPaymentMethod(domain.PaymentMethod(*input.PaymentMethod)) {
		verr.Add("paymentMethod", "must be one of cash, card, upi, online")
	}
	if input.Mood != nil && !domain.ValidMood(domain.Mood(*input.Mood)) {
		verr.Add("mood", "must be one of happy, stressed, bored, sad, calm, neutral")
	}
	if input.RecurringInterval != nil && !domain.ValidInterval(domain.RecurringInterval(*input.RecurringInterval)) {
		verr.Add("recurringInterval", "must be one of daily, weekly, monthly")
	}
	if input.IsRecurring != nil && *input.IsRecurring && input.RecurringInterval == nil {
		verr.Add("recurringInterval", "required when isRecurring is true")
	}
	if input.IsRecurring != nil && !*input.IsRecurring && input.RecurringInterval != nil {
		verr.Add("recurringInterval", "only valid when isRecurring is true")
	}
	return verr.OrNil()
}

// applyUpdate copies supplied fields onto the row. Date is only overwritten
// when provided.
func (s *ledgerService) applyUpdate(tx *domain.Transaction, input UpdateTransactionInput) {
	if input.Type != nil {
		tx.Type = domain.TransactionType(*input.Type)
	}
	if input.Amount != nil {
		tx.Amount = *input.Amount
	}
	if input.Category != nil {
		category, _ := s.categories.Resolve(*input.Category)
		tx.Category = category
	}
	if input.Description != nil {
		tx.Description = strings.TrimSpace(*input.Description)
	}
	if input.PaymentMethod != nil {
		tx.PaymentMethod = domain.PaymentMethod(*input.PaymentMethod)
	}
	if input.Mood != nil {
		tx.Mood = domain.Mood(*input.Mood)
	}
	if input.Date != nil {
		tx.Date = *input.Date
	}
	if input.IsRecurring != nil {
		tx.IsRecurring = *input.IsRecurring
		if !tx.IsRecurring {
			tx.RecurringInterval = nil
			tx.NextExecutionDate = nil
		}
	}
	if input.RecurringInterval != nil && tx.IsRecurring {
		interval := domain.RecurringInterval(*input.RecurringInterval)
		tx.RecurringInterval = &interval
		if tx.NextExecutionDate == nil {
			next := domain.NextExecution(interval, s.clock.Now().UTC())
			tx.NextExecutionDate = &next
		}
	}
	tx.UpdatedAt = s.clock.Now().UTC()
}

// DeleteTransaction removes an owned row and applies the reversal delta in
// one atomic scope. Deleting an already-deleted id is ErrNotFound, never a
// second reversal.
func (s *ledgerService) DeleteTransaction(ctx context.Context, userID uuid.UUID, transactionID string) (*domain.Transaction, error) {
	id, err := parseTransactionID(transactionID)
	if err != nil {
		return nil, err
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("delete transaction: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("delete transaction: transaction controller does not implement DBExecutor")
	}

	deleted, err := s.transactionRepo.GetByID(ctx, txExecutor, userID, id)
	if err != nil {
		return nil, fmt.Errorf("delete transaction: %w", err)
	}
	if err := s.transactionRepo.Delete(ctx, txExecutor, userID, id); err != nil {
		return nil, db.TranslateError(fmt.Errorf("delete transaction: %w", err))
	}
	if err := s.userRepo.AdjustWalletBalance(ctx, txExecutor, userID, deleted.SignedAmount().Neg()); err != nil {
		return nil, db.TranslateError(fmt.Errorf("delete transaction: failed to adjust wallet balance: %w", err))
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("delete transaction: failed to commit transaction: %w", err)
	}
	return deleted, nil
}

// ListTransactions serves a filtered, sorted, paginated listing. Reads run
// outside any transaction on the plain executor.
func (s *ledgerService) ListTransactions(ctx context.Context, userID uuid.UUID, params ListParams) (*TransactionPage, error) {
	filter, err := s.validateListParams(params)
	if err != nil {
		return nil, err
	}

	transactions, total, err := s.transactionRepo.List(ctx, s.dbExecutor, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	pages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	return &TransactionPage{
		Transactions: transactions,
		Total:        total,
		Page:         filter.Page,
		Pages:        pages,
		Limit:        filter.Limit,
	}, nil
}

func (s *ledgerService) validateListParams(params ListParams) (repository.ListFilter, error) {
	verr := &util.ValidationError{}

	filter := repository.ListFilter{
		Search:    params.Search,
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		Page:      params.Page,
		Limit:     params.Limit,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	switch params.Type {
	case "", "all":
		// no type filter
	case string(domain.TransactionTypeIncome), string(domain.TransactionTypeExpense):
		filter.Type = domain.TransactionType(params.Type)
	default:
		verr.Add("type", "must be one of income, expense, all")
	}

	switch repository.SortOrder(params.Sort) {
	case "", repository.SortNewest:
		filter.Sort = repository.SortNewest
	case repository.SortOldest, repository.SortAmountHigh, repository.SortAmountLow:
		filter.Sort = repository.SortOrder(params.Sort)
	default:
		verr.Add("sort", "must be one of newest, oldest, amount-high, amount-low")
	}

	if params.StartDate != nil && params.EndDate != nil && params.EndDate.Before(*params.StartDate) {
		verr.Add("endDate", "must not be before startDate")
	}

	if err := verr.OrNil(); err != nil {
		return repository.ListFilter{}, err
	}
	return filter, nil
}

// GetWalletBalance reads the wallet balance outside any transaction.
func (s *ledgerService) GetWalletBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	balance, err := s.userRepo.GetWalletBalance(ctx, s.dbExecutor, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get wallet balance: %w", err)
	}
	return balance, nil
}

// MaterializeRecurring creates the concrete copy of a due template, adjusts
// the balance, and advances the template's due date one interval from its
// previous due date rather than from now, so late sweeps do not skew the
// schedule. All of it runs in one atomic scope.
func (s *ledgerService) MaterializeRecurring(ctx context.Context, template *domain.Transaction, now time.Time) (*domain.Transaction, error) {
	if !template.IsRecurring || template.RecurringInterval == nil || template.NextExecutionDate == nil {
		verr := &util.ValidationError{}
		return nil, verr.Add("transaction", "not a due recurring template")
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("materialize recurring: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("materialize recurring: transaction controller does not implement DBExecutor")
	}

	materialized := template.MaterializedCopy(now)
	materialized.CreatedAt = now
	materialized.UpdatedAt = now
	if err := s.transactionRepo.Create(ctx, txExecutor, materialized); err != nil {
		return nil, db.TranslateError(fmt.Errorf("materialize recurring: %w", err))
	}
	if err := s.userRepo.AdjustWalletBalance(ctx, txExecutor, template.UserID, materialized.SignedAmount()); err != nil {
		return nil, db.TranslateError(fmt.Errorf("materialize recurring: failed to adjust wallet balance: %w", err))
	}

	next := domain.NextExecution(*template.RecurringInterval, *template.NextExecutionDate)
	if err := s.transactionRepo.AdvanceNextExecution(ctx, txExecutor, template.ID, next); err != nil {
		return nil, db.TranslateError(fmt.Errorf("materialize recurring: failed to advance template: %w", err))
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("materialize recurring: failed to commit transaction: %w", err)
	}
	return materialized, nil
}
