// internal/service/fakes_test.go
package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/souma9830/WalletWise/internal/domain"
	"github.com/souma9830/WalletWise/internal/repository"
	"github.com/souma9830/WalletWise/internal/util"
	"github.com/souma9830/WalletWise/pkg/db"
)

// fakeTxController is a no-op transaction controller satisfying
// repository.DBExecutor, for tests that exercise full flows against the
// in-memory repositories.
type fakeTxController struct{}

func (fakeTxController) Commit() error   { return nil }
func (fakeTxController) Rollback() error { return nil }
func (fakeTxController) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}
func (fakeTxController) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}
func (fakeTxController) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (fakeTxController) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return &sql.Row{}
}

// fakeUserRepo keeps wallet balances in memory.
type fakeUserRepo struct {
	balances map[uuid.UUID]decimal.Decimal
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{balances: make(map[uuid.UUID]decimal.Decimal)}
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	r.balances[user.ID] = user.WalletBalance
	return nil
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.User, error) {
	balance, ok := r.balances[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	return &domain.User{ID: id, WalletBalance: balance}, nil
}

func (r *fakeUserRepo) AdjustWalletBalance(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, delta decimal.Decimal) error {
	balance, ok := r.balances[userID]
	if !ok {
		return util.ErrNotFound
	}
	r.balances[userID] = balance.Add(delta)
	return nil
}

func (r *fakeUserRepo) GetWalletBalance(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) (decimal.Decimal, error) {
	balance, ok := r.balances[userID]
	if !ok {
		return decimal.Zero, util.ErrNotFound
	}
	return balance, nil
}

// fakeTransactionRepo keeps ledger rows in memory. failCreateCategory makes
// Create fail for one category, for failure-isolation tests.
type fakeTransactionRepo struct {
	rows               map[uuid.UUID]*domain.Transaction
	failCreateCategory string
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{rows: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *fakeTransactionRepo) Create(ctx context.Context, q repository.DBExecutor, tx *domain.Transaction) error {
	if r.failCreateCategory != "" && tx.Category == r.failCreateCategory {
		return fmt.Errorf("induced create failure for category %s", tx.Category)
	}
	copied := *tx
	r.rows[tx.ID] = &copied
	return nil
}

func (r *fakeTransactionRepo) GetByID(ctx context.Context, q repository.DBExecutor, userID, id uuid.UUID) (*domain.Transaction, error) {
	row, ok := r.rows[id]
	if !ok || row.UserID != userID {
		return nil, util.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *fakeTransactionRepo) List(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, filter repository.ListFilter) ([]domain.Transaction, int64, error) {
	matched := []domain.Transaction{}
	for _, row := range r.rows {
		if row.UserID != userID {
			continue
		}
		if filter.Type != "" && row.Type != filter.Type {
			continue
		}
		matched = append(matched, *row)
	}
	sort.Slice(matched, func(i, j int) bool {
		if filter.Sort == repository.SortOldest {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[i].Date.After(matched[j].Date)
	})
	total := int64(len(matched))
	start := filter.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeTransactionRepo) Update(ctx context.Context, q repository.DBExecutor, tx *domain.Transaction) error {
	row, ok := r.rows[tx.ID]
	if !ok || row.UserID != tx.UserID {
		return util.ErrNotFound
	}
	copied := *tx
	r.rows[tx.ID] = &copied
	return nil
}

func (r *fakeTransactionRepo) Delete(ctx context.Context, q repository.DBExecutor, userID, id uuid.UUID) error {
	row, ok := r.rows[id]
	if !ok || row.UserID != userID {
		return util.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeTransactionRepo) ListDue(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, now time.Time) ([]domain.Transaction, error) {
	due := []domain.Transaction{}
	for _, row := range r.rows {
		if row.UserID != userID || !row.IsRecurring || row.NextExecutionDate == nil {
			continue
		}
		if !row.NextExecutionDate.After(now) {
			due = append(due, *row)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextExecutionDate.Before(*due[j].NextExecutionDate)
	})
	return due, nil
}

func (r *fakeTransactionRepo) ListDueUserIDs(ctx context.Context, q repository.DBExecutor, now time.Time) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]struct{}{}
	userIDs := []uuid.UUID{}
	for _, row := range r.rows {
		if !row.IsRecurring || row.NextExecutionDate == nil || row.NextExecutionDate.After(now) {
			continue
		}
		if _, ok := seen[row.UserID]; ok {
			continue
		}
		seen[row.UserID] = struct{}{}
		userIDs = append(userIDs, row.UserID)
	}
	return userIDs, nil
}

func (r *fakeTransactionRepo) AdvanceNextExecution(ctx context.Context, q repository.DBExecutor, id uuid.UUID, next time.Time) error {
	row, ok := r.rows[id]
	if !ok || !row.IsRecurring {
		return util.ErrNotFound
	}
	nextCopy := next
	row.NextExecutionDate = &nextCopy
	return nil
}

// ledgerFixture wires a real ledger service and recurrence engine over the
// in-memory fakes.
type ledgerFixture struct {
	svc      LedgerService
	engine   *RecurrenceEngine
	userRepo *fakeUserRepo
	txRepo   *fakeTransactionRepo
	clock    *clockwork.FakeClock
}

func newLedgerFixture(at time.Time) *ledgerFixture {
	userRepo := newFakeUserRepo()
	txRepo := newFakeTransactionRepo()
	clock := clockwork.NewFakeClockAt(at)

	svc := NewLedgerService(
		nil,
		fakeTxController{},
		userRepo,
		txRepo,
		domain.DefaultCategoryRegistry(),
		clock,
		func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			return fakeTxController{}, nil
		},
		func(tx db.TxController) error { return tx.Commit() },
		func(tx db.TxController) {},
	)
	engine := NewRecurrenceEngine(svc, fakeTxController{}, txRepo, clock, util.GetLogger())

	return &ledgerFixture{
		svc:      svc,
		engine:   engine,
		userRepo: userRepo,
		txRepo:   txRepo,
		clock:    clock,
	}
}

func (f *ledgerFixture) addUser() uuid.UUID {
	user := domain.NewUser("test user")
	_ = f.userRepo.CreateUser(context.Background(), nil, user)
	return user.ID
}

func (f *ledgerFixture) balance(userID uuid.UUID) decimal.Decimal {
	balance, _ := f.userRepo.GetWalletBalance(context.Background(), nil, userID)
	return balance
}
