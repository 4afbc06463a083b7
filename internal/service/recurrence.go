// internal/service/recurrence.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/souma9830/WalletWise/internal/repository"
)

// RecurrenceEngine converts due recurring templates into concrete ledger
// entries. It holds no balance logic of its own: every materialization goes
// through the coordinator so the wallet invariant stays intact.
//
// Catch-up policy: one cycle per sweep evaluation, no stacking. A template
// that missed several cycles drains its backlog over successive sweeps,
// each materialization individually atomic.
type RecurrenceEngine struct {
	ledger          LedgerService
	dbExecutor      repository.DBExecutor
	transactionRepo repository.TransactionRepository
	clock           clockwork.Clock
	logger          *slog.Logger
}

// NewRecurrenceEngine creates a new RecurrenceEngine.
func NewRecurrenceEngine(
	ledger LedgerService,
	dbExecutor repository.DBExecutor,
	transactionRepo repository.TransactionRepository,
	clock clockwork.Clock,
	logger *slog.Logger,
) *RecurrenceEngine {
	return &RecurrenceEngine{
		ledger:          ledger,
		dbExecutor:      dbExecutor,
		transactionRepo: transactionRepo,
		clock:           clock,
		logger:          logger,
	}
}

// SweepUser materializes every due template of one user. A failure on one
// template is logged and does not abort the remaining templates. Returns
// the number of transactions materialized.
func (e *RecurrenceEngine) SweepUser(ctx context.Context, userID uuid.UUID) (int, error) {
	now := e.clock.Now().UTC()
	due, err := e.transactionRepo.ListDue(ctx, e.dbExecutor, userID, now)
	if err != nil {
		return 0, fmt.Errorf("sweep user %s: %w", userID, err)
	}

	materialized := 0
	for i := range due {
		template := due[i]
		if _, err := e.ledger.MaterializeRecurring(ctx, &template, now); err != nil {
			e.logger.Error("failed to materialize recurring template",
				"templateId", template.ID,
				"userId", userID,
				"error", err)
			continue
		}
		materialized++
	}
	return materialized, nil
}

// SweepDue runs SweepUser for every user that owns a due template. Invoked
// by the scheduled job; user-level failures are logged and do not stop the
// sweep.
func (e *RecurrenceEngine) SweepDue(ctx context.Context) (int, error) {
	now := e.clock.Now().UTC()
	userIDs, err := e.transactionRepo.ListDueUserIDs(ctx, e.dbExecutor, now)
	if err != nil {
		return 0, fmt.Errorf("sweep due: %w", err)
	}

	total := 0
	for _, userID := range userIDs {
		n, err := e.SweepUser(ctx, userID)
		if err != nil {
			e.logger.Error("recurrence sweep failed for user", "userId", userID, "error", err)
			continue
		}
		total += n
	}
	return total, nil
}
