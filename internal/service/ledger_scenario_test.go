// internal/service/ledger_scenario_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLedgerLifecycle_BalanceTracksSignedSum walks a full transaction
// lifecycle against the in-memory repositories and checks that the wallet
// balance equals the signed sum of live transactions after every step.
func TestLedgerLifecycle_BalanceTracksSignedSum(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	f := newLedgerFixture(now)
	userID := f.addUser()

	assertBalance := func(expected string) {
		t.Helper()
		balance := f.balance(userID)
		assert.True(t, balance.Equal(decimal.RequireFromString(expected)),
			"expected balance %s, got %s", expected, balance)

		page, err := f.svc.ListTransactions(ctx, userID, ListParams{Page: 1, Limit: 50, Type: "all", Sort: "newest"})
		require.NoError(t, err)
		sum := decimal.Zero
		for i := range page.Transactions {
			sum = sum.Add(page.Transactions[i].SignedAmount())
		}
		assert.True(t, balance.Equal(sum),
			"balance %s diverged from signed sum %s", balance, sum)
	}

	income, err := f.svc.AddTransaction(ctx, userID, CreateTransactionInput{
		Type:     "income",
		Amount:   decimal.NewFromInt(1000),
		Category: "salary",
	})
	require.NoError(t, err)
	assertBalance("1000")

	expense, err := f.svc.AddTransaction(ctx, userID, CreateTransactionInput{
		Type:     "expense",
		Amount:   decimal.NewFromInt(300),
		Category: "food",
	})
	require.NoError(t, err)
	assertBalance("700")

	newAmount := decimal.NewFromInt(500)
	updated, err := f.svc.UpdateTransaction(ctx, userID, expense.ID.String(), UpdateTransactionInput{
		Amount: &newAmount,
	})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(newAmount))
	assertBalance("500")

	deleted, err := f.svc.DeleteTransaction(ctx, userID, expense.ID.String())
	require.NoError(t, err)
	assert.Equal(t, expense.ID, deleted.ID)
	assertBalance("1000")

	// The income row is untouched by the expense lifecycle.
	remaining, err := f.svc.ListTransactions(ctx, userID, ListParams{Page: 1, Limit: 50, Type: "all", Sort: "newest"})
	require.NoError(t, err)
	require.Len(t, remaining.Transactions, 1)
	assert.Equal(t, income.ID, remaining.Transactions[0].ID)
}

// TestListTransactions_PagesAreDisjointAndCovering seeds 25 rows and walks
// the listing page by page: three pages at limit 10, no row repeated, every
// row seen once, newest first throughout.
func TestListTransactions_PagesAreDisjointAndCovering(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	f := newLedgerFixture(now)
	userID := f.addUser()

	const total = 25
	for i := 0; i < total; i++ {
		date := now.Add(-time.Duration(i) * time.Hour)
		_, err := f.svc.AddTransaction(ctx, userID, CreateTransactionInput{
			Type:     "expense",
			Amount:   decimal.NewFromInt(int64(i + 1)),
			Category: "food",
			Date:     &date,
		})
		require.NoError(t, err)
	}

	seen := make(map[uuid.UUID]struct{}, total)
	var previousDate time.Time
	for pageNum := 1; pageNum <= 3; pageNum++ {
		page, err := f.svc.ListTransactions(ctx, userID, ListParams{Page: pageNum, Limit: 10})
		require.NoError(t, err)

		assert.Equal(t, int64(total), page.Total)
		assert.Equal(t, 3, page.Pages)
		assert.Equal(t, pageNum, page.Page)

		expectedLen := 10
		if pageNum == 3 {
			expectedLen = 5
		}
		require.Len(t, page.Transactions, expectedLen)

		for i := range page.Transactions {
			tx := page.Transactions[i]
			_, dup := seen[tx.ID]
			assert.False(t, dup, "row %s appeared on more than one page", tx.ID)
			seen[tx.ID] = struct{}{}

			if !previousDate.IsZero() {
				assert.False(t, tx.Date.After(previousDate),
					"rows out of newest-first order across pages")
			}
			previousDate = tx.Date
		}
	}
	assert.Len(t, seen, total)

	// A fourth page is past the end and empty.
	page, err := f.svc.ListTransactions(ctx, userID, ListParams{Page: 4, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Transactions)
}

func TestGetWalletBalance_UnknownUser(t *testing.T) {
	f := newLedgerFixture(time.Now().UTC())

	_, err := f.svc.GetWalletBalance(context.Background(), uuid.New())
	require.Error(t, err)
}
