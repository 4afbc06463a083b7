// internal/repository/postgres/transaction_pg_test.go
package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souma9830/WalletWise/internal/domain"
	"github.com/souma9830/WalletWise/internal/repository"
)

func TestListQuery(t *testing.T) {
	userID := uuid.New()

	t.Run("base query filters by user only", func(t *testing.T) {
		dataQuery, countQuery, args := ListQuery(userID, repository.ListFilter{Page: 1, Limit: 10})

		assert.Contains(t, dataQuery, "WHERE user_id = $1")
		assert.Contains(t, dataQuery, "ORDER BY date DESC, created_at DESC")
		assert.Contains(t, dataQuery, "LIMIT $2 OFFSET $3")
		assert.NotContains(t, dataQuery, "ILIKE")
		assert.NotContains(t, dataQuery, "type =")

		assert.Equal(t, "SELECT COUNT(*) FROM transactions WHERE user_id = $1", countQuery)
		require.Len(t, args, 3)
		assert.Equal(t, userID, args[0])
		assert.Equal(t, 10, args[1])
		assert.Equal(t, 0, args[2])
	})

	t.Run("every filter contributes a numbered placeholder", func(t *testing.T) {
		start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
		filter := repository.ListFilter{
			Type:      domain.TransactionTypeExpense,
			Search:    "coffee",
			StartDate: &start,
			EndDate:   &end,
			Sort:      repository.SortAmountHigh,
			Page:      3,
			Limit:     20,
		}

		dataQuery, countQuery, args := ListQuery(userID, filter)

		assert.Contains(t, dataQuery, "AND type = $2")
		assert.Contains(t, dataQuery, "AND date >= $3")
		assert.Contains(t, dataQuery, "AND date <= $4")
		assert.Contains(t, dataQuery, "AND (description ILIKE $5 OR category ILIKE $5)")
		assert.Contains(t, dataQuery, "ORDER BY amount DESC, date DESC")
		assert.Contains(t, dataQuery, "LIMIT $6 OFFSET $7")

		require.Len(t, args, 7)
		assert.Equal(t, domain.TransactionTypeExpense, args[1])
		assert.Equal(t, start, args[2])
		assert.Equal(t, "%coffee%", args[4])
		assert.Equal(t, 20, args[5])
		assert.Equal(t, 40, args[6])

		// The count query shares the WHERE clause but takes no paging args.
		assert.Contains(t, countQuery, "AND (description ILIKE $5 OR category ILIKE $5)")
		assert.NotContains(t, countQuery, "LIMIT")
		assert.NotContains(t, countQuery, "ORDER BY")
	})

	t.Run("end date is inclusive for the whole day", func(t *testing.T) {
		end := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
		_, _, args := ListQuery(userID, repository.ListFilter{EndDate: &end, Page: 1, Limit: 10})

		require.Len(t, args, 4)
		bound, ok := args[1].(time.Time)
		require.True(t, ok)
		assert.Equal(t, domain.EndOfDay(end), bound)
		assert.Equal(t, 31, bound.Day())
		assert.Equal(t, 23, bound.Hour())
	})

	t.Run("sort order is drawn from a fixed whitelist", func(t *testing.T) {
		for sort, clause := range map[repository.SortOrder]string{
			repository.SortNewest:     "ORDER BY date DESC, created_at DESC",
			repository.SortOldest:     "ORDER BY date ASC, created_at ASC",
			repository.SortAmountHigh: "ORDER BY amount DESC, date DESC",
			repository.SortAmountLow:  "ORDER BY amount ASC, date DESC",
		} {
			dataQuery, _, _ := ListQuery(userID, repository.ListFilter{Sort: sort, Page: 1, Limit: 10})
			assert.Contains(t, dataQuery, clause)
		}

		// Anything outside the whitelist falls back to newest-first instead
		// of being interpolated.
		dataQuery, _, _ := ListQuery(userID, repository.ListFilter{Sort: "amount; DROP TABLE", Page: 1, Limit: 10})
		assert.Contains(t, dataQuery, "ORDER BY date DESC, created_at DESC")
		assert.NotContains(t, dataQuery, "DROP TABLE")
	})
}
