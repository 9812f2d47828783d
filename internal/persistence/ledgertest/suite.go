// Package ledgertest holds the behaviour every ledger backend must share.
package ledgertest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogomassis/payments-core/internal/models"
	"github.com/diogomassis/payments-core/internal/services/orchestrator"
)

// Run executes the conformance suite; newStore must return an empty ledger.
func Run(t *testing.T, newStore func(t *testing.T) orchestrator.LedgerStore) {
	t.Run("save assigns distinct ids", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		first, err := store.Save(ctx, purchase("100.00"))
		require.NoError(t, err)
		second, err := store.Save(ctx, purchase("100.00"))
		require.NoError(t, err)

		assert.Positive(t, first.ID)
		assert.Positive(t, second.ID)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("find unknown id", func(t *testing.T) {
		store := newStore(t)

		got, err := store.FindByID(context.Background(), 987654)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("lookup returns identical values every time", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		saved, err := store.Save(ctx, purchase("10.0075"))
		require.NoError(t, err)

		first, err := store.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		require.NotNil(t, first)
		second, err := store.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		require.NotNil(t, second)

		assertSameTransaction(t, saved, first)
		assertSameTransaction(t, first, second)
		assert.True(t, decimal.RequireFromString("10.0075").Equal(first.Amount), "got %s", first.Amount)
		assert.Nil(t, first.OriginalTransactionID)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		saved, err := store.Save(ctx, purchase("50"))
		require.NoError(t, err)
		saved.Amount = decimal.RequireFromString("1")
		saved.CardNumber = "0000"

		got, err := store.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("50").Equal(got.Amount))
		assert.Equal(t, "4111111111111111", got.CardNumber)
	})

	t.Run("refund sum is the refunded magnitude", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		original, err := store.Save(ctx, purchase("500.00"))
		require.NoError(t, err)
		other, err := store.Save(ctx, purchase("80.00"))
		require.NoError(t, err)

		total, err := store.SumRefundsByOriginalID(ctx, original.ID)
		require.NoError(t, err)
		assert.True(t, total.IsZero(), "got %s", total)

		refund, err := store.Save(ctx, models.NewRefund(original, decimal.RequireFromString("100.00"), "bank-r1", now()))
		require.NoError(t, err)
		_, err = store.Save(ctx, models.NewRefund(original, decimal.RequireFromString("200.50"), "bank-r2", now()))
		require.NoError(t, err)
		_, err = store.Save(ctx, models.NewRefund(other, decimal.RequireFromString("5"), "bank-r3", now()))
		require.NoError(t, err)

		total, err = store.SumRefundsByOriginalID(ctx, original.ID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("300.50").Equal(total), "got %s", total)

		stored, err := store.FindByID(ctx, refund.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.OriginalTransactionID)
		assert.Equal(t, original.ID, *stored.OriginalTransactionID)
		assert.Equal(t, models.TransactionTypeRefund, stored.Type)
		assert.True(t, decimal.RequireFromString("-100.00").Equal(stored.Amount))
	})

	t.Run("rejects records that break the sign rules", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		zero := purchase("0")
		_, err := store.Save(ctx, zero)
		assert.Error(t, err)

		negative := purchase("-3")
		_, err = store.Save(ctx, negative)
		assert.Error(t, err)

		orphan := purchase("3")
		orphan.Type = models.TransactionTypeRefund
		orphan.Amount = decimal.RequireFromString("-3")
		_, err = store.Save(ctx, orphan)
		assert.Error(t, err)
	})
}

func purchase(amount string) *models.Transaction {
	request := models.NewPaymentRequest("4111111111111111", "Ana Silva", decimal.RequireFromString(amount), "USD", models.NewYearMonth(2030, time.January), "123")
	return models.NewPurchase(request, "bank-"+amount, now())
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func assertSameTransaction(t *testing.T, want, got *models.Transaction) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.CardNumber, got.CardNumber)
	assert.True(t, want.Amount.Equal(got.Amount), "amount %s != %s", want.Amount, got.Amount)
	assert.Equal(t, want.Currency, got.Currency)
	assert.Equal(t, want.Type, got.Type)
	assert.True(t, want.Timestamp.Equal(got.Timestamp), "timestamp %s != %s", want.Timestamp, got.Timestamp)
	assert.Equal(t, want.OriginalTransactionID, got.OriginalTransactionID)
	assert.Equal(t, want.BankTransactionID, got.BankTransactionID)
}
