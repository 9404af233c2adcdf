package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivercommission/internal/models"
	"drivercommission/internal/repository"
)

// openTestStore подключается к TEST_DATABASE_URL и очищает таблицы.
// Без переменной тест пропускается.
func openTestStore(t *testing.T, historyLimit int) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL не задан")
	}
	conn, err := InitDB(url)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(`TRUNCATE commission_rates, commission_history, expenses, drivers, orders`)
	require.NoError(t, err)
	return NewStore(conn, historyLimit, 10)
}

func TestStoreRates(t *testing.T) {
	s := openTestStore(t, 10)
	ctx := context.Background()

	_, err := s.LoadRates(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	rates := &models.CommissionRates{Standard: 15, Premium: 12, DefaultRule: "r1",
		Rules: []models.CommissionRule{{ID: "r1", Type: models.RuleTypePercentage, Value: 15, IsActive: true}}}
	require.NoError(t, s.SaveRates(ctx, rates))
	rates.Standard = 20
	require.NoError(t, s.SaveRates(ctx, rates))

	got, err := s.LoadRates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.Standard)
	assert.Equal(t, "r1", got.Rules[0].ID)
}

func TestStoreHistoryCap(t *testing.T) {
	s := openTestStore(t, 3)
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.AppendHistory(ctx, models.CommissionHistoryEntry{
			DriverID: "d1", OrderID: fmt.Sprint(i), OriginalAmount: 100, Rate: 15,
			CommissionAmount: 15, NetAmount: 85, Timestamp: now,
		}))
	}
	entries, err := s.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "3", entries[0].OrderID)
	assert.Equal(t, "5", entries[2].OrderID)
}

func TestStoreDriverBalance(t *testing.T) {
	s := openTestStore(t, 10)
	ctx := context.Background()
	require.NoError(t, s.PutDriver(ctx, models.Driver{ID: "d1", Name: "Иван", Balance: 100, Category: models.CategoryVIP}))

	paid := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	d, err := s.UpdateDriverBalance(ctx, "d1", 850, models.BalanceUpdate{LastPayment: paid, OrderCountDelta: 1})
	require.NoError(t, err)
	assert.Equal(t, 950.0, d.Balance)
	assert.Equal(t, 1, d.OrderCount)
	require.NotNil(t, d.LastPayment)
	assert.True(t, d.LastPayment.Equal(paid))
	assert.Equal(t, models.CategoryVIP, d.Category)

	_, err = s.UpdateDriverBalance(ctx, "ghost", 1, models.BalanceUpdate{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.FindDriverByID(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStoreExpenses(t *testing.T) {
	s := openTestStore(t, 10)
	ctx := context.Background()
	created := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendExpense(ctx, models.Expense{ID: "e1", Amount: 300, Category: "fuel", Date: "2026-10-14", CreatedAt: created}))
	list, err := s.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2026-10-14", list[0].Date)
	assert.Equal(t, 300.0, list[0].Amount)
}
