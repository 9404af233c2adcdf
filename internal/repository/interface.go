package repository

import (
	"context"
	"errors"

	"drivercommission/internal/models"
)

// ErrNotFound возвращается, когда запрошенная запись отсутствует в хранилище.
var ErrNotFound = errors.New("record not found")

// RatesRepository хранит единственную запись конфигурации комиссий.
// SaveRates заменяет запись целиком.
type RatesRepository interface {
	LoadRates(ctx context.Context) (*models.CommissionRates, error)
	SaveRates(ctx context.Context, rates *models.CommissionRates) error
}

// HistoryRepository - журнал применённых комиссий, только добавление.
// ListHistory возвращает записи в порядке добавления.
type HistoryRepository interface {
	AppendHistory(ctx context.Context, entry models.CommissionHistoryEntry) error
	ListHistory(ctx context.Context) ([]models.CommissionHistoryEntry, error)
}

// ExpenseRepository - журнал расходов, только добавление.
type ExpenseRepository interface {
	AppendExpense(ctx context.Context, expense models.Expense) error
	ListExpenses(ctx context.Context) ([]models.Expense, error)
}

// DriverRepository - внешнее хранилище водителей.
type DriverRepository interface {
	FindDriverByID(ctx context.Context, id string) (*models.Driver, error)
	UpdateDriverBalance(ctx context.Context, id string, delta float64, meta models.BalanceUpdate) (*models.Driver, error)
	ListDrivers(ctx context.Context) ([]models.Driver, error)
}

// OrderRepository - история заказов, только чтение.
type OrderRepository interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
}
