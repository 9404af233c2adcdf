package storage

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"drivercommission/internal/constants"
	"drivercommission/internal/logging"
	"drivercommission/internal/models"
	"drivercommission/internal/repository"
)

// FileStore собирает JSON-файловые реализации всех репозиториев
// в одном каталоге данных.
type FileStore struct {
	Rates    *RatesFile
	History  *HistoryFile
	Expenses *ExpensesFile
	Drivers  *DriversFile
	Orders   *OrdersFile
}

// NewFileStore создаёт хранилище в каталоге dir.
func NewFileStore(dir string, historyLimit, expensesLimit int) *FileStore {
	return &FileStore{
		Rates:    NewRatesFile(filepath.Join(dir, constants.FILE_RATES)),
		History:  NewHistoryFile(filepath.Join(dir, constants.FILE_HISTORY), historyLimit),
		Expenses: NewExpensesFile(filepath.Join(dir, constants.FILE_EXPENSES), expensesLimit),
		Drivers:  NewDriversFile(filepath.Join(dir, constants.FILE_DRIVERS)),
		Orders:   NewOrdersFile(filepath.Join(dir, constants.FILE_ORDERS)),
	}
}

// RatesFile хранит CommissionRates одним JSON-документом.
type RatesFile struct {
	doc *Document[models.CommissionRates]
}

var _ repository.RatesRepository = (*RatesFile)(nil)

func NewRatesFile(path string) *RatesFile {
	return &RatesFile{doc: NewDocument[models.CommissionRates](path)}
}

func (r *RatesFile) LoadRates(ctx context.Context) (*models.CommissionRates, error) {
	rates, err := r.doc.Load()
	if err != nil {
		return nil, err
	}
	return &rates, nil
}

func (r *RatesFile) SaveRates(ctx context.Context, rates *models.CommissionRates) error {
	return r.doc.Save(*rates)
}

// HistoryFile - журнал применённых комиссий в JSON-массиве с лимитом.
type HistoryFile struct {
	log *Log[models.CommissionHistoryEntry]
}

var _ repository.HistoryRepository = (*HistoryFile)(nil)

func NewHistoryFile(path string, limit int) *HistoryFile {
	return &HistoryFile{log: NewLog[models.CommissionHistoryEntry](path, limit)}
}

func (h *HistoryFile) AppendHistory(ctx context.Context, entry models.CommissionHistoryEntry) error {
	return h.log.Append(entry)
}

func (h *HistoryFile) ListHistory(ctx context.Context) ([]models.CommissionHistoryEntry, error) {
	return h.log.List(), nil
}

// ExpensesFile - журнал расходов в JSON-массиве с лимитом.
type ExpensesFile struct {
	log *Log[models.Expense]
}

var _ repository.ExpenseRepository = (*ExpensesFile)(nil)

func NewExpensesFile(path string, limit int) *ExpensesFile {
	return &ExpensesFile{log: NewLog[models.Expense](path, limit)}
}

func (e *ExpensesFile) AppendExpense(ctx context.Context, expense models.Expense) error {
	return e.log.Append(expense)
}

func (e *ExpensesFile) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	return e.log.List(), nil
}

// DriversFile хранит водителей одним JSON-документом: id -> запись.
type DriversFile struct {
	doc *Document[map[string]models.Driver]
}

var _ repository.DriverRepository = (*DriversFile)(nil)

func NewDriversFile(path string) *DriversFile {
	return &DriversFile{doc: NewDocument[map[string]models.Driver](path)}
}

func (d *DriversFile) load() map[string]models.Driver {
	drivers, err := d.doc.Load()
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logging.Logger.Warn("Файл водителей не прочитан", zap.String("path", d.doc.Path()), zap.Error(err))
		}
		return map[string]models.Driver{}
	}
	return drivers
}

func (d *DriversFile) FindDriverByID(ctx context.Context, id string) (*models.Driver, error) {
	driver, ok := d.load()[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	driver.ID = id
	return &driver, nil
}

func (d *DriversFile) UpdateDriverBalance(ctx context.Context, id string, delta float64, meta models.BalanceUpdate) (*models.Driver, error) {
	var updated models.Driver
	err := d.doc.Update(func(drivers *map[string]models.Driver, found bool) error {
		driver, ok := (*drivers)[id]
		if !found || !ok {
			return repository.ErrNotFound
		}
		driver.ID = id
		driver.Balance += delta
		driver.OrderCount += meta.OrderCountDelta
		if !meta.LastPayment.IsZero() {
			lp := meta.LastPayment
			driver.LastPayment = &lp
		}
		(*drivers)[id] = driver
		updated = driver
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (d *DriversFile) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	drivers := d.load()
	out := make([]models.Driver, 0, len(drivers))
	for id, driver := range drivers {
		driver.ID = id
		out = append(out, driver)
	}
	return out, nil
}

// PutDriver создаёт или заменяет запись водителя. Используется для
// начального заполнения и в тестах.
func (d *DriversFile) PutDriver(driver models.Driver) error {
	return d.doc.Update(func(drivers *map[string]models.Driver, found bool) error {
		if *drivers == nil {
			*drivers = map[string]models.Driver{}
		}
		(*drivers)[driver.ID] = driver
		return nil
	})
}

// OrdersFile - история заказов в JSON-массиве. Модуль её только читает.
type OrdersFile struct {
	log *Log[models.Order]
}

var _ repository.OrderRepository = (*OrdersFile)(nil)

func NewOrdersFile(path string) *OrdersFile {
	return &OrdersFile{log: NewLog[models.Order](path, 0)}
}

func (o *OrdersFile) ListOrders(ctx context.Context) ([]models.Order, error) {
	return o.log.List(), nil
}

// AppendOrder добавляет заказ; используется для начального заполнения и в тестах.
func (o *OrdersFile) AppendOrder(order models.Order) error {
	return o.log.Append(order)
}
