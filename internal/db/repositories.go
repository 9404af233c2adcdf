package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"drivercommission/internal/constants"
	"drivercommission/internal/logging"
	"drivercommission/internal/models"
	"drivercommission/internal/repository"
)

// Store реализует репозитории поверх PostgreSQL.
type Store struct {
	db            *sql.DB
	historyLimit  int
	expensesLimit int
}

var (
	_ repository.RatesRepository   = (*Store)(nil)
	_ repository.HistoryRepository = (*Store)(nil)
	_ repository.ExpenseRepository = (*Store)(nil)
	_ repository.DriverRepository  = (*Store)(nil)
	_ repository.OrderRepository   = (*Store)(nil)
)

func NewStore(conn *sql.DB, historyLimit, expensesLimit int) *Store {
	return &Store{db: conn, historyLimit: historyLimit, expensesLimit: expensesLimit}
}

// --- Ставки ---

func (s *Store) LoadRates(ctx context.Context) (*models.CommissionRates, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM commission_rates WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ставок: %w", err)
	}
	var rates models.CommissionRates
	if err := json.Unmarshal(data, &rates); err != nil {
		return nil, fmt.Errorf("ошибка разбора ставок: %w", err)
	}
	return &rates, nil
}

func (s *Store) SaveRates(ctx context.Context, rates *models.CommissionRates) error {
	data, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("ошибка сериализации ставок: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO commission_rates (id, data, updated_at) VALUES (1, $1, NOW())
        ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`, data)
	if err != nil {
		return fmt.Errorf("ошибка сохранения ставок: %w", err)
	}
	return nil
}

// --- Журнал комиссий ---

func (s *Store) AppendHistory(ctx context.Context, entry models.CommissionHistoryEntry) error {
	return s.withTx(ctx, "AppendHistory", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO commission_history (driver_id, order_id, original_amount, rate, commission_amount, net_amount, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			entry.DriverID, entry.OrderID, entry.OriginalAmount, entry.Rate,
			entry.CommissionAmount, entry.NetAmount, entry.Timestamp)
		if err != nil {
			return fmt.Errorf("ошибка записи журнала комиссий: %w", err)
		}
		return trimTable(ctx, tx, "commission_history", s.historyLimit)
	})
}

func (s *Store) ListHistory(ctx context.Context) ([]models.CommissionHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT driver_id, order_id, original_amount, rate, commission_amount, net_amount, created_at
        FROM commission_history ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала комиссий: %w", err)
	}
	defer rows.Close()

	var out []models.CommissionHistoryEntry
	for rows.Next() {
		var e models.CommissionHistoryEntry
		if err := rows.Scan(&e.DriverID, &e.OrderID, &e.OriginalAmount, &e.Rate,
			&e.CommissionAmount, &e.NetAmount, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("ошибка сканирования журнала комиссий: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Расходы ---

func (s *Store) AppendExpense(ctx context.Context, expense models.Expense) error {
	return s.withTx(ctx, "AppendExpense", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO expenses (id, amount, category, description, expense_date, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)`,
			expense.ID, expense.Amount, expense.Category, expense.Description, expense.Date, expense.CreatedAt)
		if err != nil {
			return fmt.Errorf("ошибка записи расхода: %w", err)
		}
		return trimTable(ctx, tx, "expenses", s.expensesLimit)
	})
}

func (s *Store) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, amount, category, description, expense_date, created_at
        FROM expenses ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения расходов: %w", err)
	}
	defer rows.Close()

	var out []models.Expense
	for rows.Next() {
		var e models.Expense
		var date time.Time
		if err := rows.Scan(&e.ID, &e.Amount, &e.Category, &e.Description, &date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования расхода: %w", err)
		}
		e.Date = date.Format(constants.DATE_LAYOUT)
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Водители ---

const driverColumns = `id, name, balance, is_premium, category, order_count, last_payment`

func scanDriver(row interface{ Scan(...interface{}) error }) (*models.Driver, error) {
	var d models.Driver
	var category string
	var lastPayment sql.NullTime
	if err := row.Scan(&d.ID, &d.Name, &d.Balance, &d.IsPremium, &category, &d.OrderCount, &lastPayment); err != nil {
		return nil, err
	}
	d.Category = models.DriverCategory(category)
	if lastPayment.Valid {
		t := lastPayment.Time
		d.LastPayment = &t
	}
	return &d, nil
}

func (s *Store) FindDriverByID(ctx context.Context, id string) (*models.Driver, error) {
	d, err := scanDriver(s.db.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения водителя %s: %w", id, err)
	}
	return d, nil
}

// UpdateDriverBalance меняет баланс одним атомарным UPDATE.
func (s *Store) UpdateDriverBalance(ctx context.Context, id string, delta float64, meta models.BalanceUpdate) (*models.Driver, error) {
	var lastPayment sql.NullTime
	if !meta.LastPayment.IsZero() {
		lastPayment = sql.NullTime{Time: meta.LastPayment, Valid: true}
	}
	d, err := scanDriver(s.db.QueryRowContext(ctx, `
        UPDATE drivers
        SET balance = balance + $2,
            order_count = order_count + $3,
            last_payment = COALESCE($4::timestamptz, last_payment)
        WHERE id = $1
        RETURNING `+driverColumns, id, delta, meta.OrderCountDelta, lastPayment))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления баланса водителя %s: %w", id, err)
	}
	return d, nil
}

func (s *Store) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения водителей: %w", err)
	}
	defer rows.Close()

	var out []models.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования водителя: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// PutDriver создаёт или заменяет запись водителя.
func (s *Store) PutDriver(ctx context.Context, d models.Driver) error {
	var lastPayment sql.NullTime
	if d.LastPayment != nil {
		lastPayment = sql.NullTime{Time: *d.LastPayment, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO drivers (`+driverColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name, balance = EXCLUDED.balance, is_premium = EXCLUDED.is_premium,
            category = EXCLUDED.category, order_count = EXCLUDED.order_count, last_payment = EXCLUDED.last_payment`,
		d.ID, d.Name, d.Balance, d.IsPremium, string(d.Category), d.OrderCount, lastPayment)
	if err != nil {
		return fmt.Errorf("ошибка сохранения водителя %s: %w", d.ID, err)
	}
	return nil
}

// --- Заказы ---

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, COALESCE(driver_id, ''), amount, order_date, order_time, status, order_type, region
        FROM orders ORDER BY order_date, id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения заказов: %w", err)
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		var o models.Order
		var date, at sql.NullTime
		if err := rows.Scan(&o.ID, &o.DriverID, &o.Amount, &date, &at, &o.Status, &o.OrderType, &o.Region); err != nil {
			return nil, fmt.Errorf("ошибка сканирования заказа: %w", err)
		}
		if date.Valid {
			o.Date = date.Time.Format(constants.DATE_LAYOUT)
		}
		if at.Valid {
			o.DateTime = at.Time.Format(time.RFC3339)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// withTx выполняет fn в транзакции; при ошибке транзакция откатывается.
func (s *Store) withTx(ctx context.Context, operation string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: ошибка начала транзакции: %w", operation, err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			logging.Logger.Warn("Откат транзакции", zap.String("operation", operation), zap.Error(err))
			tx.Rollback()
		} else if err = tx.Commit(); err != nil {
			logging.Logger.Error("Ошибка коммита транзакции", zap.String("operation", operation), zap.Error(err))
		}
	}()
	return fn(tx)
}

// trimTable оставляет в таблице только limit последних строк по seq.
func trimTable(ctx context.Context, tx *sql.Tx, table string, limit int) error {
	if limit <= 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE seq <= (SELECT seq FROM %s ORDER BY seq DESC OFFSET $1 LIMIT 1)`, table, table), limit)
	if err != nil {
		return fmt.Errorf("ошибка усечения %s: %w", table, err)
	}
	return nil
}
