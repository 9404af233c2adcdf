// Файл: internal/db/db.go
package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"drivercommission/internal/logging"
)

var DB *sql.DB // Глобальное подключение к БД, используется CloseDB

// InitDB открывает соединение с PostgreSQL, создаёт таблицы и выполняет
// миграции схемы.
func InitDB(databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL не установлена")
	}

	parsedURL, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DATABASE_URL: %w", err)
	}
	query := parsedURL.Query()
	if query.Get("sslmode") == "" {
		query.Set("sslmode", "prefer")
	}
	parsedURL.RawQuery = query.Encode()

	conn, err := sql.Open("postgres", parsedURL.String())
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ошибка проверки соединения с базой данных: %w", err)
	}
	logging.Logger.Info("Успешное подключение к базе данных", zap.String("host", parsedURL.Hostname()))

	if err := createTables(conn); err != nil {
		conn.Close()
		return nil, err
	}
	if err := migrateDBSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	createIndexes(conn)

	DB = conn
	logging.Logger.Info("Инициализация базы данных успешно завершена")
	return conn, nil
}

func createTables(conn *sql.DB) (err error) {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции для создания таблиц: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			logging.Logger.Error("Откат транзакции создания таблиц", zap.Error(err))
			tx.Rollback()
		}
	}()

	createTablesSQL := `
        CREATE TABLE IF NOT EXISTS commission_rates (
            id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
            data JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS commission_history (
            seq BIGSERIAL PRIMARY KEY,
            driver_id TEXT NOT NULL,
            order_id TEXT NOT NULL,
            original_amount NUMERIC(14,2) NOT NULL,
            rate NUMERIC(6,2) NOT NULL,
            commission_amount NUMERIC(14,2) NOT NULL,
            net_amount NUMERIC(14,2) NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        );
        CREATE TABLE IF NOT EXISTS expenses (
            seq BIGSERIAL PRIMARY KEY,
            id TEXT NOT NULL UNIQUE,
            amount NUMERIC(14,2) NOT NULL,
            category TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            expense_date DATE NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        );
        CREATE TABLE IF NOT EXISTS drivers (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL DEFAULT '',
            balance NUMERIC(14,2) NOT NULL DEFAULT 0,
            is_premium BOOLEAN NOT NULL DEFAULT FALSE,
            order_count INTEGER NOT NULL DEFAULT 0,
            last_payment TIMESTAMPTZ
        );
        CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            driver_id TEXT,
            amount NUMERIC(14,2) NOT NULL DEFAULT 0,
            order_date DATE,
            order_time TIMESTAMPTZ,
            status TEXT NOT NULL DEFAULT ''
        );
    `
	if _, err = tx.Exec(createTablesSQL); err != nil {
		return fmt.Errorf("ошибка создания таблиц: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ошибка коммита создания таблиц: %w", err)
	}
	logging.Logger.Info("Таблицы созданы (если не существовали)")
	return nil
}

// migrateDBSchema выполняет миграции схемы. Каждая миграция идемпотентна.
func migrateDBSchema(conn *sql.DB) error {
	migrations := []struct {
		name string
		sql  string
	}{
		{
			name: "drivers.category",
			sql:  `ALTER TABLE drivers ADD COLUMN IF NOT EXISTS category TEXT NOT NULL DEFAULT '';`,
		},
		{
			name: "orders.order_type_region",
			sql: `ALTER TABLE orders
                  ADD COLUMN IF NOT EXISTS order_type TEXT NOT NULL DEFAULT '',
                  ADD COLUMN IF NOT EXISTS region TEXT NOT NULL DEFAULT '';`,
		},
		{
			name: "drivers.category_check",
			sql: `DO $$
                  BEGIN
                      IF NOT EXISTS (
                          SELECT 1 FROM pg_constraint
                          WHERE conrelid = 'drivers'::regclass
                          AND conname = 'drivers_category_check'
                      ) THEN
                          ALTER TABLE drivers ADD CONSTRAINT drivers_category_check
                              CHECK (category IN ('', 'standard', 'premium', 'vip'));
                      END IF;
                  END$$;`,
		},
	}

	for _, migration := range migrations {
		if _, err := conn.Exec(migration.sql); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				logging.Logger.Info("Миграция пропущена, объект уже существует", zap.String("migration", migration.name), zap.Error(err))
				continue
			}
			return fmt.Errorf("ошибка миграции схемы ('%s'): %w", migration.name, err)
		}
		logging.Logger.Debug("Миграция применена", zap.String("migration", migration.name))
	}
	logging.Logger.Info("Миграция схемы базы данных выполнена")
	return nil
}

// createIndexes создаёт индексы по одному; ошибка отдельного индекса
// только логируется.
func createIndexes(conn *sql.DB) {
	createIndexesSQL := `
        CREATE INDEX IF NOT EXISTS idx_commission_history_driver_id ON commission_history(driver_id);
        CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(expense_date);
        CREATE INDEX IF NOT EXISTS idx_orders_driver_id ON orders(driver_id);
        CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders(order_date);
    `
	for _, stmt := range strings.Split(strings.TrimSpace(createIndexesSQL), ";") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}
		if _, err := conn.Exec(trimmed); err != nil {
			logging.Logger.Warn("Ошибка при создании индекса", zap.String("statement", trimmed), zap.Error(err))
		}
	}
}

// CloseDB закрывает соединение с базой данных.
func CloseDB() {
	if DB != nil {
		DB.Close()
		logging.Logger.Info("Соединение с базой данных закрыто")
	}
}
