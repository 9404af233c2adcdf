// Package finance сводит заказы и расходы в отчёты о выручке, расходах
// и прибыли за период.
package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"drivercommission/internal/constants"
	"drivercommission/internal/logging"
	"drivercommission/internal/models"
	"drivercommission/internal/repository"
)

var (
	ErrInvalidPeriod  = errors.New("неизвестный период")
	ErrInvalidExpense = errors.New("некорректный расход")
	ErrInvalidDate    = errors.New("некорректная дата")
)

const maxTrendMonths = 36

// Dependencies содержит зависимости сервиса финансов.
type Dependencies struct {
	Orders   repository.OrderRepository
	Expenses repository.ExpenseRepository
	// CommissionEstimate - процент от суммы заказов, добавляемый к выручке
	// как оценка комиссионного дохода. 0 отключает оценку.
	CommissionEstimate float64
	Now                func() time.Time
}

// Service строит финансовые отчёты.
type Service struct {
	orders   repository.OrderRepository
	expenses repository.ExpenseRepository
	estimate float64
	now      func() time.Time
	validate *validator.Validate

	expensesMu sync.Mutex
}

// NewService создаёт сервис финансов.
func NewService(deps Dependencies) *Service {
	s := &Service{
		orders:   deps.Orders,
		expenses: deps.Expenses,
		estimate: deps.CommissionEstimate,
		now:      deps.Now,
		validate: validator.New(),
	}
	if s.estimate < 0 || s.estimate > 100 {
		logging.Logger.Warn("Оценка комиссии вне диапазона 0..100, используется значение по умолчанию",
			zap.Float64("value", s.estimate))
		s.estimate = constants.DEFAULT_COMMISSION_ESTIMATE
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// AddExpense проверяет и сохраняет расход. Пустая дата означает сегодня.
func (s *Service) AddExpense(ctx context.Context, input models.ExpenseInput) (*models.Expense, error) {
	input.Category = strings.TrimSpace(input.Category)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpense, err)
	}

	now := s.now()
	date := strings.TrimSpace(input.Date)
	if date == "" {
		date = now.Format(constants.DATE_LAYOUT)
	} else if _, err := time.Parse(constants.DATE_LAYOUT, date); err != nil {
		return nil, fmt.Errorf("%w: дата %q, ожидается YYYY-MM-DD", ErrInvalidExpense, input.Date)
	}

	expense := models.Expense{
		ID:          uuid.New().String(),
		Amount:      input.Amount,
		Category:    input.Category,
		Description: strings.TrimSpace(input.Description),
		Date:        date,
		CreatedAt:   now,
	}

	s.expensesMu.Lock()
	defer s.expensesMu.Unlock()
	if err := s.expenses.AppendExpense(ctx, expense); err != nil {
		logging.Logger.Error("Ошибка сохранения расхода", zap.String("operation", "AddExpense"), zap.Error(err))
		return nil, fmt.Errorf("ошибка сохранения расхода: %w", err)
	}
	logging.Logger.Info("Расход добавлен", zap.String("expense_id", expense.ID),
		zap.String("category", expense.Category), zap.Float64("amount", expense.Amount))
	return &expense, nil
}

// ListExpenses возвращает расходы с датой в диапазоне [from, to]
// включительно. Пустая граница не ограничивает диапазон.
func (s *Service) ListExpenses(ctx context.Context, from, to string) ([]models.Expense, error) {
	for _, bound := range []string{from, to} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse(constants.DATE_LAYOUT, bound); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, bound)
		}
	}

	all, err := s.loadExpenses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Expense, 0, len(all))
	for _, e := range all {
		// YYYY-MM-DD сравниваются лексикографически.
		if from != "" && e.Date < from {
			continue
		}
		if to != "" && e.Date > to {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// GetFinanceDashboard строит сводку за текущий период и сравнивает её
// с предыдущим периодом того же типа.
func (s *Service) GetFinanceDashboard(ctx context.Context, period string) (*models.FinanceDashboard, error) {
	if period == "" {
		period = constants.PERIOD_MONTHLY
	}
	now := s.now()
	current, previous, err := periodWindows(period, now)
	if err != nil {
		return nil, err
	}

	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	curRevenue := s.revenue(data.orders, current, now.Location())
	curExpenses := expenseSummary(data.expenses, current, now.Location())
	prevRevenue := s.revenue(data.orders, previous, now.Location())
	prevExpenses := expenseSummary(data.expenses, previous, now.Location())

	profit := sub(curRevenue.Total, curExpenses.Total)
	prevProfit := sub(prevRevenue.Total, prevExpenses.Total)

	return &models.FinanceDashboard{
		Period:   period,
		From:     current.from,
		To:       current.to,
		Revenue:  curRevenue,
		Expenses: curExpenses,
		Profit:   profit,
		Growth: models.Growth{
			Revenue:  growth(curRevenue.Total, prevRevenue.Total),
			Expenses: growth(curExpenses.Total, prevExpenses.Total),
			Profit:   growth(profit, prevProfit),
		},
	}, nil
}

// GetDailyReport строит отчёт за календарный день date (YYYY-MM-DD).
// Пустая дата означает сегодня.
func (s *Service) GetDailyReport(ctx context.Context, date string) (*models.DailyReport, error) {
	now := s.now()
	day := startOfDay(now)
	if date != "" {
		parsed, err := time.ParseInLocation(constants.DATE_LAYOUT, date, now.Location())
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
		day = parsed
	}

	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	report := s.dailyReport(data, day)
	return &report, nil
}

// GetMonthlyReport строит отчёт за месяц с разбивкой по всем его дням.
func (s *Service) GetMonthlyReport(ctx context.Context, year, month int) (*models.MonthlyReport, error) {
	if month < 1 || month > 12 || year < 1 {
		return nil, fmt.Errorf("%w: %d-%02d", ErrInvalidDate, year, month)
	}
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	report := s.monthlyReport(data, year, time.Month(month), s.now().Location())
	return &report, nil
}

// GetRevenueTrend возвращает помесячный ряд за последние months месяцев,
// включая текущий, от старого к новому.
func (s *Service) GetRevenueTrend(ctx context.Context, months int) ([]models.TrendPoint, error) {
	if months <= 0 {
		months = 6
	}
	if months > maxTrendMonths {
		months = maxTrendMonths
	}

	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	loc := now.Location()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(months - 1), 0)
	points := make([]models.TrendPoint, 0, months)
	for i := 0; i < months; i++ {
		start := first.AddDate(0, i, 0)
		w := window{from: start, to: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}
		revenue := s.revenue(data.orders, w, loc)
		expenses := expenseSummary(data.expenses, w, loc)
		points = append(points, models.TrendPoint{
			Month:    start.Format(constants.MONTH_LAYOUT),
			Revenue:  revenue.Total,
			Expenses: expenses.Total,
			Profit:   sub(revenue.Total, expenses.Total),
		})
	}
	return points, nil
}

type snapshot struct {
	orders   []models.Order
	expenses []models.Expense
}

// load читает заказы и расходы. Любая ошибка чтения прерывает отчёт.
func (s *Service) load(ctx context.Context) (snapshot, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		logging.Logger.Error("Ошибка чтения заказов для отчёта", zap.String("operation", "finance.load"), zap.Error(err))
		return snapshot{}, fmt.Errorf("ошибка чтения заказов: %w", err)
	}
	expenses, err := s.loadExpenses(ctx)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{orders: orders, expenses: expenses}, nil
}

func (s *Service) loadExpenses(ctx context.Context) ([]models.Expense, error) {
	expenses, err := s.expenses.ListExpenses(ctx)
	if err != nil {
		logging.Logger.Error("Ошибка чтения расходов", zap.String("operation", "finance.loadExpenses"), zap.Error(err))
		return nil, fmt.Errorf("ошибка чтения расходов: %w", err)
	}
	return expenses, nil
}

func (s *Service) dailyReport(data snapshot, day time.Time) models.DailyReport {
	w := window{from: day, to: day.AddDate(0, 0, 1).Add(-time.Nanosecond)}
	revenue := s.revenue(data.orders, w, day.Location())
	expenses := expenseSummary(data.expenses, w, day.Location())
	return models.DailyReport{
		Date:     day.Format(constants.DATE_LAYOUT),
		Revenue:  revenue,
		Expenses: expenses,
		Profit:   sub(revenue.Total, expenses.Total),
	}
}

func (s *Service) monthlyReport(data snapshot, year int, month time.Month, loc *time.Location) models.MonthlyReport {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)
	w := window{from: start, to: end.Add(-time.Nanosecond)}

	revenue := s.revenue(data.orders, w, loc)
	expenses := expenseSummary(data.expenses, w, loc)
	report := models.MonthlyReport{
		Year:     year,
		Month:    int(month),
		Revenue:  revenue,
		Expenses: expenses,
		Profit:   sub(revenue.Total, expenses.Total),
	}
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		report.Days = append(report.Days, s.dailyReport(data, day))
	}
	return report
}

// revenue суммирует неотменённые заказы окна и добавляет оценку
// комиссионного дохода в estimate процентов от их суммы.
func (s *Service) revenue(orders []models.Order, w window, loc *time.Location) models.RevenueSummary {
	total := decimal.Zero
	count := 0
	for _, order := range orders {
		if order.Status == constants.STATUS_CANCELED {
			continue
		}
		at, ok := order.Time(loc)
		if !ok || !w.contains(at) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(order.Amount))
		count++
	}
	commission := total.Mul(decimal.NewFromFloat(s.estimate)).Div(decimal.NewFromInt(100)).Round(2)
	return models.RevenueSummary{
		Orders:     total.InexactFloat64(),
		Commission: commission.InexactFloat64(),
		Total:      total.Add(commission).InexactFloat64(),
		OrderCount: count,
	}
}

func expenseSummary(expenses []models.Expense, w window, loc *time.Location) models.ExpenseSummary {
	total := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	count := 0
	for _, e := range expenses {
		at, err := time.ParseInLocation(constants.DATE_LAYOUT, e.Date, loc)
		if err != nil || !w.contains(at) {
			continue
		}
		amount := decimal.NewFromFloat(e.Amount)
		total = total.Add(amount)
		byCategory[e.Category] = byCategory[e.Category].Add(amount)
		count++
	}
	summary := models.ExpenseSummary{
		Total:      total.InexactFloat64(),
		ByCategory: make(map[string]float64, len(byCategory)),
		Count:      count,
	}
	for category, amount := range byCategory {
		summary.ByCategory[category] = amount.InexactFloat64()
	}
	return summary
}

// growth - изменение cur относительно prev в процентах, с точностью до
// сотых. Если prev равен нулю, рост 100% при cur > 0 и 0 иначе.
func growth(cur, prev float64) float64 {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	c, p := decimal.NewFromFloat(cur), decimal.NewFromFloat(prev)
	return c.Sub(p).Div(p.Abs()).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

func sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).InexactFloat64()
}
