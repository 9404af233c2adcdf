package commission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"drivercommission/internal/constants"
	"drivercommission/internal/logging"
	"drivercommission/internal/models"
	"drivercommission/internal/monitoring"
	"drivercommission/internal/repository"
	"drivercommission/internal/rules"
)

// CalculateCommission считает комиссию по плоской ставке, выбранной по
// признаку премиум водителя. Список правил не используется.
func (s *Service) CalculateCommission(ctx context.Context, driverID string, amount float64) (*models.FlatCommission, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	driver, err := s.findDriver(ctx, "CalculateCommission", driverID)
	if err != nil {
		return nil, err
	}

	result := flatCommission(s.GetRates(ctx), driver, amount)
	monitoring.CommissionCalculationsTotal.WithLabelValues("legacy").Inc()
	return &result, nil
}

// CalculateFlexibleCommission отбирает применимые правила, считает вклад
// каждого и суммирует их. Сработавшие правила применяются все, по порядку.
func (s *Service) CalculateFlexibleCommission(ctx context.Context, driverID string, amount float64, orderData *models.OrderData) (*models.CommissionCalculation, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	driver, err := s.findDriver(ctx, "CalculateFlexibleCommission", driverID)
	if err != nil {
		return nil, err
	}
	if orderData == nil {
		orderData = &models.OrderData{}
	}

	rates := s.GetRates(ctx)
	now := s.now()
	evalCtx := models.EvaluationContext{
		Amount:         amount,
		DriverCategory: driver.EffectiveCategory(),
		OrderType:      orderData.OrderType,
		Region:         orderData.Region,
		OrderTime:      orderData.OrderTime,
	}
	matched := rules.FindApplicableRules(rates.Rules, evalCtx)

	var stats models.DriverPeriodStats
	if needsPeriodStats(matched) {
		stats = s.periodStats(ctx, driverID, orderData.OrderID, now)
	}

	applied := make([]models.RuleApplication, 0, len(matched))
	contributions := make([]float64, 0, len(matched))
	for _, rule := range matched {
		value, errCalc := rules.CalculateRuleCommission(rule, amount, stats)
		if errCalc != nil {
			logging.Logger.Error("Правило пропущено при расчёте",
				zap.String("operation", "CalculateFlexibleCommission"),
				zap.String("rule_id", rule.ID), zap.Error(errCalc))
			continue
		}
		contributions = append(contributions, value)
		applied = append(applied, models.RuleApplication{
			RuleID:      rule.ID,
			RuleName:    rule.Name,
			Type:        rule.Type,
			Value:       rule.Value,
			Commission:  value,
			Description: rules.Describe(rule, amount, value, stats),
		})
	}

	total := rules.Sum(contributions...)
	monitoring.CommissionCalculationsTotal.WithLabelValues("flexible").Inc()
	return &models.CommissionCalculation{
		OrderID:         orderData.OrderID,
		DriverID:        driverID,
		OriginalAmount:  amount,
		AppliedRules:    applied,
		TotalCommission: total,
		NetAmount:       rules.Sub(amount, total),
		CalculatedAt:    now,
	}, nil
}

func flatCommission(rates *models.CommissionRates, driver *models.Driver, amount float64) models.FlatCommission {
	rate := rates.Standard
	if driver.IsPremium {
		rate = rates.Premium
	}
	commission := rules.Percent(amount, rate)
	return models.FlatCommission{
		CommissionRate:   rate,
		CommissionAmount: commission,
		NetAmount:        rules.Sub(amount, commission),
		IsPremium:        driver.IsPremium,
	}
}

func needsPeriodStats(matched []models.CommissionRule) bool {
	for _, rule := range matched {
		if rule.Type == models.RuleTypeWeekly || rule.Type == models.RuleTypeMonthly {
			return true
		}
	}
	return false
}

// periodStats проверяет по истории заказов, есть ли у водителя заказы в
// текущей неделе (с понедельника) и текущем месяце, не считая excludeOrderID
// и отменённые заказы. Ошибка чтения истории трактуется как пустая история.
func (s *Service) periodStats(ctx context.Context, driverID, excludeOrderID string, now time.Time) models.DriverPeriodStats {
	stats := models.DriverPeriodStats{FirstOrderThisWeek: true, FirstOrderThisMonth: true}
	if s.orders == nil {
		return stats
	}
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		logging.Logger.Warn("Не удалось прочитать историю заказов",
			zap.String("operation", "periodStats"), zap.String("driver_id", driverID), zap.Error(err))
		return stats
	}

	weekStart := StartOfWeek(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for _, order := range orders {
		if order.DriverID != driverID || order.Status == constants.STATUS_CANCELED {
			continue
		}
		if excludeOrderID != "" && order.ID == excludeOrderID {
			continue
		}
		at, ok := order.Time(now.Location())
		if !ok || at.After(now) {
			continue
		}
		if !at.Before(weekStart) {
			stats.FirstOrderThisWeek = false
		}
		if !at.Before(monthStart) {
			stats.FirstOrderThisMonth = false
		}
	}
	return stats
}

// StartOfWeek возвращает понедельник 00:00 недели, в которую попадает t.
func StartOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func (s *Service) findDriver(ctx context.Context, operation, driverID string) (*models.Driver, error) {
	driver, err := s.drivers.FindDriverByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logging.Logger.Warn("Водитель не найден", zap.String("operation", operation), zap.String("driver_id", driverID))
			return nil, fmt.Errorf("%w: %s", ErrDriverNotFound, driverID)
		}
		logging.Logger.Error("Ошибка чтения водителя", zap.String("operation", operation), zap.String("driver_id", driverID), zap.Error(err))
		return nil, fmt.Errorf("ошибка чтения водителя %s: %w", driverID, err)
	}
	return driver, nil
}
