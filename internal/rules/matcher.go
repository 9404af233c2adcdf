// Package rules отбирает применимые правила комиссии и считает вклад каждого.
package rules

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"drivercommission/internal/logging"
	"drivercommission/internal/models"
)

// FindApplicableRules возвращает правила, все условия которых выполняются
// для ctx. Порядок исходного списка сохраняется; может сработать ноль или
// несколько правил одновременно.
func FindApplicableRules(rules []models.CommissionRule, ctx models.EvaluationContext) []models.CommissionRule {
	matched := make([]models.CommissionRule, 0, len(rules))
	for _, rule := range rules {
		if Matches(rule, ctx) {
			matched = append(matched, rule)
		}
	}
	return matched
}

// Matches проверяет одно правило. Отсутствующее условие не ограничивает.
func Matches(rule models.CommissionRule, ctx models.EvaluationContext) bool {
	if !rule.IsActive {
		return false
	}

	cond := rule.Conditions
	if cond.MinAmount != nil && ctx.Amount < *cond.MinAmount {
		return false
	}
	if cond.MaxAmount != nil && ctx.Amount > *cond.MaxAmount {
		return false
	}

	if cond.DriverCategory != "" && cond.DriverCategory != ctx.DriverCategory {
		return false
	}

	if len(cond.OrderType) > 0 && (ctx.OrderType == "" || !slices.Contains(cond.OrderType, ctx.OrderType)) {
		return false
	}
	if len(cond.Regions) > 0 && (ctx.Region == "" || !slices.Contains(cond.Regions, ctx.Region)) {
		return false
	}

	// Сравниваются только часы, минуты границ игнорируются; обе границы включительно.
	if cond.TimeRange != nil && ctx.OrderTime != nil {
		startHour, errStart := ParseHour(cond.TimeRange.Start)
		endHour, errEnd := ParseHour(cond.TimeRange.End)
		if errStart != nil || errEnd != nil {
			logging.Logger.Warn("Некорректный timeRange у правила, правило пропущено",
				zap.String("rule_id", rule.ID),
				zap.String("start", cond.TimeRange.Start),
				zap.String("end", cond.TimeRange.End))
			return false
		}
		hour := ctx.OrderTime.Hour()
		if hour < startHour || hour > endHour {
			return false
		}
	}

	return true
}

// ParseHour извлекает час из строки "HH:MM".
func ParseHour(value string) (int, error) {
	hourStr, minuteStr, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, fmt.Errorf("ожидается формат HH:MM, получено %q", value)
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("некорректный час в %q", value)
	}
	minute, err := strconv.Atoi(minuteStr)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("некорректные минуты в %q", value)
	}
	return hour, nil
}
