package rules

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"drivercommission/internal/models"
)

// ErrUnknownRuleType - тип правила не входит в таблицу расчёта.
var ErrUnknownRuleType = errors.New("unknown rule type")

var hundred = decimal.NewFromInt(100)

// CalculateRuleCommission считает вклад одного правила в комиссию.
//
//	percentage: amount * value / 100
//	fixed, daily: value при каждом заказе
//	weekly, monthly: value только за первый заказ периода, иначе 0
func CalculateRuleCommission(rule models.CommissionRule, amount float64, stats models.DriverPeriodStats) (float64, error) {
	switch rule.Type {
	case models.RuleTypePercentage:
		return Percent(amount, rule.Value), nil
	case models.RuleTypeFixed, models.RuleTypeDaily:
		return rule.Value, nil
	case models.RuleTypeWeekly:
		if stats.FirstOrderThisWeek {
			return rule.Value, nil
		}
		return 0, nil
	case models.RuleTypeMonthly:
		if stats.FirstOrderThisMonth {
			return rule.Value, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRuleType, rule.Type)
}

// Percent возвращает percent процентов от amount.
func Percent(amount, percent float64) float64 {
	v, _ := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(percent)).Div(hundred).Float64()
	return v
}

// Sum складывает суммы без накопления ошибки двоичной арифметики.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Float64()
	return f
}

// Sub возвращает a - b.
func Sub(a, b float64) float64 {
	v, _ := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Float64()
	return v
}

// GrossFromNet восстанавливает сумму до вычета percent процентов:
// net / (1 - percent/100). При percent >= 100 возвращает net.
func GrossFromNet(net, percent float64) float64 {
	if percent >= 100 {
		return net
	}
	share := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(percent).Div(hundred))
	v, _ := decimal.NewFromFloat(net).Div(share).Float64()
	return v
}

// Describe формирует человекочитаемое пояснение к вкладу правила.
func Describe(rule models.CommissionRule, amount, commission float64, stats models.DriverPeriodStats) string {
	switch rule.Type {
	case models.RuleTypePercentage:
		return fmt.Sprintf("%s%% of %s = %s", formatAmount(rule.Value), formatAmount(amount), formatAmount(commission))
	case models.RuleTypeFixed:
		return fmt.Sprintf("fixed fee %s", formatAmount(commission))
	case models.RuleTypeDaily:
		return fmt.Sprintf("daily fee %s", formatAmount(commission))
	case models.RuleTypeWeekly:
		if stats.FirstOrderThisWeek {
			return fmt.Sprintf("weekly fee %s (first order this week)", formatAmount(commission))
		}
		return "weekly fee already charged this week"
	case models.RuleTypeMonthly:
		if stats.FirstOrderThisMonth {
			return fmt.Sprintf("monthly fee %s (first order this month)", formatAmount(commission))
		}
		return "monthly fee already charged this month"
	}
	return fmt.Sprintf("unknown rule type %q", rule.Type)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
