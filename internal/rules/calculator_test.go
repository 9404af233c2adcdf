package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivercommission/internal/models"
)

func TestPercentageCommission(t *testing.T) {
	rule := models.CommissionRule{Type: models.RuleTypePercentage, Value: 15}

	got, err := CalculateRuleCommission(rule, 100000, models.DriverPeriodStats{})
	require.NoError(t, err)
	assert.Equal(t, 15000.0, got)
	assert.Equal(t, 85000.0, Sub(100000, got))
}

func TestPercentageIsLinear(t *testing.T) {
	rule := models.CommissionRule{Type: models.RuleTypePercentage, Value: 12}

	for _, a := range []float64{100, 2500, 12345, 50000} {
		single, err := CalculateRuleCommission(rule, a, models.DriverPeriodStats{})
		require.NoError(t, err)
		double, err := CalculateRuleCommission(rule, 2*a, models.DriverPeriodStats{})
		require.NoError(t, err)
		assert.InDelta(t, 2*single, double, 1e-9, "amount %v", a)
	}
}

func TestFixedIsAmountInvariant(t *testing.T) {
	rule := models.CommissionRule{Type: models.RuleTypeFixed, Value: 5000}

	a, err := CalculateRuleCommission(rule, 10, models.DriverPeriodStats{})
	require.NoError(t, err)
	b, err := CalculateRuleCommission(rule, 999999, models.DriverPeriodStats{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 5000.0, a)
}

func TestPeriodicRules(t *testing.T) {
	daily := models.CommissionRule{Type: models.RuleTypeDaily, Value: 300}
	weekly := models.CommissionRule{Type: models.RuleTypeWeekly, Value: 1000}
	monthly := models.CommissionRule{Type: models.RuleTypeMonthly, Value: 3000}

	first := models.DriverPeriodStats{FirstOrderThisWeek: true, FirstOrderThisMonth: true}
	repeat := models.DriverPeriodStats{}

	cases := []struct {
		name  string
		rule  models.CommissionRule
		stats models.DriverPeriodStats
		want  float64
	}{
		{"daily first", daily, first, 300},
		{"daily repeat", daily, repeat, 300},
		{"weekly first", weekly, first, 1000},
		{"weekly repeat", weekly, repeat, 0},
		{"monthly first", monthly, first, 3000},
		{"monthly repeat", monthly, repeat, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculateRuleCommission(tc.rule, 40000, tc.stats)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUnknownRuleType(t *testing.T) {
	_, err := CalculateRuleCommission(models.CommissionRule{Type: "bonus", Value: 1}, 100, models.DriverPeriodStats{})
	assert.ErrorIs(t, err, ErrUnknownRuleType)
}

func TestTwoRulesSum(t *testing.T) {
	fixed := models.CommissionRule{Type: models.RuleTypeFixed, Value: 5000}
	pct := models.CommissionRule{Type: models.RuleTypePercentage, Value: 10}

	a, _ := CalculateRuleCommission(fixed, 50000, models.DriverPeriodStats{})
	b, _ := CalculateRuleCommission(pct, 50000, models.DriverPeriodStats{})
	total := Sum(a, b)

	assert.Equal(t, 10000.0, total)
	assert.Equal(t, 40000.0, Sub(50000, total))
}

func TestDescribe(t *testing.T) {
	pct := models.CommissionRule{Type: models.RuleTypePercentage, Value: 15}
	assert.Equal(t, "15% of 100000 = 15000", Describe(pct, 100000, 15000, models.DriverPeriodStats{}))

	weekly := models.CommissionRule{Type: models.RuleTypeWeekly, Value: 1000}
	assert.Contains(t, Describe(weekly, 1, 0, models.DriverPeriodStats{}), "already charged")
}

func TestGrossFromNet(t *testing.T) {
	assert.Equal(t, 10000.0, GrossFromNet(8500, 15))
	assert.Equal(t, 0.0, GrossFromNet(0, 12))
	assert.Equal(t, 500.0, GrossFromNet(500, 100))
}
