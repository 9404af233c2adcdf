package commission

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"drivercommission/internal/constants"
	"drivercommission/internal/models"
)

// DefaultRates возвращает запись по умолчанию: три процентных правила,
// каждое привязано к своей категории водителя.
func DefaultRates(now time.Time) *models.CommissionRates {
	rule := func(id, name string, value float64, category models.DriverCategory) models.CommissionRule {
		return models.CommissionRule{
			ID:          id,
			Name:        name,
			Description: fmt.Sprintf("%s%% для категории %s", formatAmount(value), constants.CategoryDisplayMap[string(category)]),
			Type:        models.RuleTypePercentage,
			Value:       value,
			IsActive:    true,
			Conditions:  models.RuleConditions{DriverCategory: category},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	return &models.CommissionRates{
		Standard: constants.DEFAULT_STANDARD_RATE,
		Premium:  constants.DEFAULT_PREMIUM_RATE,
		Rules: []models.CommissionRule{
			rule(constants.RULE_ID_STANDARD, "Стандартная комиссия", constants.DEFAULT_STANDARD_RATE, models.CategoryStandard),
			rule(constants.RULE_ID_PREMIUM, "Премиум комиссия", constants.DEFAULT_PREMIUM_RATE, models.CategoryPremium),
			rule(constants.RULE_ID_VIP, "VIP комиссия", constants.DEFAULT_VIP_RATE, models.CategoryVIP),
		},
		DefaultRule: constants.RULE_ID_STANDARD,
		LastUpdated: now,
	}
}

// LoadSeed читает начальную запись комиссий из YAML-файла. Она заменяет
// встроенную запись по умолчанию при первом чтении пустого хранилища.
func LoadSeed(path string) (*models.CommissionRates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла начальных ставок: %w", err)
	}

	var seed models.CommissionRates
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("ошибка разбора YAML начальных ставок: %w", err)
	}
	if err := validateRates(&seed); err != nil {
		return nil, fmt.Errorf("некорректные начальные ставки: %w", err)
	}
	return &seed, nil
}

// validateRates проверяет запись целиком: плоские ставки, каждое правило
// и то, что defaultRule ссылается на существующее правило.
func validateRates(rates *models.CommissionRates) error {
	if err := validateFlatRate(rates.Standard); err != nil {
		return err
	}
	if err := validateFlatRate(rates.Premium); err != nil {
		return err
	}
	seen := make(map[string]bool, len(rates.Rules))
	for _, rule := range rates.Rules {
		if rule.ID == "" {
			return fmt.Errorf("%w: у правила нет id", ErrInvalidRule)
		}
		if seen[rule.ID] {
			return fmt.Errorf("%w: повторяющийся id %q", ErrInvalidRule, rule.ID)
		}
		seen[rule.ID] = true
		if err := validateRule(rule.Type, rule.Value, rule.Conditions); err != nil {
			return err
		}
	}
	if !seen[rates.DefaultRule] {
		return fmt.Errorf("%w: defaultRule %q отсутствует в списке правил", ErrInvalidRule, rates.DefaultRule)
	}
	return nil
}
