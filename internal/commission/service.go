// Package commission хранит конфигурацию комиссий, считает комиссию по
// плоским ставкам и по правилам и применяет её к балансу водителя.
package commission

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"drivercommission/internal/logging"
	"drivercommission/internal/models"
	"drivercommission/internal/monitoring"
	"drivercommission/internal/notify"
	"drivercommission/internal/repository"
	"drivercommission/internal/rules"
)

// Dependencies содержит зависимости сервиса комиссий.
type Dependencies struct {
	Rates    repository.RatesRepository
	History  repository.HistoryRepository
	Drivers  repository.DriverRepository
	Orders   repository.OrderRepository
	Notifier notify.Notifier
	// Seed заменяет встроенную запись по умолчанию, если задан.
	Seed *models.CommissionRates
	// Now - источник текущего времени; по умолчанию time.Now.
	Now func() time.Time
}

// Service - движок комиссий. Запись ставок и баланс водителей меняются
// под отдельными мьютексами, так что параллельные изменения не теряются.
type Service struct {
	rates    repository.RatesRepository
	history  repository.HistoryRepository
	drivers  repository.DriverRepository
	orders   repository.OrderRepository
	notifier notify.Notifier
	seed     *models.CommissionRates
	now      func() time.Time

	ratesMu  sync.Mutex
	ledgerMu sync.Mutex
}

// NewService создаёт сервис комиссий.
func NewService(deps Dependencies) *Service {
	s := &Service{
		rates:    deps.Rates,
		history:  deps.History,
		drivers:  deps.Drivers,
		orders:   deps.Orders,
		notifier: deps.Notifier,
		seed:     deps.Seed,
		now:      deps.Now,
	}
	if s.notifier == nil {
		s.notifier = notify.Noop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// --- Хранилище ставок ---

// GetRates возвращает текущую запись. Если записи нет, создаёт и сохраняет
// запись по умолчанию. При ошибке чтения возвращает запись по умолчанию
// в памяти, не сохраняя её.
func (s *Service) GetRates(ctx context.Context) *models.CommissionRates {
	s.ratesMu.Lock()
	defer s.ratesMu.Unlock()

	rates, err := s.loadRatesLocked(ctx)
	if err != nil {
		logging.Logger.Error("Не удалось прочитать ставки комиссий, используются значения по умолчанию",
			zap.String("operation", "GetRates"), zap.Error(err))
		return s.defaults(s.now())
	}
	return rates.Clone()
}

// SaveRates заменяет запись целиком.
func (s *Service) SaveRates(ctx context.Context, rates *models.CommissionRates) (*models.CommissionRates, error) {
	if rates == nil {
		return nil, fmt.Errorf("%w: пустая запись", ErrInvalidRate)
	}
	if err := validateRates(rates); err != nil {
		return nil, err
	}

	s.ratesMu.Lock()
	defer s.ratesMu.Unlock()

	replacement := rates.Clone()
	replacement.LastUpdated = s.now()
	if err := s.rates.SaveRates(ctx, replacement); err != nil {
		logging.Logger.Error("Ошибка сохранения ставок комиссий", zap.String("operation", "SaveRates"), zap.Error(err))
		return nil, fmt.Errorf("ошибка сохранения ставок: %w", err)
	}
	monitoring.RuleMutationsTotal.WithLabelValues("save_rates").Inc()
	return replacement.Clone(), nil
}

// UpdateFlatRates меняет только плоские ставки standard и premium.
func (s *Service) UpdateFlatRates(ctx context.Context, standard, premium float64) (*models.CommissionRates, error) {
	if err := validateFlatRate(standard); err != nil {
		return nil, err
	}
	if err := validateFlatRate(premium); err != nil {
		return nil, err
	}
	return s.mutateRates(ctx, "update_flat_rates", func(rates *models.CommissionRates, now time.Time) error {
		rates.Standard = standard
		rates.Premium = premium
		return nil
	})
}

// --- Правила ---

// GetRules возвращает все правила.
func (s *Service) GetRules(ctx context.Context) []models.CommissionRule {
	return s.GetRates(ctx).Rules
}

// GetRule возвращает правило по id.
func (s *Service) GetRule(ctx context.Context, id string) (*models.CommissionRule, error) {
	rates := s.GetRates(ctx)
	idx := rates.FindRule(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	rule := rates.Rules[idx]
	return &rule, nil
}

// AddRule создаёт новое правило с новым id.
func (s *Service) AddRule(ctx context.Context, input models.RuleInput) (*models.CommissionRule, error) {
	if err := validateRule(input.Type, input.Value, input.Conditions); err != nil {
		return nil, err
	}

	var created models.CommissionRule
	_, err := s.mutateRates(ctx, "add_rule", func(rates *models.CommissionRates, now time.Time) error {
		created = models.CommissionRule{
			ID:          "rule_" + uuid.New().String(),
			Name:        input.Name,
			Description: input.Description,
			Type:        input.Type,
			Value:       input.Value,
			IsActive:    input.IsActive == nil || *input.IsActive,
			Conditions:  input.Conditions,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		rates.Rules = append(rates.Rules, created.Clone())
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Logger.Info("Правило комиссии создано", zap.String("rule_id", created.ID), zap.String("type", string(created.Type)))
	return &created, nil
}

// UpdateRule заменяет изменяемые поля правила. id и createdAt сохраняются;
// если IsActive не передан, активность не меняется.
func (s *Service) UpdateRule(ctx context.Context, id string, input models.RuleInput) (*models.CommissionRule, error) {
	if err := validateRule(input.Type, input.Value, input.Conditions); err != nil {
		return nil, err
	}

	var updated models.CommissionRule
	_, err := s.mutateRates(ctx, "update_rule", func(rates *models.CommissionRates, now time.Time) error {
		idx := rates.FindRule(id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
		}
		rule := &rates.Rules[idx]
		rule.Name = input.Name
		rule.Description = input.Description
		rule.Type = input.Type
		rule.Value = input.Value
		if input.IsActive != nil {
			rule.IsActive = *input.IsActive
		}
		rule.Conditions = input.Conditions
		rule.UpdatedAt = now
		updated = rule.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteRule удаляет правило. Правило по умолчанию удалить нельзя.
func (s *Service) DeleteRule(ctx context.Context, id string) error {
	_, err := s.mutateRates(ctx, "delete_rule", func(rates *models.CommissionRates, now time.Time) error {
		if id == rates.DefaultRule {
			return fmt.Errorf("%w: %s", ErrDefaultRuleDelete, id)
		}
		idx := rates.FindRule(id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
		}
		rates.Rules = append(rates.Rules[:idx], rates.Rules[idx+1:]...)
		return nil
	})
	if err != nil {
		return err
	}
	logging.Logger.Info("Правило комиссии удалено", zap.String("rule_id", id))
	return nil
}

// ToggleRule переключает активность правила.
func (s *Service) ToggleRule(ctx context.Context, id string) (*models.CommissionRule, error) {
	var toggled models.CommissionRule
	_, err := s.mutateRates(ctx, "toggle_rule", func(rates *models.CommissionRates, now time.Time) error {
		idx := rates.FindRule(id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
		}
		rates.Rules[idx].IsActive = !rates.Rules[idx].IsActive
		rates.Rules[idx].UpdatedAt = now
		toggled = rates.Rules[idx].Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &toggled, nil
}

// SetDefaultRule назначает правило по умолчанию.
func (s *Service) SetDefaultRule(ctx context.Context, id string) (*models.CommissionRates, error) {
	return s.mutateRates(ctx, "set_default_rule", func(rates *models.CommissionRates, now time.Time) error {
		if rates.FindRule(id) < 0 {
			return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
		}
		rates.DefaultRule = id
		return nil
	})
}

// mutateRates выполняет чтение-изменение-запись записи ставок под ratesMu.
// Если fn вернула ошибку или запись не удалась, сохранённое состояние не меняется.
func (s *Service) mutateRates(ctx context.Context, operation string, fn func(rates *models.CommissionRates, now time.Time) error) (*models.CommissionRates, error) {
	s.ratesMu.Lock()
	defer s.ratesMu.Unlock()

	rates, err := s.loadRatesLocked(ctx)
	if err != nil {
		logging.Logger.Error("Ошибка чтения ставок перед изменением", zap.String("operation", operation), zap.Error(err))
		return nil, fmt.Errorf("ошибка чтения ставок: %w", err)
	}

	now := s.now()
	if err := fn(rates, now); err != nil {
		logging.Logger.Warn("Изменение ставок отклонено", zap.String("operation", operation), zap.Error(err))
		return nil, err
	}
	rates.LastUpdated = now

	if err := s.rates.SaveRates(ctx, rates); err != nil {
		logging.Logger.Error("Ошибка сохранения ставок", zap.String("operation", operation), zap.Error(err))
		return nil, fmt.Errorf("ошибка сохранения ставок: %w", err)
	}
	monitoring.RuleMutationsTotal.WithLabelValues(operation).Inc()
	return rates.Clone(), nil
}

// loadRatesLocked читает запись; при её отсутствии создаёт и сохраняет
// запись по умолчанию. Если сохранить её не удалось, запись всё равно
// возвращается. Вызывается под ratesMu.
func (s *Service) loadRatesLocked(ctx context.Context) (*models.CommissionRates, error) {
	rates, err := s.rates.LoadRates(ctx)
	if err == nil {
		return rates, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	defaults := s.defaults(s.now())
	if errSave := s.rates.SaveRates(ctx, defaults); errSave != nil {
		logging.Logger.Error("Не удалось сохранить ставки по умолчанию", zap.String("operation", "GetRates"), zap.Error(errSave))
	} else {
		logging.Logger.Info("Созданы ставки комиссий по умолчанию", zap.Int("rules", len(defaults.Rules)))
	}
	return defaults, nil
}

func (s *Service) defaults(now time.Time) *models.CommissionRates {
	if s.seed == nil {
		return DefaultRates(now)
	}
	rates := s.seed.Clone()
	for i := range rates.Rules {
		rates.Rules[i].CreatedAt = now
		rates.Rules[i].UpdatedAt = now
	}
	rates.LastUpdated = now
	return rates
}

// --- Проверки ---

func validateFlatRate(rate float64) error {
	if rate < 0 || rate > 100 {
		return fmt.Errorf("%w: ставка %s вне диапазона 0..100", ErrInvalidRate, formatAmount(rate))
	}
	return nil
}

func validateRule(ruleType models.RuleType, value float64, cond models.RuleConditions) error {
	if !ruleType.Valid() {
		return fmt.Errorf("%w: неизвестный тип %q", ErrInvalidRule, ruleType)
	}
	if value < 0 {
		return fmt.Errorf("%w: значение не может быть отрицательным", ErrInvalidRule)
	}
	if ruleType == models.RuleTypePercentage && value > 100 {
		return fmt.Errorf("%w: процент больше 100", ErrInvalidRule)
	}
	if cond.MinAmount != nil && *cond.MinAmount < 0 {
		return fmt.Errorf("%w: minAmount отрицательный", ErrInvalidRule)
	}
	if cond.MaxAmount != nil && *cond.MaxAmount < 0 {
		return fmt.Errorf("%w: maxAmount отрицательный", ErrInvalidRule)
	}
	if cond.MinAmount != nil && cond.MaxAmount != nil && *cond.MinAmount > *cond.MaxAmount {
		return fmt.Errorf("%w: minAmount больше maxAmount", ErrInvalidRule)
	}
	if cond.DriverCategory != "" && !cond.DriverCategory.Valid() {
		return fmt.Errorf("%w: неизвестная категория %q", ErrInvalidRule, cond.DriverCategory)
	}
	if cond.TimeRange != nil {
		start, err := rules.ParseHour(cond.TimeRange.Start)
		if err != nil {
			return fmt.Errorf("%w: timeRange.start: %v", ErrInvalidRule, err)
		}
		end, err := rules.ParseHour(cond.TimeRange.End)
		if err != nil {
			return fmt.Errorf("%w: timeRange.end: %v", ErrInvalidRule, err)
		}
		if start > end {
			return fmt.Errorf("%w: timeRange.start позже timeRange.end", ErrInvalidRule)
		}
	}
	return nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
