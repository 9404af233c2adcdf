package commission

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"drivercommission/internal/logging"
	"drivercommission/internal/models"
	"drivercommission/internal/monitoring"
	"drivercommission/internal/repository"
	"drivercommission/internal/rules"
)

// ApplyCommission считает комиссию по плоской ставке (не по правилам),
// зачисляет водителю netAmount, увеличивает счётчик заказов и добавляет
// запись в журнал. Баланс и журнал хранятся раздельно: если журнал записать
// не удалось, баланс уже изменён и ошибка возвращается вызывающему.
func (s *Service) ApplyCommission(ctx context.Context, driverID string, amount float64, orderID string) (*models.CommissionHistoryEntry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	driver, err := s.findDriver(ctx, "ApplyCommission", driverID)
	if err != nil {
		return nil, err
	}
	calc := flatCommission(s.GetRates(ctx), driver, amount)
	now := s.now()

	_, err = s.drivers.UpdateDriverBalance(ctx, driverID, calc.NetAmount, models.BalanceUpdate{
		LastPayment:     now,
		OrderCountDelta: 1,
	})
	if err != nil {
		logging.Logger.Error("Ошибка обновления баланса водителя",
			zap.String("operation", "ApplyCommission"), zap.String("driver_id", driverID),
			zap.String("order_id", orderID), zap.Error(err))
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDriverNotFound, driverID)
		}
		return nil, fmt.Errorf("ошибка обновления баланса водителя %s: %w", driverID, err)
	}

	entry := models.CommissionHistoryEntry{
		DriverID:         driverID,
		OrderID:          orderID,
		OriginalAmount:   amount,
		Rate:             calc.CommissionRate,
		CommissionAmount: calc.CommissionAmount,
		NetAmount:        calc.NetAmount,
		Timestamp:        now,
	}
	if err := s.history.AppendHistory(ctx, entry); err != nil {
		logging.Logger.Error("Баланс обновлён, но запись в журнал комиссий не удалась",
			zap.String("operation", "ApplyCommission"), zap.String("driver_id", driverID),
			zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("ошибка записи журнала комиссий: %w", err)
	}

	monitoring.CommissionsAppliedTotal.Inc()
	monitoring.CommissionAmountTotal.Add(calc.CommissionAmount)
	logging.Logger.Info("Комиссия применена",
		zap.String("driver_id", driverID), zap.String("order_id", orderID),
		zap.Float64("commission", calc.CommissionAmount), zap.Float64("net", calc.NetAmount))

	if err := s.notifier.CommissionApplied(ctx, entry); err != nil {
		logging.Logger.Warn("Уведомление о комиссии не отправлено",
			zap.String("driver_id", driverID), zap.String("order_id", orderID), zap.Error(err))
	}
	return &entry, nil
}

// GetDriverCommission пересчитывает снимок комиссий водителя из его баланса
// и плоской ставки.
func (s *Service) GetDriverCommission(ctx context.Context, driverID string) (*models.DriverCommission, error) {
	driver, err := s.findDriver(ctx, "GetDriverCommission", driverID)
	if err != nil {
		return nil, err
	}
	summary := driverCommission(s.GetRates(ctx), *driver)
	return &summary, nil
}

// GetAllDriversCommissions возвращает снимки по всем водителям, по id.
func (s *Service) GetAllDriversCommissions(ctx context.Context) ([]models.DriverCommission, error) {
	drivers, err := s.drivers.ListDrivers(ctx)
	if err != nil {
		logging.Logger.Error("Ошибка чтения списка водителей", zap.String("operation", "GetAllDriversCommissions"), zap.Error(err))
		return nil, fmt.Errorf("ошибка чтения водителей: %w", err)
	}
	rates := s.GetRates(ctx)
	out := make([]models.DriverCommission, 0, len(drivers))
	for _, driver := range drivers {
		out = append(out, driverCommission(rates, driver))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DriverID < out[j].DriverID })
	return out, nil
}

// GetCommissionHistory возвращает журнал, новые записи первыми. Пустой
// driverID - все водители; limit <= 0 - без ограничения.
func (s *Service) GetCommissionHistory(ctx context.Context, driverID string, limit int) ([]models.CommissionHistoryEntry, error) {
	entries, err := s.history.ListHistory(ctx)
	if err != nil {
		logging.Logger.Error("Ошибка чтения журнала комиссий", zap.String("operation", "GetCommissionHistory"), zap.Error(err))
		return nil, fmt.Errorf("ошибка чтения журнала комиссий: %w", err)
	}

	out := make([]models.CommissionHistoryEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if driverID != "" && entries[i].DriverID != driverID {
			continue
		}
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// driverCommission: баланс - это уже чистая сумма, общий заработок
// восстанавливается как balance / (1 - rate/100).
func driverCommission(rates *models.CommissionRates, driver models.Driver) models.DriverCommission {
	rate := rates.Standard
	if driver.IsPremium {
		rate = rates.Premium
	}
	total := rules.GrossFromNet(driver.Balance, rate)
	return models.DriverCommission{
		DriverID:           driver.ID,
		DriverName:         driver.Name,
		TotalEarnings:      total,
		CommissionDeducted: rules.Sub(total, driver.Balance),
		NetAmount:          driver.Balance,
		CommissionRate:     rate,
		OrderCount:         driver.OrderCount,
		LastPayment:        driver.LastPayment,
	}
}
