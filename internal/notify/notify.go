// Package notify сообщает о применённых комиссиях внешним получателям.
package notify

import (
	"context"
	"fmt"

	"drivercommission/internal/models"
	"drivercommission/internal/utils"
)

// Notifier получает уведомление после успешного применения комиссии.
// Ошибки уведомления не должны влиять на операцию, которая его вызвала.
type Notifier interface {
	CommissionApplied(ctx context.Context, entry models.CommissionHistoryEntry) error
}

// Noop ничего не отправляет.
type Noop struct{}

func (Noop) CommissionApplied(ctx context.Context, entry models.CommissionHistoryEntry) error {
	return nil
}

// FormatCommissionMessage формирует текст уведомления для владельца.
func FormatCommissionMessage(entry models.CommissionHistoryEntry) string {
	return fmt.Sprintf(
		"💰 Комиссия применена %s\nВодитель: %s\nЗаказ: %s\nСумма заказа: %s ₽\nСтавка: %s%%\nКомиссия: %s ₽\nК зачислению: %s ₽",
		utils.FormatDateForDisplay(entry.Timestamp),
		entry.DriverID,
		entry.OrderID,
		utils.FormatMoney(entry.OriginalAmount),
		utils.FormatMoney(entry.Rate),
		utils.FormatMoney(entry.CommissionAmount),
		utils.FormatMoney(entry.NetAmount),
	)
}
