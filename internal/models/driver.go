package models

import "time"

// Driver - запись водителя во внешнем хранилище водителей.
type Driver struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	Balance     float64        `json:"balance"`
	IsPremium   bool           `json:"isPremium"`
	Category    DriverCategory `json:"category,omitempty"`
	OrderCount  int            `json:"orderCount"`
	LastPayment *time.Time     `json:"lastPayment,omitempty"`
}

// EffectiveCategory возвращает категорию водителя; если она не задана,
// выводит её из признака премиум.
func (d Driver) EffectiveCategory() DriverCategory {
	if d.Category != "" {
		return d.Category
	}
	if d.IsPremium {
		return CategoryPremium
	}
	return CategoryStandard
}

// BalanceUpdate - метаданные изменения баланса водителя.
type BalanceUpdate struct {
	LastPayment     time.Time
	OrderCountDelta int
}
