package models

import "time"

// Order - запись истории заказов. Для этого модуля только чтение.
type Order struct {
	ID        string  `json:"id"`
	DriverID  string  `json:"driverId,omitempty"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`               // YYYY-MM-DD
	DateTime  string  `json:"dateTime,omitempty"` // RFC3339
	Status    string  `json:"status,omitempty"`
	OrderType string  `json:"orderType,omitempty"`
	Region    string  `json:"region,omitempty"`
}

// Time возвращает момент заказа: DateTime в RFC3339, если он задан, иначе
// начало дня Date в часовом поясе loc.
func (o Order) Time(loc *time.Location) (time.Time, bool) {
	if o.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, o.DateTime); err == nil {
			return t, true
		}
	}
	if o.Date != "" {
		if t, err := time.ParseInLocation("2006-01-02", o.Date, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
