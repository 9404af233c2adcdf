package api

import "drivercommission/internal/models"

// UpdateRatesRequest - новые плоские ставки.
type UpdateRatesRequest struct {
	Standard *float64 `json:"standard" validate:"required,gte=0,lte=100"`
	Premium  *float64 `json:"premium" validate:"required,gte=0,lte=100"`
}

// CalculateRequest - расчёт по плоской ставке.
type CalculateRequest struct {
	DriverID string  `json:"driverId" validate:"required"`
	Amount   float64 `json:"amount" validate:"gt=0"`
}

// CalculateFlexibleRequest - расчёт по правилам.
type CalculateFlexibleRequest struct {
	DriverID  string            `json:"driverId" validate:"required"`
	Amount    float64           `json:"amount" validate:"gt=0"`
	OrderData *models.OrderData `json:"orderData,omitempty"`
}

// ApplyRequest - применение комиссии к балансу водителя.
type ApplyRequest struct {
	DriverID string  `json:"driverId" validate:"required"`
	Amount   float64 `json:"amount" validate:"gt=0"`
	OrderID  string  `json:"orderId" validate:"required"`
}
