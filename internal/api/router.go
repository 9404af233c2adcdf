package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"drivercommission/internal/commission"
	"drivercommission/internal/config"
	"drivercommission/internal/finance"
)

// ApiDependencies содержит зависимости для обработчиков API.
type ApiDependencies struct {
	Config     *config.Config
	Commission *commission.Service
	Finance    *finance.Service
	// HealthChecks - проверки внешних хранилищ для /health, по имени.
	HealthChecks map[string]func(ctx context.Context) error
}

// Handler обслуживает HTTP API комиссий и финансов.
type Handler struct {
	commission   *commission.Service
	finance      *finance.Service
	healthChecks map[string]func(ctx context.Context) error
	validate     *validator.Validate
}

func NewHandler(deps ApiDependencies) *Handler {
	return &Handler{
		commission:   deps.Commission,
		finance:      deps.Finance,
		healthChecks: deps.HealthChecks,
		validate:     validator.New(),
	}
}

// SetupRoutes настраивает все маршруты для API.
func SetupRoutes(r *chi.Mux, deps ApiDependencies) {
	h := NewHandler(deps)

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/commission", func(r chi.Router) {
		r.Get("/rates", h.GetRates)
		r.Put("/rates", h.UpdateRates)

		r.Get("/rules", h.GetRules)
		r.Post("/rules", h.AddRule)
		r.Get("/rules/{id}", h.GetRule)
		r.Put("/rules/{id}", h.UpdateRule)
		r.Delete("/rules/{id}", h.DeleteRule)
		r.Post("/rules/{id}/toggle", h.ToggleRule)
		r.Post("/rules/{id}/default", h.SetDefaultRule)

		r.Post("/calculate", h.Calculate)
		r.Post("/calculate-flexible", h.CalculateFlexible)
		r.Post("/apply", h.Apply)

		r.Get("/drivers", h.GetDrivers)
		r.Get("/drivers/{id}", h.GetDriver)
		r.Get("/history", h.GetHistory)
	})

	r.Route("/api/finance", func(r chi.Router) {
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/reports/daily", h.GetDailyReport)
		r.Get("/reports/monthly", h.GetMonthlyReport)
		r.Get("/reports/monthly/excel", h.ExportMonthlyReport)
		r.Get("/revenue-trend", h.GetRevenueTrend)
		r.Get("/expenses", h.ListExpenses)
		r.Post("/expenses", h.AddExpense)
	})
}
