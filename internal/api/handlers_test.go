package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivercommission/internal/commission"
	"drivercommission/internal/constants"
	"drivercommission/internal/finance"
	"drivercommission/internal/models"
	"drivercommission/internal/storage"
)

var fixedNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter(t *testing.T, checks map[string]func(ctx context.Context) error) (*chi.Mux, *storage.FileStore) {
	t.Helper()
	store := storage.NewFileStore(t.TempDir(), 100, 100)
	clock := func() time.Time { return fixedNow }

	r := chi.NewRouter()
	SetupRoutes(r, ApiDependencies{
		Commission: commission.NewService(commission.Dependencies{
			Rates: store.Rates, History: store.History, Drivers: store.Drivers, Orders: store.Orders, Now: clock,
		}),
		Finance:      finance.NewService(finance.Dependencies{
			Orders: store.Orders, Expenses: store.Expenses, CommissionEstimate: constants.DEFAULT_COMMISSION_ESTIMATE, Now: clock,
		}),
		HealthChecks: checks,
	})
	return r, store
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestGetRatesReturnsDefaults(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec, env := do(t, r, http.MethodGet, "/api/commission/rates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var rates models.CommissionRates
	require.NoError(t, json.Unmarshal(env.Data, &rates))
	assert.Equal(t, constants.RULE_ID_STANDARD, rates.DefaultRule)
	assert.Len(t, rates.Rules, 3)
}

func TestUpdateRates(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec, env := do(t, r, http.MethodPut, "/api/commission/rates", map[string]float64{"standard": 18, "premium": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	var rates models.CommissionRates
	require.NoError(t, json.Unmarshal(env.Data, &rates))
	assert.Equal(t, 18.0, rates.Standard)

	rec, env = do(t, r, http.MethodPut, "/api/commission/rates", map[string]float64{"standard": 180, "premium": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	rec, _ = do(t, r, http.MethodPut, "/api/commission/rates", map[string]float64{"standard": 18})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRuleEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec, env := do(t, r, http.MethodPost, "/api/commission/rules", map[string]interface{}{
		"name": "Фикс", "type": "fixed", "value": 300,
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	var rule models.CommissionRule
	require.NoError(t, json.Unmarshal(env.Data, &rule))
	assert.True(t, rule.IsActive)

	rec, _ = do(t, r, http.MethodGet, "/api/commission/rules/"+rule.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, r, http.MethodPost, "/api/commission/rules/"+rule.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &rule))
	assert.False(t, rule.IsActive)

	rec, _ = do(t, r, http.MethodPost, "/api/commission/rules", map[string]interface{}{"name": "x", "type": "bonus", "value": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, r, http.MethodDelete, "/api/commission/rules/"+constants.RULE_ID_STANDARD, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "правило по умолчанию нельзя удалить")

	rec, _ = do(t, r, http.MethodDelete, "/api/commission/rules/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, r, http.MethodDelete, "/api/commission/rules/"+rule.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, r, http.MethodGet, "/api/commission/rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rulesList []models.CommissionRule
	require.NoError(t, json.Unmarshal(env.Data, &rulesList))
	assert.Len(t, rulesList, 3)
}

func TestCalculateAndApply(t *testing.T) {
	r, store := newTestRouter(t, nil)
	require.NoError(t, store.Drivers.PutDriver(models.Driver{ID: "d1", Name: "Иван"}))

	rec, env := do(t, r, http.MethodPost, "/api/commission/calculate", map[string]interface{}{"driverId": "d1", "amount": 10000})
	require.Equal(t, http.StatusOK, rec.Code)
	var flat models.FlatCommission
	require.NoError(t, json.Unmarshal(env.Data, &flat))
	assert.Equal(t, 1500.0, flat.CommissionAmount)

	rec, env = do(t, r, http.MethodPost, "/api/commission/calculate-flexible", map[string]interface{}{
		"driverId": "d1", "amount": 10000, "orderData": map[string]string{"orderTime": "2026-10-14T10:00:00Z"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var calc models.CommissionCalculation
	require.NoError(t, json.Unmarshal(env.Data, &calc))
	assert.Equal(t, 1500.0, calc.TotalCommission)
	require.Len(t, calc.AppliedRules, 1)

	rec, _ = do(t, r, http.MethodPost, "/api/commission/calculate-flexible", map[string]interface{}{"driverId": "ghost", "amount": 100})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/api/commission/apply", map[string]interface{}{"driverId": "d1", "amount": 10000})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "orderId обязателен")

	rec, _ = do(t, r, http.MethodPost, "/api/commission/apply", map[string]interface{}{"driverId": "d1", "amount": 10000, "orderId": "o1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, r, http.MethodGet, "/api/commission/drivers/d1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary models.DriverCommission
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 8500.0, summary.NetAmount)
	assert.Equal(t, 10000.0, summary.TotalEarnings)

	rec, env = do(t, r, http.MethodGet, "/api/commission/history?driverId=d1&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.CommissionHistoryEntry
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "o1", history[0].OrderID)

	rec, _ = do(t, r, http.MethodGet, "/api/commission/history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFinanceEndpoints(t *testing.T) {
	r, store := newTestRouter(t, nil)
	require.NoError(t, store.Orders.AppendOrder(models.Order{ID: "o1", Amount: 1000, Date: "2026-10-14"}))

	rec, env := do(t, r, http.MethodPost, "/api/finance/expenses", map[string]interface{}{"amount": 200, "category": "fuel"})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	rec, _ = do(t, r, http.MethodPost, "/api/finance/expenses", map[string]interface{}{"amount": -5, "category": "fuel"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, r, http.MethodGet, "/api/finance/dashboard?period=daily", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash models.FinanceDashboard
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, 1150.0, dash.Revenue.Total)
	assert.Equal(t, 950.0, dash.Profit)

	rec, _ = do(t, r, http.MethodGet, "/api/finance/dashboard?period=hourly", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, r, http.MethodGet, "/api/finance/reports/daily?date=2026-10-14", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, r, http.MethodGet, "/api/finance/reports/monthly?year=2026&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, r, http.MethodGet, "/api/finance/revenue-trend?months=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trend []models.TrendPoint
	require.NoError(t, json.Unmarshal(env.Data, &trend))
	assert.Len(t, trend, 2)

	rec, env = do(t, r, http.MethodGet, "/api/finance/expenses?from=2026-10-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var expenses []models.Expense
	require.NoError(t, json.Unmarshal(env.Data, &expenses))
	assert.Len(t, expenses, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/finance/reports/monthly/excel?year=2026&month=10", nil)
	excel := httptest.NewRecorder()
	r.ServeHTTP(excel, req)
	require.Equal(t, http.StatusOK, excel.Code)
	assert.Contains(t, excel.Header().Get("Content-Disposition"), "finance_2026_10.xlsx")
	assert.NotZero(t, excel.Body.Len())
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, map[string]func(ctx context.Context) error{
		"redis": func(ctx context.Context) error { return nil },
	})
	rec, env := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	r, _ = newTestRouter(t, map[string]func(ctx context.Context) error{
		"postgres": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	rec, env = do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, string(env.Data), "connection refused")
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusForError(commission.ErrDriverNotFound))
	assert.Equal(t, http.StatusBadRequest, statusForError(finance.ErrInvalidPeriod))
	assert.Equal(t, http.StatusInternalServerError, statusForError(errors.New("disk full")))
}
