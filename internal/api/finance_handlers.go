package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"drivercommission/internal/models"
)

// GetDashboard возвращает сводку за период: daily, weekly, monthly, yearly.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.finance.GetFinanceDashboard(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, "GetDashboard", "Не удалось построить сводку", err)
		return
	}
	writeJSONSuccess(w, "", dashboard)
}

func (h *Handler) GetDailyReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.finance.GetDailyReport(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, "GetDailyReport", "Не удалось построить дневной отчёт", err)
		return
	}
	writeJSONSuccess(w, "", report)
}

func (h *Handler) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parseYearMonth(w, r)
	if !ok {
		return
	}
	report, err := h.finance.GetMonthlyReport(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, "GetMonthlyReport", "Не удалось построить месячный отчёт", err)
		return
	}
	writeJSONSuccess(w, "", report)
}

// ExportMonthlyReport отдаёт месячный отчёт файлом xlsx.
func (h *Handler) ExportMonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parseYearMonth(w, r)
	if !ok {
		return
	}
	data, err := h.finance.ExportMonthlyReportExcel(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, "ExportMonthlyReport", "Не удалось сформировать Excel отчёт", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="finance_%04d_%02d.xlsx"`, year, month))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) GetRevenueTrend(w http.ResponseWriter, r *http.Request) {
	months := 0
	if raw := r.URL.Query().Get("months"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeJSONError(w, http.StatusBadRequest, "Некорректный параметр months", err)
			return
		}
		months = v
	}
	trend, err := h.finance.GetRevenueTrend(r.Context(), months)
	if err != nil {
		writeServiceError(w, "GetRevenueTrend", "Не удалось построить динамику выручки", err)
		return
	}
	writeJSONSuccess(w, "", trend)
}

// ListExpenses возвращает расходы; from и to в формате YYYY-MM-DD.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	expenses, err := h.finance.ListExpenses(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, "ListExpenses", "Не удалось получить расходы", err)
		return
	}
	writeJSONSuccess(w, "", expenses)
}

func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	var input models.ExpenseInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	expense, err := h.finance.AddExpense(r.Context(), input)
	if err != nil {
		writeServiceError(w, "AddExpense", "Не удалось добавить расход", err)
		return
	}
	writeJSONSuccess(w, "Расход добавлен", expense)
}

// parseYearMonth читает year и month; без параметров - текущий месяц.
func parseYearMonth(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	q := r.URL.Query()
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if raw := q.Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Некорректный параметр year", err)
			return 0, 0, false
		}
		year = v
	}
	if raw := q.Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Некорректный параметр month", err)
			return 0, 0, false
		}
		month = v
	}
	return year, month, true
}
