package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"drivercommission/internal/models"
)

// GetRates возвращает текущую конфигурацию комиссий.
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, "", h.commission.GetRates(r.Context()))
}

// UpdateRates меняет плоские ставки standard и premium.
func (h *Handler) UpdateRates(w http.ResponseWriter, r *http.Request) {
	var req UpdateRatesRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	rates, err := h.commission.UpdateFlatRates(r.Context(), *req.Standard, *req.Premium)
	if err != nil {
		writeServiceError(w, "UpdateRates", "Не удалось обновить ставки", err)
		return
	}
	writeJSONSuccess(w, "Ставки обновлены", rates)
}

func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, "", h.commission.GetRules(r.Context()))
}

func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.commission.GetRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "GetRule", "Правило не найдено", err)
		return
	}
	writeJSONSuccess(w, "", rule)
}

func (h *Handler) AddRule(w http.ResponseWriter, r *http.Request) {
	var input models.RuleInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	rule, err := h.commission.AddRule(r.Context(), input)
	if err != nil {
		writeServiceError(w, "AddRule", "Не удалось создать правило", err)
		return
	}
	writeJSONSuccess(w, "Правило создано", rule)
}

func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var input models.RuleInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	rule, err := h.commission.UpdateRule(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeServiceError(w, "UpdateRule", "Не удалось обновить правило", err)
		return
	}
	writeJSONSuccess(w, "Правило обновлено", rule)
}

func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.commission.DeleteRule(r.Context(), id); err != nil {
		writeServiceError(w, "DeleteRule", "Не удалось удалить правило", err)
		return
	}
	writeJSONSuccess(w, "Правило удалено", map[string]string{"id": id})
}

func (h *Handler) ToggleRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.commission.ToggleRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "ToggleRule", "Не удалось переключить правило", err)
		return
	}
	writeJSONSuccess(w, "Активность правила изменена", rule)
}

func (h *Handler) SetDefaultRule(w http.ResponseWriter, r *http.Request) {
	rates, err := h.commission.SetDefaultRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "SetDefaultRule", "Не удалось назначить правило по умолчанию", err)
		return
	}
	writeJSONSuccess(w, "Правило по умолчанию назначено", rates)
}

// Calculate считает комиссию по плоской ставке без изменения баланса.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.commission.CalculateCommission(r.Context(), req.DriverID, req.Amount)
	if err != nil {
		writeServiceError(w, "Calculate", "Не удалось рассчитать комиссию", err)
		return
	}
	writeJSONSuccess(w, "", result)
}

// CalculateFlexible считает комиссию по правилам без изменения баланса.
func (h *Handler) CalculateFlexible(w http.ResponseWriter, r *http.Request) {
	var req CalculateFlexibleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.commission.CalculateFlexibleCommission(r.Context(), req.DriverID, req.Amount, req.OrderData)
	if err != nil {
		writeServiceError(w, "CalculateFlexible", "Не удалось рассчитать комиссию", err)
		return
	}
	writeJSONSuccess(w, "", result)
}

// Apply применяет комиссию к балансу водителя и пишет журнал.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	entry, err := h.commission.ApplyCommission(r.Context(), req.DriverID, req.Amount, req.OrderID)
	if err != nil {
		writeServiceError(w, "Apply", "Не удалось применить комиссию", err)
		return
	}
	writeJSONSuccess(w, "Комиссия применена", entry)
}

func (h *Handler) GetDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.commission.GetAllDriversCommissions(r.Context())
	if err != nil {
		writeServiceError(w, "GetDrivers", "Не удалось получить комиссии водителей", err)
		return
	}
	writeJSONSuccess(w, "", drivers)
}

func (h *Handler) GetDriver(w http.ResponseWriter, r *http.Request) {
	summary, err := h.commission.GetDriverCommission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "GetDriver", "Не удалось получить комиссии водителя", err)
		return
	}
	writeJSONSuccess(w, "", summary)
}

// GetHistory возвращает журнал комиссий, новые записи первыми.
// Параметры: driverId, limit.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeJSONError(w, http.StatusBadRequest, "Некорректный параметр limit", err)
			return
		}
		limit = v
	}
	history, err := h.commission.GetCommissionHistory(r.Context(), r.URL.Query().Get("driverId"), limit)
	if err != nil {
		writeServiceError(w, "GetHistory", "Не удалось получить журнал комиссий", err)
		return
	}
	writeJSONSuccess(w, "", history)
}
