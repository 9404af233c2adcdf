package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"drivercommission/internal/commission"
	"drivercommission/internal/finance"
	"drivercommission/internal/logging"
)

// jsonResponse - общий конверт ответов API.
type jsonResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

// --- Вспомогательные функции для JSON-ответов ---
func writeJSONError(w http.ResponseWriter, statusCode int, message string, err error) {
	resp := jsonResponse{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func writeJSONSuccess(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(jsonResponse{Success: true, Message: message, Data: data})
}

// writeServiceError переводит ошибку сервиса в HTTP-статус: отсутствующая
// сущность - 404, нарушение правил и неверный ввод - 400, прочее - 500.
func writeServiceError(w http.ResponseWriter, operation, message string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logging.Logger.Error("Ошибка обработки запроса", zap.String("operation", operation), zap.Error(err))
	}
	writeJSONError(w, status, message, err)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, commission.ErrRuleNotFound), errors.Is(err, commission.ErrDriverNotFound):
		return http.StatusNotFound
	case errors.Is(err, commission.ErrDefaultRuleDelete),
		errors.Is(err, commission.ErrInvalidRule),
		errors.Is(err, commission.ErrInvalidRate),
		errors.Is(err, commission.ErrInvalidAmount),
		errors.Is(err, finance.ErrInvalidPeriod),
		errors.Is(err, finance.ErrInvalidExpense),
		errors.Is(err, finance.ErrInvalidDate):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeAndValidate читает JSON-тело в dst и проверяет теги validate.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Некорректное тело запроса", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Некорректное поле %s", verrs[0].Field()), err)
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "Ошибка проверки запроса", err)
		return false
	}
	return true
}
