package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Health сообщает состояние сервиса и внешних хранилищ.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.healthChecks))
	healthy := true
	for name, check := range h.healthChecks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	if !healthy {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(jsonResponse{
			Success: false,
			Message: "Хранилище недоступно",
			Data:    map[string]interface{}{"status": "degraded", "checks": checks},
		})
		return
	}
	writeJSONSuccess(w, "", map[string]interface{}{"status": "ok", "checks": checks})
}
