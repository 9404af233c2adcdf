package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CommissionCalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commission_calculations_total",
			Help: "Commission calculations by path (legacy or flexible)",
		},
		[]string{"path"},
	)

	CommissionsAppliedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "commission_applied_total",
			Help: "Commissions applied to driver balances",
		},
	)

	CommissionAmountTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "commission_applied_amount_total",
			Help: "Sum of applied commission amounts",
		},
	)

	RuleMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commission_rule_mutations_total",
			Help: "Mutations of the commission rates record by operation",
		},
		[]string{"operation"},
	)
)

// unmatchedRoute - метка пути для запросов, не совпавших ни с одним маршрутом.
const unmatchedRoute = "unmatched"

// Middleware считает запросы и время ответа. Путь берётся из шаблона
// маршрута chi, чтобы id в URL не раздували кардинальность.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HttpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		ResponseTimeHistogram.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
