package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learning_hub_api_requests_total",
			Help: "Total number of hub API requests",
		},
		[]string{"route", "method", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "learning_hub_api_request_duration_seconds",
			Help:    "Duration of hub API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	ModerationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learning_hub_moderation_actions_total",
			Help: "Total number of items processed by admin actions",
		},
		[]string{"action"},
	)
)

// Metrics records request counts and latency by chi route pattern, so ids in
// the path do not explode the label set.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = routeLabel(p)
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// routeLabel normalises a chi route pattern. Depending on the chi version the
// pattern keeps or drops the trailing slash, so labels never carry one.
func routeLabel(pattern string) string {
	if len(pattern) > 1 {
		return strings.TrimRight(pattern, "/")
	}
	return pattern
}
