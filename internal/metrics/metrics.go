package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sxcal_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sxcal_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	serverCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sxcal_server_calls_total",
		Help: "Outbound calls made by calendar adapters to the server.",
	}, []string{"method", "result"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sxcal_notifications_total",
		Help: "Notifications published by calendar adapters.",
	}, []string{"name"})

	containersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sxcal_containers_active",
		Help: "Calendars currently attached to a container.",
	})
)

// Middleware records request counts and latencies labelled by route pattern.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(r.Method, route).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ServerCall counts one outbound adapter call.
func ServerCall(method string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	serverCallsTotal.WithLabelValues(method, result).Inc()
}

func Notification(name string) {
	notificationsTotal.WithLabelValues(name).Inc()
}

func ContainerAttached() { containersActive.Inc() }
func ContainerDetached() { containersActive.Dec() }

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := strings.TrimSpace(rctx.RoutePattern()); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
