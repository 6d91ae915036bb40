// Package metrics exposes Prometheus collectors for the HTTP API and the
// recipe write path. Collectors register on the default registry at init;
// /metrics serves them through promhttp.
package metrics

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
	// APIRequestsTotal counts requests by method, route pattern and status.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "larder_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "larder_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "larder_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "larder_api_rate_limit_hits_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	// RecipeWrites counts successful recipe writes by operation.
	RecipeWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "larder_recipe_writes_total",
			Help: "Recipe writes by operation (create, update, delete, image)",
		},
		[]string{"operation"},
	)

	// LabelsCreated counts tags and ingredients created implicitly by recipe writes.
	LabelsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "larder_labels_created_total",
			Help: "Tags and ingredients created by recipe writes",
		},
		[]string{"kind"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts a request rejected by the named limiter.
func RecordRateLimitHit(limiter string) {
	APIRateLimitHits.WithLabelValues(limiter).Inc()
}

// RecordRecipeWrite counts a successful recipe write.
func RecordRecipeWrite(operation string) {
	RecipeWrites.WithLabelValues(operation).Inc()
}

// RecordLabelsCreated adds n newly created labels of the given kind.
func RecordLabelsCreated(kind string, n int) {
	if n > 0 {
		LabelsCreated.WithLabelValues(kind).Add(float64(n))
	}
}

// Middleware records request count, latency and in-flight requests.
// The route label is the matched chi pattern so ids do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		TrackActiveRequest(true)
		defer TrackActiveRequest(false)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordAPIRequest(r.Method, routePattern(r), strconv.Itoa(status), time.Since(start))
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
