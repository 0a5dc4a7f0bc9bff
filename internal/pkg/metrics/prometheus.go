package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostdeck",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hostdeck",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hostdeck",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Reconciliation metrics
	reconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostdeck",
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Total number of usage reconciliation passes",
		},
		[]string{"status"},
	)

	reconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hostdeck",
			Subsystem: "reconcile",
			Name:      "duration_seconds",
			Help:      "Duration of a usage reconciliation pass in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	demoServersSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hostdeck",
			Subsystem: "reconcile",
			Name:      "demo_servers_skipped_total",
			Help:      "Total number of demo servers excluded from usage aggregation",
		},
	)

	// Shop metrics
	purchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostdeck",
			Subsystem: "shop",
			Name:      "purchases_total",
			Help:      "Total number of shop purchase attempts",
		},
		[]string{"resource", "status"},
	)

	coinsSpentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hostdeck",
			Subsystem: "shop",
			Name:      "coins_spent_total",
			Help:      "Total coins debited by committed purchases",
		},
	)

	// Entitlement metrics
	planChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostdeck",
			Subsystem: "entitlement",
			Name:      "plan_changes_total",
			Help:      "Total number of plan grants and revocations",
		},
		[]string{"action", "status"},
	)

	ledgerConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hostdeck",
			Subsystem: "entitlement",
			Name:      "ledger_conflicts_total",
			Help:      "Total number of ledger version conflicts hit before retry",
		},
	)

	// Outbox metrics
	outboxDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostdeck",
			Subsystem: "outbox",
			Name:      "deliveries_total",
			Help:      "Total number of outbox delivery attempts",
		},
		[]string{"status"},
	)

	outboxPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hostdeck",
			Subsystem: "outbox",
			Name:      "pending_count",
			Help:      "Number of outbox events picked up in the last dispatch cycle",
		},
	)

	// User metrics
	registeredUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hostdeck",
			Subsystem: "user",
			Name:      "registered_count",
			Help:      "Number of registered users",
		},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hostdeck",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "table"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		// Get route pattern from chi
		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordReconcile records one reconciliation pass
func RecordReconcile(status string, duration time.Duration) {
	reconcileTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		reconcileDuration.Observe(duration.Seconds())
	}
}

// AddDemoServersSkipped counts demo servers excluded from aggregation
func AddDemoServersSkipped(n int) {
	demoServersSkipped.Add(float64(n))
}

// RecordPurchase records a purchase attempt outcome
func RecordPurchase(resource, status string) {
	purchasesTotal.WithLabelValues(resource, status).Inc()
}

// AddCoinsSpent counts coins debited by a committed purchase
func AddCoinsSpent(cost int64) {
	coinsSpentTotal.Add(float64(cost))
}

// RecordPlanChange records a plan grant or revocation
func RecordPlanChange(action, status string) {
	planChangesTotal.WithLabelValues(action, status).Inc()
}

// RecordLedgerConflict counts a version conflict on a ledger commit
func RecordLedgerConflict() {
	ledgerConflictsTotal.Inc()
}

// RecordOutboxDelivery records one outbox delivery attempt
func RecordOutboxDelivery(status string) {
	outboxDeliveriesTotal.WithLabelValues(status).Inc()
}

// SetOutboxPending sets the gauge for the last dispatch batch size
func SetOutboxPending(count float64) {
	outboxPending.Set(count)
}

// SetRegisteredUsers sets the gauge for registered users
func SetRegisteredUsers(count float64) {
	registeredUsers.Set(count)
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation, table string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}
