package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics carries the service counters on a private registry so tests can
// build as many instances as they like.
type Metrics struct {
	reg *prometheus.Registry

	OrdersCreated      prometheus.Counter
	OrdersConfirmed    *prometheus.CounterVec
	PreferenceFailures prometheus.Counter
	HTTPDuration       *prometheus.HistogramVec
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		OrdersCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_created_total",
			Help: "Orders persisted in PENDING state.",
		}),
		OrdersConfirmed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_confirmed_total",
			Help: "Payment callbacks applied, labeled by resulting status.",
		}, []string{"status"}),
		PreferenceFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "preference_failures_total",
			Help: "Gateway preference creations that failed after the order was persisted.",
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "code"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Middleware observes request latency per method and status code.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)
		m.HTTPDuration.WithLabelValues(r.Method, strconv.Itoa(sw.code)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
