package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics of the API and worker processes.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	movementsTotal  *prometheus.CounterVec
	movedUnits      *prometheus.CounterVec
	shortfallUnits  prometheus.Counter
	jobsTotal       *prometheus.CounterVec
	ledgerDrift     prometheus.Gauge
}

// NewMetrics initialises the registry and every collector.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "avsuite_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "avsuite_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "avsuite_stock_movements_total",
		Help: "Stock ledger movements by type.",
	}, []string{"type"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "avsuite_stock_units_total",
		Help: "Absolute units moved on the stock ledger by movement type.",
	}, []string{"type"})
	shortfall := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "avsuite_stock_shortfall_units_total",
		Help: "Units issued beyond stock on hand and absorbed by the zero floor.",
	})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "avsuite_jobs_total",
		Help: "Background jobs by task type and outcome.",
	}, []string{"task", "status"})
	drift := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "avsuite_ledger_drift_products",
		Help: "Products whose record disagreed with the ledger at the last verification.",
	})
	registry.MustRegister(requests, duration, movements, units, shortfall, jobs, drift)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		movementsTotal:  movements,
		movedUnits:      units,
		shortfallUnits:  shortfall,
		jobsTotal:       jobs,
		ledgerDrift:     drift,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveMovement counts one ledger movement.
func (m *Metrics) ObserveMovement(kind string, qty int) {
	if m == nil {
		return
	}
	if qty < 0 {
		qty = -qty
	}
	m.movementsTotal.WithLabelValues(kind).Inc()
	m.movedUnits.WithLabelValues(kind).Add(float64(qty))
}

// ObserveShortfall counts units clamped away by an over-issue.
func (m *Metrics) ObserveShortfall(qty int) {
	if m == nil || qty <= 0 {
		return
	}
	m.shortfallUnits.Add(float64(qty))
}

// ObserveJob counts one background job run.
func (m *Metrics) ObserveJob(task string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.jobsTotal.WithLabelValues(task, status).Inc()
}

// SetLedgerDrift publishes the drift count of the last ledger verification.
func (m *Metrics) SetLedgerDrift(products int) {
	if m == nil {
		return
	}
	m.ledgerDrift.Set(float64(products))
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
