package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tphummel/lessee/internal/leasing"
)

// Allocation outcomes recorded by ObserveAllocation.
const (
	ResultGranted     = "granted"
	ResultUnavailable = "unavailable"
	ResultRejected    = "rejected"
	ResultError       = "error"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lessee_http_requests_total",
			Help: "Total number of HTTP requests by method, route, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lessee_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lessee_http_requests_in_flight",
		Help: "Current number of HTTP requests being processed.",
	})

	allocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lessee_allocations_total",
			Help: "Lease allocation attempts by outcome.",
		},
		[]string{"result"},
	)
)

// Inventory is the subset of leasing.Service needed to collect inventory metrics.
type Inventory interface {
	Snapshot(ctx context.Context) (*leasing.Snapshot, error)
}

// inventoryCollector is a custom Prometheus collector that queries the
// inventory on each scrape. Availability is derived at read time, so it is
// never cached between scrapes.
type inventoryCollector struct {
	inv          Inventory
	hardwareDesc *prometheus.Desc
	activeDesc   *prometheus.Desc
}

func (c *inventoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hardwareDesc
	ch <- c.activeDesc
}

func (c *inventoryCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := c.inv.Snapshot(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.hardwareDesc, err)
		ch <- prometheus.NewInvalidMetric(c.activeDesc, err)
		return
	}
	for platform, counts := range snap.Hardware {
		for status, n := range counts {
			ch <- prometheus.MustNewConstMetric(
				c.hardwareDesc,
				prometheus.GaugeValue,
				float64(n),
				platform, string(status),
			)
		}
	}
	ch <- prometheus.MustNewConstMetric(c.activeDesc, prometheus.GaugeValue, float64(snap.ActiveLeases))
}

// NewInventoryCollector returns a collector reporting hardware per platform
// and status, and the number of active leases.
func NewInventoryCollector(inv Inventory) prometheus.Collector {
	return &inventoryCollector{
		inv: inv,
		hardwareDesc: prometheus.NewDesc(
			"lessee_hardware",
			"Number of hardware units, partitioned by platform and availability.",
			[]string{"platform", "status"},
			nil,
		),
		activeDesc: prometheus.NewDesc(
			"lessee_leases_active",
			"Number of leases whose window contains the scrape time.",
			nil,
			nil,
		),
	}
}

// Register registers all metrics with reg. Call once at startup after the
// database is initialised. reg should be a fresh registry: the default one
// already carries the Go and process collectors.
func Register(reg prometheus.Registerer, inv Inventory) {
	reg.MustRegister(
		// Standard Go runtime and process metrics
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		// HTTP service metrics
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,

		// Application metrics
		allocationsTotal,
		NewInventoryCollector(inv),
	)
}

// Handler returns the Prometheus HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveAllocation counts one allocation attempt with the given result.
func ObserveAllocation(result string) {
	allocationsTotal.WithLabelValues(result).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the response status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware wraps an http.Handler to record HTTP metrics.
// pattern should be the route pattern string (e.g. "/api/v1/hardware/{id}")
// so the path label has bounded cardinality.
func Middleware(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			httpRequestsInFlight.Dec()
			status := strconv.Itoa(rw.status)
			httpRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(rw, r)
	})
}
