package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devadigapratham/spoolkeeper/inventory"
)

var (
	// HTTP request metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spoolkeeper_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spoolkeeper_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Inventory metrics
	InventoryRolls = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spoolkeeper_inventory_rolls",
			Help: "Number of spools in the inventory",
		},
	)

	InventoryGrams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spoolkeeper_inventory_remaining_grams",
			Help: "Sum of remaining filament weight in grams",
		},
	)

	MutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spoolkeeper_mutations_total",
			Help: "Total number of committed inventory mutations",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InventoryRolls,
		InventoryGrams,
		MutationsTotal,
	)
}

// RecordRequest records one served request
func RecordRequest(method, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, status).Inc()
	RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// GinMiddleware records request metrics for every route
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		statusCode := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method + " " + c.FullPath()
		RecordRequest(method, statusCode, time.Since(start))
	}
}

// TrackInventory keeps the inventory gauges in step with store. The
// returned function stops tracking.
func TrackInventory(store *inventory.Store) func() {
	update := func() {
		stats := store.Stats()
		InventoryRolls.Set(float64(stats.TotalRolls))
		InventoryGrams.Set(stats.TotalWeight)
	}
	update()

	return store.Subscribe(func(ev inventory.Event) {
		MutationsTotal.WithLabelValues(string(ev.Type)).Inc()
		update()
	})
}

// Handler exposes the registered metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
