package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hushgram_http_requests_total",
			Help: "Total number of HTTP requests processed by the hushgram service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hushgram_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hushgram_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hushgram_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hushgram_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
	tasksEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hushgram_tasks_enqueued_total",
			Help: "Total number of background tasks enqueued.",
		},
		[]string{"type"},
	)
	cleanupRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hushgram_cleanup_runs_total",
			Help: "Total number of user cleanup workflow invocations.",
		},
		[]string{"result"},
	)
	cleanupRowsDeletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hushgram_cleanup_rows_deleted_total",
			Help: "Rows removed by the user cleanup workflow, by entity.",
		},
		[]string{"entity"},
	)
	idleUsersLastSweep = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hushgram_idle_users_last_sweep",
			Help: "Idle users found by the most recent sweep.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
		tasksEnqueuedTotal,
		cleanupRunsTotal,
		cleanupRowsDeletedTotal,
		idleUsersLastSweep,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

func IncTaskEnqueued(taskType string) {
	tasksEnqueuedTotal.WithLabelValues(taskType).Inc()
}

func IncCleanupRun(result string) {
	cleanupRunsTotal.WithLabelValues(result).Inc()
}

func AddCleanupRows(entity string, n int64) {
	if n > 0 {
		cleanupRowsDeletedTotal.WithLabelValues(entity).Add(float64(n))
	}
}

func SetIdleUsersLastSweep(n int) {
	idleUsersLastSweep.Set(float64(n))
}
