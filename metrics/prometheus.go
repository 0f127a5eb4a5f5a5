package metrics

import (
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	initialized atomic.Bool

	// http
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidtounsi_http_requests_total",
			Help: "Total number of HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	// admin key lifecycle
	KeysIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidtounsi_admin_keys_issued_total",
			Help: "Total number of admin keys issued by kind",
		},
		[]string{"kind"},
	)
	KeysRedeemed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bidtounsi_admin_keys_redeemed_total",
			Help: "Total number of successfully redeemed admin keys",
		},
	)
	KeyRedeemFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bidtounsi_admin_key_redeem_failures_total",
			Help: "Total number of rejected key redemption attempts",
		},
	)
	KeysSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bidtounsi_admin_keys_swept_total",
			Help: "Total number of expired admin keys removed by the sweep",
		},
	)

	// mail delivery
	MailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bidtounsi_mails_sent_total",
			Help: "Total number of mails delivered",
		},
	)
	MailsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bidtounsi_mails_failed_total",
			Help: "Total number of failed mail deliveries",
		},
	)
)

// InitMetrics registers all collectors exactly once
func InitMetrics() {
	if !initialized.CompareAndSwap(false, true) {
		return
	}
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(KeysIssued)
	prometheus.MustRegister(KeysRedeemed)
	prometheus.MustRegister(KeyRedeemFailures)
	prometheus.MustRegister(KeysSwept)
	prometheus.MustRegister(MailsSent)
	prometheus.MustRegister(MailsFailed)
}

// MetricsMiddleware counts requests by route template and response status
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		requestsTotal.WithLabelValues(c.Request.Method, path, statusLabel(c.Writer.Status())).Inc()
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
