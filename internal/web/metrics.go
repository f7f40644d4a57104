package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hyperhook_webhook_requests_total",
		Help: "Webhook requests by response status code.",
	}, []string{"status"})

	ordersProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hyperhook_orders_processed_total",
		Help: "Processed alerts by signal kind and result.",
	}, []string{"signal", "result"})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hyperhook_request_duration_seconds",
		Help:    "HTTP request latency by path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
)
