package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the upstream proxy and export pipeline. Registered on the
// default registry so promhttp.Handler can serve them directly.
var (
	ProxyCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "racal_proxy_cache_total",
		Help: "Proxy cache lookups by outcome (hit, miss, error).",
	}, []string{"outcome"})

	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "racal_upstream_requests_total",
		Help: "GraphQL requests issued to the upstream API, by operation and result.",
	}, []string{"operation", "result"})

	ExportRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "racal_export_requests_total",
		Help: "Calendar export requests by selection mode (venues, area) and status.",
	}, []string{"mode", "status"})

	ExportEvents = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "racal_export_events",
		Help:    "Number of events emitted per exported calendar.",
		Buckets: []float64{0, 10, 25, 50, 100, 250, 500},
	})
)
