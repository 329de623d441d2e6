package broadcast

import "github.com/prometheus/client_golang/prometheus"

var (
	published = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showline_broadcast_published_total",
			Help: "Values published per topic",
		},
		[]string{"topic"},
	)
	dropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showline_broadcast_dropped_total",
			Help: "Values evicted from lagging subscriptions per topic",
		},
		[]string{"topic"},
	)
	subscribers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "showline_broadcast_subscribers",
			Help: "Open subscriptions per topic",
		},
		[]string{"topic"},
	)
)

func init() {
	prometheus.MustRegister(published, dropped, subscribers)
}
