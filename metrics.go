package main

import "github.com/prometheus/client_golang/prometheus"

var (
	showTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showline_show_transitions_total",
			Help: "Committed show state transitions",
		},
		[]string{"op"},
	)
	subscriberOverflow = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showline_subscriber_overflow_total",
			Help: "Messages a stream session lost because it fell behind",
		},
		[]string{"topic"},
	)
	streamSessions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "showline_stream_sessions",
			Help: "Connected stream sessions",
		},
		[]string{"topic", "transport"},
	)
)

func init() {
	prometheus.MustRegister(showTransitions, subscriberOverflow, streamSessions)
}
