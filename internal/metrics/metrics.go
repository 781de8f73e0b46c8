// Package metrics holds the Prometheus collectors for guildboard.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeDomain   = "domain_error"
	OutcomeInvalid  = "invalid_params"
	OutcomeInternal = "internal_error"
)

var (
	Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guildboard_operations_total",
		Help: "Boundary operations by outcome",
	}, []string{"op", "outcome"})
	OperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "guildboard_operation_duration_seconds",
		Help:    "Boundary operation duration seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	DiscordRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guildboard_discord_requests_total",
		Help: "Discord REST requests issued",
	}, []string{"endpoint"})
)

func init() {
	prometheus.MustRegister(Operations, OperationDuration, DiscordRequests)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveOperation records one finished boundary operation.
func ObserveOperation(op, outcome string, start time.Time) {
	Operations.WithLabelValues(op, outcome).Inc()
	OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// IncDiscordRequest counts a REST call to a logical Discord endpoint.
func IncDiscordRequest(endpoint string) { DiscordRequests.WithLabelValues(endpoint).Inc() }
