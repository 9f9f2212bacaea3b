// Package metrics exposes request-level observability for exchange adapters
// and an instrumented http.RoundTripper adapters can wrap their transport in.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_gateway_requests_total",
			Help: "Total number of HTTP requests issued to exchanges",
		},
		[]string{"exchange", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exchange_gateway_request_duration_seconds",
			Help:    "Distribution of exchange request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"exchange"},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_gateway_errors_total",
			Help: "Total number of failures by taxonomy kind",
		},
		[]string{"exchange", "kind"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(errorsTotal)
}

// RecordError counts a classified failure.
func RecordError(exchangeName, kind string) {
	errorsTotal.WithLabelValues(exchangeName, kind).Inc()
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RoundTripper instruments an http.RoundTripper with request counters and
// latency histograms labelled by exchange.
type RoundTripper struct {
	Exchange string
	Next     http.RoundTripper
}

// Transport wraps next (or http.DefaultTransport when nil) for the named
// exchange.
func Transport(exchangeName string, next http.RoundTripper) *RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &RoundTripper{Exchange: exchangeName, Next: next}
}

func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.Next.RoundTrip(req)
	requestDuration.WithLabelValues(rt.Exchange).Observe(time.Since(start).Seconds())

	status := "transport_error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	requestsTotal.WithLabelValues(rt.Exchange, status).Inc()

	return resp, err
}
