// Logic related to metrics: mutation outcomes, fanout deliveries, index repairs, live sessions.
// Metrics are exposed in Prometheus text format.

package main

import (
	"errors"
	"net/http"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "discord"

// Request latency distribution bounds (in seconds).
var requestLatencyBuckets = []float64{.001, .002, .005, .01, .02, .05, .1, .2, .5, 1, 2, 5, 10}

var (
	statMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "mutations_total",
		Help:      "Pipeline operations by operation and outcome.",
	}, []string{"op", "outcome"})

	statLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "request_latency_seconds",
		Help:      "Latency of pipeline operations.",
		Buckets:   requestLatencyBuckets,
	}, []string{"op"})

	statEventsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "events_emitted_total",
		Help:      "Events handed to the hub by kind.",
	}, []string{"kind"})

	statEventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "events_dropped_total",
		Help:      "Events not delivered because a queue was full.",
	}, []string{"queue"})

	statReactionConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "reaction_conflicts_total",
		Help:      "Reaction writes rejected by the compare-and-swap and retried.",
	})

	statIndexRepairs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "index_repairs_total",
		Help:      "Channel index updates handed to the background repair by outcome.",
	}, []string{"outcome"})

	statLiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "sessions_live_count",
		Help:      "Number of live websocket sessions.",
	})
)

// Initialize metrics reporting. The repair queue depth is sampled from the provided callback.
func statsInit(mux *http.ServeMux, path string, repairBacklog func() int) {
	if path == "" || path == "-" {
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		statMutations,
		statLatency,
		statEventsEmitted,
		statEventsDropped,
		statReactionConflicts,
		statIndexRepairs,
		statLiveSessions,
	)
	if repairBacklog != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "index_repairs_pending",
			Help:      "Channel index repairs waiting for a worker.",
		}, func() float64 { return float64(repairBacklog()) }))
	}

	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	logs.Info.Printf("stats: metrics exposed at '%s'", path)
}

// Label of the operation outcome.
func statOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	var storeErr types.StoreError
	if !errors.As(err, &storeErr) {
		return "internal"
	}
	switch storeErr {
	case types.ErrMalformed:
		return "invalid"
	case types.ErrPermissionDenied:
		return "forbidden"
	case types.ErrNotFound:
		return "not_found"
	case types.ErrUnavailable, types.ErrConflict:
		return "unavailable"
	default:
		return "internal"
	}
}
