// Package metrics registers the service's Prometheus collectors. Counters
// live at the package level so any component can record without plumbing a
// registry through every constructor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transcriptions counts finished transcriptions by strategy
	// (inline, remote, chunked) and outcome (ok, error).
	Transcriptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "summarizer",
		Name:      "transcriptions_total",
		Help:      "Transcriptions by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	// JobsProcessed counts meeting jobs that reached COMPLETED.
	JobsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "summarizer",
		Name:      "jobs_processed_total",
		Help:      "Meeting jobs processed to completion.",
	})

	// JobsFailed counts meeting jobs that ended in FAILED.
	JobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "summarizer",
		Name:      "jobs_failed_total",
		Help:      "Meeting jobs that failed.",
	})

	// PublishesDropped counts queue publishes swallowed by async dispatch.
	PublishesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "summarizer",
		Name:      "queue_publishes_dropped_total",
		Help:      "Queue publishes that failed and were dropped.",
	})

	// OperationsRecovered counts long-running recognitions resumed from the
	// handle store after a restart.
	OperationsRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "summarizer",
		Name:      "operations_recovered_total",
		Help:      "Long-running recognition operations recovered at startup.",
	})
)
