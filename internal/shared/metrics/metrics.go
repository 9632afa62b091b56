package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sourcing"

// Submission results recorded by ObserveSubmission.
const (
	ResultAccepted  = "accepted"
	ResultDuplicate = "duplicate"
	ResultInvalid   = "invalid"
	ResultFailed    = "failed"
	ResultRejected  = "rejected"
	ResultDiscarded = "discarded"
	ResultPending   = "pending"
	ResultLocked    = "locked"
)

// Event results recorded by ObserveEvent.
const (
	EventArchived = "archived"
	EventDropped  = "dropped"
	EventFailed   = "failed"
)

// Cache change directions recorded by ObserveCacheChange.
const (
	CacheAdded   = "added"
	CacheRemoved = "removed"
)

var (
	submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workflow",
		Name:      "submissions_total",
		Help:      "Submit requests by result.",
	}, []string{"result"})

	outcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workflow",
		Name:      "outcomes_total",
		Help:      "Accepted decisions by outcome.",
	}, []string{"outcome"})

	collaboratorAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "decision",
		Name:      "collaborator_attempts_total",
		Help:      "Calls made to the decision collaborator, including retries.",
	}, []string{"status"})

	collaboratorDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "decision",
		Name:      "collaborator_duration_seconds",
		Help:      "Time spent in one logical decision call, retries included.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	cacheChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workflow",
		Name:      "cache_results_total",
		Help:      "Result cache entries added to or removed from sessions, by change.",
	}, []string{"change"})

	exportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "export",
		Name:      "documents_total",
		Help:      "Export documents produced, by row shape.",
	}, []string{"shape"})

	eventsArchived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "events_total",
		Help:      "Decision events handled by the archive worker, by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(submissionsTotal, outcomesTotal, collaboratorAttempts, collaboratorDuration, cacheChanges, exportsTotal, eventsArchived)
}

// ObserveSubmission counts one submit request.
func ObserveSubmission(result string) {
	submissionsTotal.WithLabelValues(result).Inc()
}

// ObserveOutcome counts one accepted decision.
func ObserveOutcome(outcome string) {
	outcomesTotal.WithLabelValues(outcome).Inc()
}

// ObserveAttempt counts one collaborator attempt; status is "ok", "retryable" or "terminal".
func ObserveAttempt(status string) {
	collaboratorAttempts.WithLabelValues(status).Inc()
}

// ObserveDecisionDuration records the wall time of one logical call.
func ObserveDecisionDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	collaboratorDuration.Observe(d.Seconds())
}

// ObserveCacheChange records the net change of one session's result cache.
// Positive deltas count as "added", negative ones as "removed".
func ObserveCacheChange(delta int) {
	switch {
	case delta > 0:
		cacheChanges.WithLabelValues(CacheAdded).Add(float64(delta))
	case delta < 0:
		cacheChanges.WithLabelValues(CacheRemoved).Add(float64(-delta))
	}
}

// ObserveExport counts one export; shape is "results" or "registry".
func ObserveExport(shape string) {
	exportsTotal.WithLabelValues(shape).Inc()
}

// ObserveEvent counts one consumed decision event.
func ObserveEvent(result string) {
	eventsArchived.WithLabelValues(result).Inc()
}

// Handler exposes the default registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
