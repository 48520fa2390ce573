package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the cart and checkout collectors.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailure  = "failure"
)

// POSMetrics records cart mutations and checkout submissions.
type POSMetrics struct {
	cartMutations      *prometheus.CounterVec
	checkoutDuration   *prometheus.HistogramVec
	checkoutOutcomes   *prometheus.CounterVec
	receiptAggregation prometheus.Counter
	jobRuns            *prometheus.CounterVec
	jobDuration        *prometheus.HistogramVec
}

// NewPOSMetrics registers the terminal metrics on the provided registerer.
func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return &POSMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kasir",
		Name:      "cart_mutations_total",
		Help:      "Cart ledger mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kasir",
		Name:      "checkout_duration_seconds",
		Help:      "Duration of order submissions to the backend in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	checkoutOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kasir",
		Name:      "checkout_submissions_total",
		Help:      "Checkout submissions by outcome.",
	}, []string{"outcome"})
	receiptAggregation := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kasir",
		Name:      "receipt_records_skipped_total",
		Help:      "Order line records skipped during receipt aggregation.",
	})
	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kasir",
		Name:      "background_job_runs_total",
		Help:      "Background job runs by job and outcome.",
	}, []string{"job", "outcome"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kasir",
		Name:      "background_job_duration_seconds",
		Help:      "Duration of background job runs in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	reg.MustRegister(cartMutations, checkoutDuration, checkoutOutcomes, receiptAggregation, jobRuns, jobDuration)
	return &POSMetrics{
		cartMutations:      cartMutations,
		checkoutDuration:   checkoutDuration,
		checkoutOutcomes:   checkoutOutcomes,
		receiptAggregation: receiptAggregation,
		jobRuns:            jobRuns,
		jobDuration:        jobDuration,
	}
}

// IncCartMutation counts one cart operation with its outcome.
func (m *POSMetrics) IncCartMutation(operation, outcome string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// ObserveCheckout records a submission that reached the backend.
func (m *POSMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	m.checkoutDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
	m.checkoutOutcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCheckoutRejected counts a submission stopped before any network call.
func (m *POSMetrics) IncCheckoutRejected() {
	if m == nil || m.checkoutOutcomes == nil {
		return
	}
	m.checkoutOutcomes.WithLabelValues(OutcomeRejected).Inc()
}

// AddSkippedReceiptRecords counts malformed order lines dropped from a receipt.
func (m *POSMetrics) AddSkippedReceiptRecords(n int) {
	if m == nil || m.receiptAggregation == nil || n <= 0 {
		return
	}
	m.receiptAggregation.Add(float64(n))
}

// ObserveJob records one background job run.
func (m *POSMetrics) ObserveJob(job, outcome string, duration time.Duration) {
	if m == nil || m.jobRuns == nil {
		return
	}
	m.jobRuns.WithLabelValues(normalizeLabel(job), normalizeLabel(outcome)).Inc()
	m.jobDuration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
