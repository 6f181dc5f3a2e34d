// Package metrics exposes Prometheus instrumentation for adjudication,
// extraction, review and the HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// Metrics holds every ClaimGuard collector. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Adjudication outcomes by claim status
	Adjudications *prometheus.CounterVec

	// Line item decisions by item status
	LineItems *prometheus.CounterVec

	// Claimed and approved rupee amounts
	Amounts *prometheus.CounterVec

	RoomRentDeductions prometheus.Counter

	AdjudicateLatency prometheus.Histogram

	// External collaborator calls by provider and outcome
	ExtractionLatency *prometheus.HistogramVec
	ReviewLatency     *prometheus.HistogramVec

	// HTTP requests by method, route and status code
	HTTPRequests *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Adjudications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claimguard_adjudications_total",
			Help: "Total adjudicated claims by status",
		}, []string{"status"}),

		LineItems: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claimguard_line_items_total",
			Help: "Total line item decisions by status",
		}, []string{"status"}),

		Amounts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claimguard_amount_rupees_total",
			Help: "Total rupee amounts by kind",
		}, []string{"kind"}), // kind: "claimed", "approved"

		RoomRentDeductions: f.NewCounter(prometheus.CounterOpts{
			Name: "claimguard_room_rent_deductions_total",
			Help: "Total claims with a proportionate room-rent deduction",
		}),

		AdjudicateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "claimguard_adjudicate_duration_seconds",
			Help:    "Duration of a full adjudication including review and persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		ExtractionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "claimguard_extraction_duration_seconds",
			Help:    "Duration of claim extraction calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider", "outcome"}),

		ReviewLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "claimguard_review_duration_seconds",
			Help:    "Duration of medical necessity review calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider", "outcome"}),

		HTTPRequests: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "claimguard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
}

// ObserveAdjudication records one completed adjudication.
func (m *Metrics) ObserveAdjudication(result *domain.AdjudicationResult, d time.Duration) {
	if m == nil || result == nil {
		return
	}
	m.Adjudications.WithLabelValues(string(result.Status)).Inc()
	for _, item := range result.LineItemDecisions {
		m.LineItems.WithLabelValues(string(item.Status)).Inc()
	}
	m.Amounts.WithLabelValues("claimed").Add(nonNegative(result.TotalClaimed))
	m.Amounts.WithLabelValues("approved").Add(nonNegative(result.TotalApproved))
	if result.RoomRentDeductionApplied {
		m.RoomRentDeductions.Inc()
	}
	m.AdjudicateLatency.Observe(d.Seconds())
}

// ObserveExtraction records one extraction call.
func (m *Metrics) ObserveExtraction(provider string, err error, d time.Duration) {
	if m != nil {
		m.ExtractionLatency.WithLabelValues(provider, outcome(err)).Observe(d.Seconds())
	}
}

// ObserveReview records one necessity review call.
func (m *Metrics) ObserveReview(provider string, err error, d time.Duration) {
	if m != nil {
		m.ReviewLatency.WithLabelValues(provider, outcome(err)).Observe(d.Seconds())
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, code string, d time.Duration) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(method, route, code).Observe(d.Seconds())
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// nonNegative guards Counter.Add, which panics on negative input.
func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
