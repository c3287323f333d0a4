package reporting

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records report generation. A nil *Metrics records nothing.
type Metrics struct {
	generated *prometheus.CounterVec
	duration  prometheus.Histogram
	pages     prometheus.Histogram
	size      prometheus.Histogram
	batch     *prometheus.CounterVec
}

// NewMetrics registers the report collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		generated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetcheck_reports_generated_total",
				Help: "Total number of report generations by outcome",
			},
			[]string{"outcome"},
		),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetcheck_report_generation_duration_seconds",
			Help:    "Time spent rendering and storing a report",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		pages: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetcheck_report_pages",
			Help:    "Number of pages per generated report",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 12, 20},
		}),
		size: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetcheck_report_size_bytes",
			Help:    "Size of generated report documents",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
		}),
		batch: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetcheck_report_batch_items_total",
				Help: "Total number of bulk regeneration items by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) observeGenerated(outcome string, start time.Time, pages, size int) {
	if m == nil {
		return
	}
	m.generated.WithLabelValues(outcome).Inc()
	m.duration.Observe(time.Since(start).Seconds())
	if outcome == outcomeSuccess {
		m.pages.Observe(float64(pages))
		m.size.Observe(float64(size))
	}
}

func (m *Metrics) observeBatchItem(outcome string) {
	if m == nil {
		return
	}
	m.batch.WithLabelValues(outcome).Inc()
}

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeSkipped = "skipped"
)
