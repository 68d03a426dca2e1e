package metrics

import "github.com/prometheus/client_golang/prometheus"

// BillbackMetrics counts reconciliation outcomes per source type.
type BillbackMetrics struct {
	created *prometheus.CounterVec
	skipped *prometheus.CounterVec
}

// NewBillbackMetrics registers the billback counters on the provided registerer.
func NewBillbackMetrics(reg prometheus.Registerer) *BillbackMetrics {
	if reg == nil {
		return &BillbackMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billback_items_created",
		Help: "Billable items created by reconciliation.",
	}, []string{"source_type"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billback_items_skipped",
		Help: "Billable item candidates skipped because a record already existed.",
	}, []string{"source_type"})
	reg.MustRegister(created, skipped)
	return &BillbackMetrics{created: created, skipped: skipped}
}

// IncCreated increments the created counter for the source type.
func (b *BillbackMetrics) IncCreated(sourceType string, n int) {
	if b == nil || b.created == nil || n <= 0 {
		return
	}
	b.created.WithLabelValues(normalizeLabel(sourceType)).Add(float64(n))
}

// IncSkipped increments the skipped counter for the source type.
func (b *BillbackMetrics) IncSkipped(sourceType string, n int) {
	if b == nil || b.skipped == nil || n <= 0 {
		return
	}
	b.skipped.WithLabelValues(normalizeLabel(sourceType)).Add(float64(n))
}
