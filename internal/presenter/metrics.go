package presenter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expensetracker",
			Subsystem: "presenter",
			Name:      "operations_total",
			Help:      "User actions handled by the presenter, by outcome.",
		},
		[]string{"operation", "status"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "expensetracker",
			Subsystem: "presenter",
			Name:      "operation_duration_seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	rowsDisplayed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "expensetracker",
		Subsystem: "presenter",
		Name:      "rows_displayed",
		Help:      "Rows shown after the last reload.",
	})
)

func observeOperation(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	operationsTotal.WithLabelValues(op, status).Inc()
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
