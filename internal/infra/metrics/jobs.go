package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		sweepDuration,
		sweepMerchantsChecked,
		sweepFailuresTotal,
	)
}

var (
	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "subscription_sweep_duration_seconds",
			Help:    "Duration of the nightly subscription sweep.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	sweepMerchantsChecked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "subscription_sweep_merchants_checked",
			Help: "Merchants processed by the last completed sweep.",
		},
	)

	sweepFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_sweep_failures_total",
			Help: "Per-merchant failures across all sweeps.",
		},
	)
)

func ObserveSweep(d time.Duration, checked, failures int) {
	sweepDuration.Observe(d.Seconds())
	sweepMerchantsChecked.Set(float64(checked))
	sweepFailuresTotal.Add(float64(failures))
}
