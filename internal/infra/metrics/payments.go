package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentRequestTransitionsTotal,
		paymentRequestsExpiredTotal,
	)
}

var (
	paymentRequestTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_request_transitions_total",
			Help: "Payment request workflow transitions by outcome.",
		},
		[]string{"transition"}, // 'created', 'confirmed', 'verified', 'rejected', 'cancelled'
	)

	paymentRequestsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_requests_expired_total",
			Help: "Pending payment requests expired by the sweep.",
		},
	)
)

func IncPaymentRequestTransition(transition string) {
	paymentRequestTransitionsTotal.WithLabelValues(norm(transition)).Inc()
}

func AddPaymentRequestsExpired(n int64) {
	paymentRequestsExpiredTotal.Add(float64(n))
}
