package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(pgxPoolConns) }

// Sampled from pgxpool.Stat by the poller in cmd/app.
var pgxPoolConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "ordering_pgx_pool_connections",
		Help: "pgx connection pool connections by state (total, idle, in_use).",
	},
	[]string{"state"},
)

func SetDBPoolStats(total, idle, inUse int32) {
	pgxPoolConns.WithLabelValues("total").Set(float64(total))
	pgxPoolConns.WithLabelValues("idle").Set(float64(idle))
	pgxPoolConns.WithLabelValues("in_use").Set(float64(inUse))
}
