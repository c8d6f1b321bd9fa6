package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
)

func init() {
	register(
		autoSwitchTotal,
		subscriptionsTotal,
	)
}

var (
	autoSwitchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auto_switch_actions_total",
			Help: "Auto-switch engine outcomes by action.",
		},
		[]string{"action"}, // 'no_change', 'enter_grace', 'suspend', 'reactivate'
	)

	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of merchant subscriptions by status.",
		},
		[]string{"status"}, // 'active', 'suspended', 'cancelled'
	)
)

func IncAutoSwitch(action string) {
	autoSwitchTotal.WithLabelValues(norm(action)).Inc()
}

func SetSubscriptionsTotal(counts map[model.SubscriptionStatus]int) {
	statuses := []model.SubscriptionStatus{
		model.SubscriptionStatusActive,
		model.SubscriptionStatusSuspended,
		model.SubscriptionStatusCancelled,
	}
	for _, status := range statuses {
		if count, ok := counts[status]; ok {
			subscriptionsTotal.WithLabelValues(string(status)).Set(float64(count))
		}
	}
}
