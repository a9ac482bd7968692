package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(membersGauge, memberStoreErrorsTotal)
}

var (
	membersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "group_members",
			Help: "Current size of the member list.",
		},
	)

	memberStoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "member_store_errors_total",
			Help: "Member persistence failures by operation (load, save).",
		},
		[]string{"op"},
	)
)

func SetMembers(n int) {
	membersGauge.Set(float64(n))
}

func IncMemberStoreError(op string) {
	memberStoreErrorsTotal.WithLabelValues(norm(op)).Inc()
}
