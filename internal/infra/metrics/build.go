package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(buildInfo)
}

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "build_info",
		Help: "A constant metric with labels for version, commit and bot variant.",
	},
	[]string{"version", "commit", "variant"},
)

func SetBuildInfo(version, commit, variant string) {
	buildInfo.WithLabelValues(version, commit, variant).Set(1)
}
