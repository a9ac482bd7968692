package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiTokensIn,
		aiTokensOut,
		aiCallsLatencyMs,
		relayResultsTotal,
		sessionRefreshTotal,
	)
}

var (
	aiTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_in",
			Help: "Sum of prompt (input) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_out",
			Help: "Sum of completion (output) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 30000},
		},
		[]string{"provider", "status"},
	)

	relayResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_results_total",
			Help: "Relay outcomes (ok, backend_error, malformed_response).",
		},
		[]string{"provider", "status"},
	)

	sessionRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_session_refresh_total",
			Help: "Conversation reset+refresh attempts by outcome.",
		},
		[]string{"provider", "success"},
	)
)

func ObserveRelay(provider, status string, latencyMs int64) {
	relayResultsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
	aiCallsLatencyMs.WithLabelValues(norm(provider), norm(status)).Observe(float64(latencyMs))
}

func ObserveTokens(provider, model string, tokensIn, tokensOut int) {
	lbl := []string{norm(provider), norm(model)}
	aiTokensIn.WithLabelValues(lbl...).Add(float64(tokensIn))
	aiTokensOut.WithLabelValues(lbl...).Add(float64(tokensOut))
}

func IncSessionRefresh(provider string, success bool) {
	s := "false"
	if success {
		s = "true"
	}
	sessionRefreshTotal.WithLabelValues(norm(provider), s).Inc()
}
