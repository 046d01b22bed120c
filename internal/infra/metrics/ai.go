package metrics

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiTokensIn,
		aiTokensOut,
		aiTokensTotal,
		aiCostMicroUSD,
		stageLatencyMs,
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

	aiTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Sum of total tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiCostMicroUSD = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_cost_micro_usd",
			Help: "Estimated spend in micro-USD per provider/model.",
		},
		[]string{"provider", "model"},
	)

	stageLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_stage_latency_ms",
			Help:    "Pipeline stage latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 30000},
		},
		[]string{"pipeline", "stage", "success"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func ObserveStageUsage(provider, model string, tokensIn, tokensOut, tokensTotal int, costMicroUSD int64) {
	lbl := []string{norm(provider), norm(model)}
	aiTokensIn.WithLabelValues(lbl...).Add(float64(tokensIn))
	aiTokensOut.WithLabelValues(lbl...).Add(float64(tokensOut))
	aiTokensTotal.WithLabelValues(lbl...).Add(float64(tokensTotal))
	aiCostMicroUSD.WithLabelValues(lbl...).Add(float64(costMicroUSD))
}

func ObserveStageLatency(pipeline, stage string, latencyMs int, success bool) {
	stageLatencyMs.WithLabelValues(norm(pipeline), norm(stage), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}
