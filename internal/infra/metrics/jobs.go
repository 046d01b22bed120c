package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(agentJobsTotal) }

var agentJobsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "agent_jobs_total",
		Help: "Total number of agent jobs finished, labeled by pipeline and terminal status.",
	},
	[]string{"pipeline", "status"}, // 'completed', 'failed'
)

func IncAgentJob(pipeline, status string) {
	agentJobsTotal.WithLabelValues(norm(pipeline), norm(status)).Inc()
}
