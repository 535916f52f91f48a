package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobRunsTotal) }

var jobRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scheduled_job_runs_total",
		Help: "Scheduled job runs, labeled by job and status.",
	},
	[]string{"job", "status"}, // status: 'ok', 'failed'
)

func IncJobRun(job, status string) {
	jobRunsTotal.WithLabelValues(norm(job), norm(status)).Inc()
}
