package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		progressReportsTotal,
		episodeCompletionsTotal,
		quizAttemptsTotal,
		enrollmentsCompleted,
	)
}

var (
	progressReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "episode_progress_reports_total",
			Help: "Progress reports by outcome.",
		},
		[]string{"outcome"}, // 'accepted', 'denied', 'hint_rejected'
	)

	episodeCompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "episode_completions_total",
			Help: "Episode completion transitions, by path.",
		},
		[]string{"path"}, // 'report', 'mark'
	)

	quizAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_attempts_total",
			Help: "Quiz attempts by result.",
		},
		[]string{"result"}, // 'passed', 'failed'
	)

	enrollmentsCompleted = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "enrollments_completed",
			Help: "Current number of completed enrollments.",
		},
	)
)

func IncProgressReport(outcome string) {
	progressReportsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncEpisodeCompletion(path string) {
	episodeCompletionsTotal.WithLabelValues(norm(path)).Inc()
}

func IncQuizAttempt(passed bool) {
	result := "failed"
	if passed {
		result = "passed"
	}
	quizAttemptsTotal.WithLabelValues(result).Inc()
}

func SetEnrollmentsCompleted(n int) { enrollmentsCompleted.Set(float64(n)) }
