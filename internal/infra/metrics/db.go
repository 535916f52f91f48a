package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(pgPoolConns) }

// pgPoolConns is refreshed by the stats job from pgxpool.Stat.
var pgPoolConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "postgres_pool_connections",
		Help: "Postgres pool connections by state, sampled by the stats job.",
	},
	[]string{"state"}, // total, idle, acquired
)

func SetDBPoolStats(total, idle, inUse int32) {
	for state, n := range map[string]int32{"total": total, "idle": idle, "acquired": inUse} {
		pgPoolConns.WithLabelValues(state).Set(float64(n))
	}
}
