package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(catalogCacheLookups) }

var catalogCacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Redis lookups for course and episode catalog entries.",
	},
	[]string{"cache", "result"}, // cache: course|episode|episode_list, result: hit|miss|error
)

func IncCacheRequest(cacheName, result string) {
	catalogCacheLookups.WithLabelValues(norm(cacheName), norm(result)).Inc()
}
