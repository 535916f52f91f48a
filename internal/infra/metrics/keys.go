package metrics

import (
	"course-progression/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		keysIssuedTotal,
		keyRedemptionsTotal,
		keysTotal,
	)
}

var (
	keysIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_keys_issued_total",
			Help: "Registration keys issued, by product kind.",
		},
		[]string{"product_kind"},
	)

	keyRedemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_key_redemptions_total",
			Help: "Redemption attempts by outcome.",
		},
		[]string{"outcome"}, // 'activated', 'replayed', 'not_found', 'deactivated', 'already_used', 'error'
	)

	keysTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "registration_keys_total",
			Help: "Current number of registration keys by state.",
		},
		[]string{"state"},
	)
)

func AddKeysIssued(kind model.ProductKind, n int) {
	keysIssuedTotal.WithLabelValues(norm(string(kind))).Add(float64(n))
}

func IncRedemption(outcome string) {
	keyRedemptionsTotal.WithLabelValues(norm(outcome)).Inc()
}

func SetKeysTotal(counts map[model.KeyState]int) {
	states := []model.KeyState{
		model.KeyStateIssued,
		model.KeyStateActivated,
		model.KeyStateDeactivated,
	}
	for _, s := range states {
		keysTotal.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}
