package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

// register queues collectors declared by this package's init functions.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister adds every queued collector to the default registry. Later
// calls do nothing, so tests and binaries may both call it.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(pending...)
	})
}
