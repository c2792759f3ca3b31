// Package promhooks counts cache events with Prometheus.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/infracache"
)

type Hooks struct {
	lookups  *prometheus.CounterVec
	decode   prometheus.Counter
	backend  *prometheus.CounterVec
	canceled *prometheus.CounterVec
}

var _ infracache.Hooks = (*Hooks)(nil)

// New builds the collectors. Register them with RegMetricsTo.
func New() *Hooks {
	return &Hooks{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lookups_total",
			Help: "The total number of cache lookups by result",
		}, []string{"op", "result"}),
		decode: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "decode_failures_total",
			Help: "The total number of cached payloads that failed to decode",
		}),
		backend: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backend_errors_total",
			Help: "The total number of failed backend calls",
		}, []string{"op"}),
		canceled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canceled_total",
			Help: "The total number of operations abandoned by the caller",
		}, []string{"op"}),
	}
}

func (h *Hooks) RegMetricsTo(r prometheus.Registerer) error {
	for _, collector := range [...]prometheus.Collector{h.lookups, h.decode, h.backend, h.canceled} {
		if err := r.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) Lookup(op string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	h.lookups.WithLabelValues(op, result).Inc()
}

func (h *Hooks) DecodeFailed(string, error)                { h.decode.Inc() }
func (h *Hooks) BackendError(op string, _ string, _ error) { h.backend.WithLabelValues(op).Inc() }
func (h *Hooks) Canceled(op string, _ string)              { h.canceled.WithLabelValues(op).Inc() }
