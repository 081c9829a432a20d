package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics tracks cart mutations and tier health.
type CartMetrics struct {
	mutations      *prometheus.CounterVec
	degradedLoads  prometheus.Counter
	lockContention prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and result.",
	}, []string{"operation", "result"})
	degraded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_degraded_loads_total",
		Help: "Cart loads that fell back to stale local data.",
	})
	contention := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_lock_contention_total",
		Help: "Cart mutations rejected because the cart lock stayed busy.",
	})
	reg.MustRegister(mutations, degraded, contention)
	return &CartMetrics{
		mutations:      mutations,
		degradedLoads:  degraded,
		lockContention: contention,
	}
}

// IncMutation counts a cart mutation; result is "ok" or "error".
func (c *CartMetrics) IncMutation(operation string, err error) {
	if c == nil || c.mutations == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.mutations.WithLabelValues(normalizeLabel(operation), result).Inc()
}

func (c *CartMetrics) IncDegradedLoad() {
	if c == nil || c.degradedLoads == nil {
		return
	}
	c.degradedLoads.Inc()
}

func (c *CartMetrics) IncLockContention() {
	if c == nil || c.lockContention == nil {
		return
	}
	c.lockContention.Inc()
}
