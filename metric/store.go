// Package metric implements C7: the per-model rolling performance store
// that feeds the fallback orchestrator's weighted strategy. It is adapted
// from the teacher's metrics/metric.go Averager, which paired an
// in-process running average with a prometheus counter/gauge pair; here
// the running statistic is an EMA (per spec.md §4.7) rather than a plain
// mean, and it is exposed per model via a GaugeVec instead of one gauge
// per averager instance.
package metric

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/concord/clock"
	"github.com/luxfi/concord/mathutil"
)

// Smoothing is the EMA smoothing factor α from spec.md §4.7.
const Smoothing = 0.1

// WeightConfig exposes the ceiling and mix coefficients of the weight
// formula as configuration, per spec.md §9 ("Open question"): the source
// mixed 0.7*success + 0.3*responsiveness against a fixed 10s ceiling; both
// are now explicit so they can't silently drift.
type WeightConfig struct {
	ResponseTimeCeiling time.Duration
	SuccessWeight       float64
	ResponsivenessWeight float64
}

// DefaultWeightConfig matches the formula fixed by spec.md §4.7 and §9.
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		ResponseTimeCeiling:  10 * time.Second,
		SuccessWeight:        0.7,
		ResponsivenessWeight: 0.3,
	}
}

// Snapshot is a point-in-time read of a model's PerformanceMetrics.
type Snapshot struct {
	ModelID           string
	EMAResponseTimeMs float64
	EMASuccessRate    float64
	LastUpdated       time.Time
	RequestCount      uint64
}

type modelState struct {
	mu                sync.Mutex
	emaResponseTimeMs float64
	emaSuccessRate    float64
	lastUpdated       time.Time
	requestCount      uint64
	observed          bool
}

// Store is the process-wide, per-model rolling metrics store. Writes are
// serialized per model; reads take a consistent snapshot.
type Store struct {
	clock  *clock.Clock
	weight WeightConfig

	mu     sync.RWMutex
	models map[string]*modelState

	responseTimeGauge *prometheus.GaugeVec
	successRateGauge  *prometheus.GaugeVec
	requestCounter    *prometheus.CounterVec
}

// NewStore constructs a Store. reg may be nil, in which case no prometheus
// metrics are registered (useful in tests).
func NewStore(clk *clock.Clock, weight WeightConfig, reg prometheus.Registerer) *Store {
	s := &Store{
		clock:  clk,
		weight: weight,
		models: make(map[string]*modelState),
		responseTimeGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "concord",
			Subsystem: "resilience",
			Name:      "model_response_time_ema_ms",
			Help:      "EMA of model response time in milliseconds.",
		}, []string{"model"}),
		successRateGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "concord",
			Subsystem: "resilience",
			Name:      "model_success_rate_ema",
			Help:      "EMA of model success rate in [0,1].",
		}, []string{"model"}),
		requestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concord",
			Subsystem: "resilience",
			Name:      "model_requests_total",
			Help:      "Total requests observed per model.",
		}, []string{"model"}),
	}
	if reg != nil {
		reg.MustRegister(s.responseTimeGauge, s.successRateGauge, s.requestCounter)
	}
	return s
}

func (s *Store) stateFor(modelID string) *modelState {
	s.mu.RLock()
	st, ok := s.models[modelID]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.models[modelID]; ok {
		return st
	}
	st = &modelState{}
	s.models[modelID] = st
	return st
}

// Record folds one observation into modelID's EMA. success indicates
// whether the call succeeded; responseTimeMs is the observed latency.
func (s *Store) Record(modelID string, responseTimeMs float64, success bool) {
	st := s.stateFor(modelID)
	now := s.clock.Now()

	successValue := 0.0
	if success {
		successValue = 1.0
	}

	st.mu.Lock()
	if !st.observed {
		st.emaResponseTimeMs = responseTimeMs
		st.emaSuccessRate = successValue
		st.observed = true
	} else {
		st.emaResponseTimeMs = st.emaResponseTimeMs*(1-Smoothing) + responseTimeMs*Smoothing
		st.emaSuccessRate = st.emaSuccessRate*(1-Smoothing) + successValue*Smoothing
	}
	st.lastUpdated = now
	st.requestCount++
	snap := Snapshot{
		EMAResponseTimeMs: st.emaResponseTimeMs,
		EMASuccessRate:    st.emaSuccessRate,
	}
	st.mu.Unlock()

	s.responseTimeGauge.WithLabelValues(modelID).Set(snap.EMAResponseTimeMs)
	s.successRateGauge.WithLabelValues(modelID).Set(snap.EMASuccessRate)
	s.requestCounter.WithLabelValues(modelID).Inc()
}

// Snapshot returns a consistent read of modelID's metrics. ok is false if
// no observation has been recorded for modelID yet.
func (s *Store) Snapshot(modelID string) (Snapshot, bool) {
	s.mu.RLock()
	st, ok := s.models[modelID]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.observed {
		return Snapshot{}, false
	}
	return Snapshot{
		ModelID:           modelID,
		EMAResponseTimeMs: st.emaResponseTimeMs,
		EMASuccessRate:    st.emaSuccessRate,
		LastUpdated:       st.lastUpdated,
		RequestCount:      st.requestCount,
	}, true
}

// Weight computes the routing weight for modelID per spec.md §4.7:
// w = successWeight*successRate + responsivenessWeight*max(0, 1 - avgResponseTime/ceiling)
// Unknown models default to 0.5, per spec.md §4.6.
func (s *Store) Weight(modelID string) float64 {
	snap, ok := s.Snapshot(modelID)
	if !ok {
		return 0.5
	}
	ceilingMs := float64(s.weight.ResponseTimeCeiling / time.Millisecond)
	responsiveness := mathutil.Max(0, 1-snap.EMAResponseTimeMs/ceilingMs)
	return s.weight.SuccessWeight*snap.EMASuccessRate + s.weight.ResponsivenessWeight*responsiveness
}
