package breaker

import (
	"sync"

	"github.com/luxfi/log"

	"github.com/luxfi/concord/clock"
)

// Registry holds one Breaker per model, created lazily on first use. A
// process normally owns exactly one Registry, but nothing here reaches
// for a package-level global; callers thread the handle explicitly (per
// design note 9).
type Registry struct {
	clock *clock.Clock
	cfg   Config
	log   log.Logger

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry builds an empty registry that creates breakers with cfg.
// logger may be nil.
func NewRegistry(cfg Config, clk *clock.Clock, logger log.Logger) *Registry {
	return &Registry{
		clock:    clk,
		cfg:      cfg,
		log:      logger,
		breakers: make(map[string]*Breaker),
	}
}

// GetOrCreate returns the breaker for modelID, creating it with the
// registry's default config if it does not yet exist.
func (r *Registry) GetOrCreate(modelID string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[modelID]; ok {
		return b
	}
	b := New(modelID, r.cfg, r.clock, r.log)
	r.breakers[modelID] = b
	return b
}

// ResetAll forces every known breaker closed.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	breakers := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.Unlock()

	for _, b := range breakers {
		b.Reset()
	}
}

// GetAllStatus snapshots every known breaker's status, keyed by model ID.
func (r *Registry) GetAllStatus() map[string]Status {
	r.mu.Lock()
	breakers := make(map[string]*Breaker, len(r.breakers))
	for id, b := range r.breakers {
		breakers[id] = b
	}
	r.mu.Unlock()

	out := make(map[string]Status, len(breakers))
	for id, b := range breakers {
		out[id] = b.Status()
	}
	return out
}
