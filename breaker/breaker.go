// Package breaker implements C4: a per-model three-state circuit breaker
// with timeouts and observer notification. State transitions and their
// paired counters are updated under one lock (spec.md §5); listener
// notification happens off that lock, on a dedicated consumer goroutine,
// per design note 9 ("implement as message passing to a dedicated
// consumer task, not synchronous callbacks holding internal locks").
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/concord/clock"
	noopLog "github.com/luxfi/concord/log"
)

// State is one of the three circuit-breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned when Execute rejects a call without invoking
// the action because the breaker is open.
var ErrBreakerOpen = errors.New("breaker: circuit open")

// Config are the breaker's thresholds, per spec.md §4.4.
type Config struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
	Timeout          time.Duration
}

// DefaultConfig mirrors a conservative, commonly used breaker profile.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 2,
		Timeout:          10 * time.Second,
	}
}

// Status is a read-only snapshot of a breaker's state, per spec.md §3.
type Status struct {
	State                State
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastFailureTime      time.Time
	NextRetryTime        time.Time
}

// StateChangeEvent is delivered to listeners when the breaker transitions.
type StateChangeEvent struct {
	ModelID string
	From    State
	To      State
	Trigger string
}

// ExecutionEvent is delivered to listeners after every attempted (not
// rejected) execution.
type ExecutionEvent struct {
	ModelID  string
	Success  bool
	Duration time.Duration
}

// Listener observes breaker activity. Methods are invoked on a private
// consumer goroutine, never while the breaker's internal lock is held, so
// a slow or misbehaving listener cannot stall Execute callers.
type Listener interface {
	OnStateChange(StateChangeEvent)
	OnExecution(ExecutionEvent)
}

// Breaker is a single model's circuit breaker.
type Breaker struct {
	modelID string
	cfg     Config
	clock   *clock.Clock
	log     log.Logger

	mu                   sync.Mutex
	state                State
	consecutiveFailures  int
	consecutiveSuccesses int
	lastFailureTime      time.Time
	nextRetryTime        time.Time

	events    chan any
	listeners []Listener
	listenMu  sync.RWMutex
}

// New constructs a Breaker in the closed state. logger may be nil, in
// which case transitions are not logged.
func New(modelID string, cfg Config, clk *clock.Clock, logger log.Logger) *Breaker {
	if logger == nil {
		logger = noopLog.NewNoOpLogger()
	}
	b := &Breaker{
		modelID: modelID,
		cfg:     cfg,
		clock:   clk,
		log:     logger,
		state:   Closed,
		events:  make(chan any, 64),
	}
	go b.dispatch()
	return b
}

// Subscribe registers l to receive future state-change and execution
// events. Not retroactive.
func (b *Breaker) Subscribe(l Listener) {
	b.listenMu.Lock()
	defer b.listenMu.Unlock()
	b.listeners = append(b.listeners, l)
}

func (b *Breaker) dispatch() {
	for ev := range b.events {
		b.listenMu.RLock()
		listeners := append([]Listener(nil), b.listeners...)
		b.listenMu.RUnlock()

		for _, l := range listeners {
			switch e := ev.(type) {
			case StateChangeEvent:
				l.OnStateChange(e)
			case ExecutionEvent:
				l.OnExecution(e)
			}
		}
	}
}

func (b *Breaker) emit(ev any) {
	select {
	case b.events <- ev:
	default:
		// Listener consumer is backed up; drop rather than block the
		// calling goroutine's execution path.
	}
}

// Status returns a consistent snapshot of the breaker's state.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		State:                b.state,
		ConsecutiveFailures:  b.consecutiveFailures,
		ConsecutiveSuccesses: b.consecutiveSuccesses,
		LastFailureTime:      b.lastFailureTime,
		NextRetryTime:        b.nextRetryTime,
	}
}

// admit decides whether a call may proceed, transitioning open->half-open
// when the recovery timeout has elapsed. Returns false if the call must
// be rejected without invoking the action.
func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed, HalfOpen:
		return true
	case Open:
		if b.clock.Now().Before(b.nextRetryTime) {
			return false
		}
		b.transitionLocked(HalfOpen, "recovery-timeout-elapsed")
		b.consecutiveSuccesses = 0
		return true
	default:
		return false
	}
}

// transitionLocked changes state and queues the event for delivery. Must
// be called with mu held.
func (b *Breaker) transitionLocked(to State, trigger string) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.log.Info("breaker state change", "model", b.modelID, "from", from, "to", to, "trigger", trigger)
	b.emit(StateChangeEvent{ModelID: b.modelID, From: from, To: to, Trigger: trigger})
}

func (b *Breaker) recordSuccessLocked() {
	switch b.state {
	case Closed:
		b.consecutiveFailures = 0
	case HalfOpen:
		b.consecutiveSuccesses++
		if b.consecutiveSuccesses >= b.cfg.SuccessThreshold {
			b.transitionLocked(Closed, "success-threshold-reached")
			b.consecutiveFailures = 0
			b.consecutiveSuccesses = 0
		}
	}
}

func (b *Breaker) recordFailureLocked() {
	b.lastFailureTime = b.clock.Now()
	switch b.state {
	case Closed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.tripLocked("failure-threshold-reached")
		}
	case HalfOpen:
		b.tripLocked("failure-in-half-open")
	}
}

func (b *Breaker) tripLocked(trigger string) {
	b.transitionLocked(Open, trigger)
	b.nextRetryTime = b.clock.Now().Add(b.cfg.RecoveryTimeout)
	b.consecutiveSuccesses = 0
}

// Reset forces the breaker closed with zeroed counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionLocked(Closed, "manual-reset")
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
}

// Trip forces the breaker open, stamping a last-failure time.
func (b *Breaker) Trip(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastFailureTime = b.clock.Now()
	b.tripLocked(reason)
}

// Execute runs action under this breaker's timeout. If the breaker is
// open and not yet eligible for a retry probe, action is never invoked
// and ErrBreakerOpen is returned. A timeout counts as a failure.
func (b *Breaker) Execute(ctx context.Context, action func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if !b.admit() {
		return nil, ErrBreakerOpen
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if b.cfg.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	start := b.clock.Now()
	result, err := action(callCtx)
	duration := b.clock.Since(start)

	if err == nil && callCtx.Err() != nil {
		err = callCtx.Err()
	}

	b.mu.Lock()
	if err != nil {
		b.recordFailureLocked()
	} else {
		b.recordSuccessLocked()
	}
	b.mu.Unlock()

	b.emit(ExecutionEvent{ModelID: b.modelID, Success: err == nil, Duration: duration})
	return result, err
}
