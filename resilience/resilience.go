// Package resilience implements C6: the fallback orchestrator that runs
// an AITask under one of four strategies over a primary model plus an
// ordered fallback list, wrapping each candidate in its circuit breaker
// and retry manager and feeding outcomes back into the metrics store.
package resilience

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/concord/breaker"
	"github.com/luxfi/concord/metric"
	"github.com/luxfi/concord/model"
	"github.com/luxfi/concord/random"
	"github.com/luxfi/concord/retry"
)

// Strategy selects how the orchestrator orders and races candidate
// models, per spec.md §4.6.
type Strategy string

const (
	Sequential Strategy = "sequential"
	Parallel   Strategy = "parallel"
	Weighted   Strategy = "weighted"
	Random     Strategy = "random"
)

// FallbackConfig configures one Execute call, per spec.md §4.6.
type FallbackConfig struct {
	Primary       string
	Fallbacks     []string
	Strategy      Strategy
	Timeout       time.Duration
	MaxConcurrent int
	Weights       map[string]float64
	RetryEnabled  bool
	RetryOptions  retry.Options
}

func (c FallbackConfig) candidates() []string {
	out := make([]string, 0, 1+len(c.Fallbacks))
	out = append(out, c.Primary)
	out = append(out, c.Fallbacks...)
	return out
}

// ExecutionResult is returned by Execute, per spec.md §4.6.
type ExecutionResult struct {
	Result                  model.Payload
	Success                 bool
	ModelUsed               string
	ExecutionTime           time.Duration
	FallbackUsed            bool
	RetryCount              int
	CircuitBreakerTriggered bool
	Error                   error
	Metadata                map[string]string
}

// Orchestrator is C6: it owns no state of its own beyond references to
// the breaker registry, metrics store, and model executor it coordinates.
type Orchestrator struct {
	breakers *breaker.Registry
	metrics  *metric.Store
	executor model.Executor
	source   random.Source
	log      log.Logger
}

// New builds an Orchestrator. src may be nil, in which case a
// time-seeded random.Source is used for the "random" strategy.
func New(breakers *breaker.Registry, metrics *metric.Store, executor model.Executor, src random.Source, logger log.Logger) *Orchestrator {
	if src == nil {
		src = random.NewSource()
	}
	return &Orchestrator{breakers: breakers, metrics: metrics, executor: executor, source: src, log: logger}
}

// attemptOutcome is the per-model result of running attempt().
type attemptOutcome struct {
	modelID                 string
	response                model.Response
	err                     error
	circuitBreakerTriggered bool
	retryCount              int
}

// attempt runs task against modelID through its breaker, optionally
// wrapped in the retry manager, per spec.md §4.6 step 1-4.
func (o *Orchestrator) attempt(ctx context.Context, modelID string, task model.Task, cfg FallbackConfig) attemptOutcome {
	b := o.breakers.GetOrCreate(modelID)
	retryCount := 0

	call := func(ctx context.Context) (interface{}, error) {
		return b.Execute(ctx, func(ctx context.Context) (interface{}, error) {
			return o.executor.Execute(ctx, modelID, task)
		})
	}

	start := time.Now()
	var result interface{}
	var err error
	if cfg.RetryEnabled {
		opts := cfg.RetryOptions
		opts.Source = o.source
		result, err = retry.Execute(ctx, opts, func(ctx context.Context) (interface{}, error) {
			r, e := call(ctx)
			if e != nil {
				retryCount++
			}
			return r, e
		})
	} else {
		result, err = call(ctx)
	}
	duration := time.Since(start)

	triggered := errorsIsBreakerOpen(err)

	var resp model.Response
	if r, ok := result.(model.Response); ok {
		resp = r
	}
	success := err == nil

	if o.metrics != nil {
		o.metrics.Record(modelID, float64(duration/time.Millisecond), success)
	}

	if err != nil {
		o.log.Debug("model attempt failed", "model", modelID, "task", task.ID, "breakerOpen", triggered, "error", err)
		if triggered {
			err = newCircuitBreakerError(modelID, err)
		} else {
			err = newModelUnavailableError(modelID, err)
		}
	}

	return attemptOutcome{modelID: modelID, response: resp, err: err, circuitBreakerTriggered: triggered, retryCount: retryCount}
}

func errorsIsBreakerOpen(err error) bool {
	return err != nil && stderrors.Is(err, breaker.ErrBreakerOpen)
}

// Execute runs task under cfg.Strategy, returning the winning model's
// response or an AllModelsFailedError if every candidate failed.
func (o *Orchestrator) Execute(ctx context.Context, task model.Task, cfg FallbackConfig) ExecutionResult {
	start := time.Now()
	var outcome attemptOutcome
	var attempted []string
	var errs map[string]error

	switch cfg.Strategy {
	case Parallel:
		outcome, attempted, errs = o.runParallel(ctx, task, cfg)
	case Weighted:
		outcome, attempted, errs = o.runSequential(ctx, task, cfg, o.weightedOrder(cfg))
	case Random:
		outcome, attempted, errs = o.runSequential(ctx, task, cfg, random.Shuffle(o.source, cfg.candidates()))
	default:
		outcome, attempted, errs = o.runSequential(ctx, task, cfg, cfg.candidates())
	}

	result := ExecutionResult{
		ModelUsed:               outcome.modelID,
		ExecutionTime:           time.Since(start),
		RetryCount:              outcome.retryCount,
		CircuitBreakerTriggered: outcome.circuitBreakerTriggered,
		FallbackUsed:            outcome.modelID != "" && outcome.modelID != cfg.Primary,
	}

	if outcome.err == nil && outcome.modelID != "" {
		result.Success = true
		result.Result = outcome.response.Result
		o.log.Info("task executed", "task", task.ID, "model", outcome.modelID, "strategy", cfg.Strategy, "fallbackUsed", result.FallbackUsed)
		return result
	}

	o.log.Warn("all models failed", "task", task.ID, "strategy", cfg.Strategy, "attempted", attempted)
	result.Error = newAllModelsFailedError(attempted, errs)
	return result
}

// runSequential iterates order, returning the first success and the
// per-model error map for every attempted candidate.
func (o *Orchestrator) runSequential(ctx context.Context, task model.Task, cfg FallbackConfig, order []string) (attemptOutcome, []string, map[string]error) {
	attempted := make([]string, 0, len(order))
	errs := make(map[string]error, len(order))
	var last attemptOutcome
	for _, id := range order {
		attempted = append(attempted, id)
		out := o.attempt(ctx, id, task, cfg)
		if out.err == nil {
			return out, attempted, errs
		}
		errs[id] = out.err
		last = out
	}
	return last, attempted, errs
}

// runParallel launches attempt on min(maxConcurrent, len(candidates))
// models concurrently and returns the first success.
func (o *Orchestrator) runParallel(ctx context.Context, task model.Task, cfg FallbackConfig) (attemptOutcome, []string, map[string]error) {
	candidates := cfg.candidates()
	n := cfg.MaxConcurrent
	if n <= 0 || n > len(candidates) {
		n = len(candidates)
	}
	candidates = candidates[:n]

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan attemptOutcome, n)
	for _, id := range candidates {
		id := id
		go func() {
			results <- o.attempt(raceCtx, id, task, cfg)
		}()
	}

	errs := make(map[string]error, n)
	var last attemptOutcome
	for i := 0; i < n; i++ {
		out := <-results
		if out.err == nil {
			cancel()
			return out, candidates, errs
		}
		errs[out.modelID] = out.err
		last = out
	}
	return last, candidates, errs
}

// weightedOrder sorts candidates by descending routing weight, default
// 0.5 for unknown models, ties broken by original order.
func (o *Orchestrator) weightedOrder(cfg FallbackConfig) []string {
	candidates := cfg.candidates()
	weightOf := func(id string) float64 {
		if cfg.Weights != nil {
			if w, ok := cfg.Weights[id]; ok {
				return w
			}
		}
		if o.metrics != nil {
			return o.metrics.Weight(id)
		}
		return 0.5
	}

	ordered := make([]string, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return weightOf(ordered[i]) > weightOf(ordered[j])
	})
	return ordered
}

