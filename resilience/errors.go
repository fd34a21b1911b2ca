package resilience

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ResilienceError is the base error shape surfaced by the orchestrator,
// per spec.md §4.6.
type ResilienceError struct {
	Code        string
	ModelID     string
	Recoverable bool
	cause       error
}

func (e *ResilienceError) Error() string {
	if e.ModelID != "" {
		return fmt.Sprintf("resilience: %s (model=%s): %v", e.Code, e.ModelID, e.cause)
	}
	return fmt.Sprintf("resilience: %s: %v", e.Code, e.cause)
}

func (e *ResilienceError) Unwrap() error { return e.cause }

func newResilienceError(code, modelID string, recoverable bool, cause error) *ResilienceError {
	return &ResilienceError{Code: code, ModelID: modelID, Recoverable: recoverable, cause: errors.Wrap(cause, code)}
}

// CircuitBreakerError wraps a rejection by a model's circuit breaker.
type CircuitBreakerError struct {
	*ResilienceError
}

func newCircuitBreakerError(modelID string, cause error) *CircuitBreakerError {
	return &CircuitBreakerError{newResilienceError("circuit_breaker_open", modelID, true, cause)}
}

// ModelUnavailableError indicates a single model could not service the
// task for any reason other than breaker rejection. When retries were
// enabled and ran out, its cause wraps the retry.ExhaustedError.
type ModelUnavailableError struct {
	*ResilienceError
}

func newModelUnavailableError(modelID string, cause error) *ModelUnavailableError {
	return &ModelUnavailableError{newResilienceError("model_unavailable", modelID, true, cause)}
}

// AllModelsFailedError is returned by a strategy when every candidate
// model failed, carrying the per-model error map per spec.md §4.6.
type AllModelsFailedError struct {
	*ResilienceError
	Attempted []string
	Errors    map[string]error
}

func newAllModelsFailedError(attempted []string, errs map[string]error) *AllModelsFailedError {
	return &AllModelsFailedError{
		ResilienceError: newResilienceError("all_models_failed", "", false, errors.Newf("%d models attempted, all failed", len(attempted))),
		Attempted:       attempted,
		Errors:          errs,
	}
}
