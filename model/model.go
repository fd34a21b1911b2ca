// Package model holds the shared data types that cross the resilience
// engine's boundary: model identities, the tasks submitted to them, and
// the responses they produce. Per design note 9, the opaque payload and
// result fields are untyped bytes with a content-type tag rather than
// dynamically-typed values, keeping the dynamic typing the source
// exhibited out of this core.
package model

import (
	"context"
	"time"
)

// Priority is the urgency of an AITask.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Identity describes an AI model endpoint. It is immutable after
// construction: its lifetime is the process, or until a configuration
// reload replaces the whole fleet.
type Identity struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Provider     string            `json:"provider"`
	Version      string            `json:"version,omitempty"`
	Capabilities []string          `json:"capabilities,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Payload is an opaque value with a content-type tag, used for both
// AITask.Payload and AIResponse.Result so that neither leaks dynamic
// typing into the resilience engine.
type Payload struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Task is a unit of work submitted to the fallback orchestrator. It is
// created by the caller and consumed exactly once.
type Task struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Payload  Payload           `json:"payload"`
	Priority Priority          `json:"priority"`
	Timeout  time.Duration     `json:"timeout,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Response is produced by a model executor in answer to a Task.
type Response struct {
	TaskID       string            `json:"taskId"`
	ModelID      string            `json:"modelId"`
	Result       Payload           `json:"result"`
	Success      bool              `json:"success"`
	ResponseTime time.Duration     `json:"responseTime"`
	Timestamp    time.Time         `json:"timestamp"`
	Error        string            `json:"error,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Executor invokes a single model for a task. Implementations are
// supplied by the host; concord only orchestrates calls to them.
// Executors must honor ctx cancellation so that breaker/strategy timeouts
// can abandon in-flight calls per spec.md §5.
type Executor interface {
	Execute(ctx context.Context, modelID string, task Task) (Response, error)
}
