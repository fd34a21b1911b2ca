package governance

import "time"

// EventType enumerates the kinds of events the core emits through a
// NotificationSink, per spec.md §4.10.
type EventType string

const (
	EventVoteStart    EventType = "vote-start"
	EventVoteReminder EventType = "vote-reminder"
	EventVoteReceived EventType = "vote-received"
	EventVoteComplete EventType = "vote-complete"
	EventFinalized    EventType = "vote-finalized"
)

// Event is the payload handed to a NotificationSink, per spec.md §4.10.
type Event struct {
	ID         string
	Type       EventType
	TopicID    string
	Timestamp  time.Time
	Message    string
	Recipients []string
	Metadata   map[string]string
}

// Sink is C10: an abstract boundary for outbound notifications. Delivery,
// persistence, and deduplication are the implementation's responsibility;
// the core never blocks beyond Send returning.
type Sink interface {
	Send(event Event) error
}

// NoOpSink discards every event. Useful as a default when a host has not
// wired a delivery channel yet.
type NoOpSink struct{}

// Send implements Sink.
func (NoOpSink) Send(Event) error { return nil }
