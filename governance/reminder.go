package governance

import (
	"sort"
	"time"
)

// ReminderOffsets are the deadline-relative offsets ticks are computed
// at, per spec.md §4.11.
var ReminderOffsets = []time.Duration{
	72 * time.Hour,
	24 * time.Hour,
	6 * time.Hour,
	1 * time.Hour,
}

// Tick is one scheduled reminder, persisted per the on-disk layout in
// spec.md §6 (`reminder_schedule.json`).
type Tick struct {
	ScheduledFor        time.Time
	HoursBeforeDeadline float64
	MinuteID            string
}

// Scheduler is C11: a time-indexed queue of deadline-relative reminder
// ticks for one session. It holds no reference to the session itself —
// callers pass endTime in and decide what to do with due ticks.
type Scheduler struct {
	ticks []Tick
}

// NewScheduler computes reminder ticks at ReminderOffsets before endTime,
// discarding any tick already in the past relative to now, per spec.md
// §4.11.
func NewScheduler(minuteID string, endTime time.Time, now time.Time) *Scheduler {
	s := &Scheduler{}
	for _, offset := range ReminderOffsets {
		scheduledFor := endTime.Add(-offset)
		if scheduledFor.Before(now) {
			continue
		}
		s.ticks = append(s.ticks, Tick{
			ScheduledFor:        scheduledFor,
			HoursBeforeDeadline: offset.Hours(),
			MinuteID:            minuteID,
		})
	}
	sort.Slice(s.ticks, func(i, j int) bool { return s.ticks[i].ScheduledFor.Before(s.ticks[j].ScheduledFor) })
	return s
}

// Pending returns a copy of the ticks still queued.
func (s *Scheduler) Pending() []Tick {
	out := make([]Tick, len(s.ticks))
	copy(out, s.ticks)
	return out
}

// Poll returns and removes every tick due at or before now, per spec.md
// §4.11. The caller is responsible for emitting reminder events for
// voters whose vote block is still missing.
func (s *Scheduler) Poll(now time.Time) []Tick {
	var due []Tick
	var remaining []Tick
	for _, t := range s.ticks {
		if !t.ScheduledFor.After(now) {
			due = append(due, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	s.ticks = remaining
	return due
}
