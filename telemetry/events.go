// Package telemetry provides tick statistics, perf timing, bookmarking,
// CSV output and world snapshots.
package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/thermoscape/components"
)

// EventType identifies telemetry events.
type EventType uint8

const (
	EventGenerate EventType = iota
	EventTick
	EventInject
	EventRestore
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventGenerate:
		return "generate"
	case EventTick:
		return "tick"
	case EventInject:
		return "inject"
	case EventRestore:
		return "restore"
	}
	return "unknown"
}

// Event represents a single telemetry event.
type Event struct {
	Type EventType
	Tick int32

	// Optional fields depending on event type
	Seed     int64            // generate/restore
	Location components.Point // inject
	Amount   float64          // heat injected
}

// NewGenerateEvent creates a world generation event.
func NewGenerateEvent(seed int64) Event {
	return Event{Type: EventGenerate, Seed: seed}
}

// NewTickEvent creates a diffusion tick event.
func NewTickEvent(tick int32) Event {
	return Event{Type: EventTick, Tick: tick}
}

// NewInjectEvent creates a heat injection event.
func NewInjectEvent(tick int32, p components.Point, amount float64) Event {
	return Event{Type: EventInject, Tick: tick, Location: p, Amount: amount}
}

// NewRestoreEvent creates a snapshot restore event.
func NewRestoreEvent(tick int32, seed int64) Event {
	return Event{Type: EventRestore, Tick: tick, Seed: seed}
}

// LogValue implements slog.LogValuer for structured logging.
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("type", e.Type.String()),
		slog.Int("tick", int(e.Tick)),
	}
	switch e.Type {
	case EventGenerate, EventRestore:
		attrs = append(attrs, slog.Int64("seed", e.Seed))
	case EventInject:
		attrs = append(attrs, slog.String("at", e.Location.String()), slog.Float64("amount", e.Amount))
	}
	return slog.GroupValue(attrs...)
}

// EventLog keeps the most recent events in a ring buffer.
type EventLog struct {
	events []Event
	next   int
	full   bool
}

// NewEventLog creates a log holding up to size events.
func NewEventLog(size int) *EventLog {
	if size < 1 {
		size = 64
	}
	return &EventLog{events: make([]Event, size)}
}

// Record appends an event, overwriting the oldest when full.
func (l *EventLog) Record(e Event) {
	l.events[l.next] = e
	l.next = (l.next + 1) % len(l.events)
	if l.next == 0 {
		l.full = true
	}
}

// Recent returns the stored events, oldest first.
func (l *EventLog) Recent() []Event {
	if !l.full {
		out := make([]Event, l.next)
		copy(out, l.events[:l.next])
		return out
	}
	out := make([]Event, 0, len(l.events))
	out = append(out, l.events[l.next:]...)
	out = append(out, l.events[:l.next]...)
	return out
}
