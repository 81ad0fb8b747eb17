package events

import "time"

// DomainEvent is a fact recorded by an aggregate and shipped through the outbox.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder collects events until the application layer drains them.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

// PullEvents returns pending events and clears the recorder.
func (r *EventRecorder) PullEvents() []DomainEvent {
	out := r.PendingEvents()
	r.pending = nil
	return out
}

func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}
