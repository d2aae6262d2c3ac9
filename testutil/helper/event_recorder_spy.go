package helper

import (
	"sync"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
)

// EventRecorderSpy captures recorded domain events for assertions.
type EventRecorderSpy struct {
	events []core.DomainEvent
	mu     sync.Mutex
}

func NewEventRecorderSpy() *EventRecorderSpy {
	return &EventRecorderSpy{events: make([]core.DomainEvent, 0)}
}

func (s *EventRecorderSpy) Record(event core.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
}

// GetEvents returns a copy of all recorded events.
func (s *EventRecorderSpy) GetEvents() []core.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]core.DomainEvent(nil), s.events...)
}

// CountEventType counts recorded events of one type.
func (s *EventRecorderSpy) CountEventType(eventType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.events {
		if e.EventType() == eventType {
			n++
		}
	}

	return n
}

// EventsOfType returns the recorded events of one type in recording order.
func (s *EventRecorderSpy) EventsOfType(eventType string) []core.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matching []core.DomainEvent
	for _, e := range s.events {
		if e.EventType() == eventType {
			matching = append(matching, e)
		}
	}

	return matching
}
