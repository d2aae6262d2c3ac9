package shell

import (
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/eventstore"
)

var (
	// ErrMappingToDomainEventFailed is returned when domain event conversion fails.
	ErrMappingToDomainEventFailed = errors.New("mapping to domain event failed")

	// ErrMappingToDomainEventUnknownEventType is returned for unrecognized event types.
	ErrMappingToDomainEventUnknownEventType = errors.New("unknown event type")
)

// DomainEventsFrom converts multiple StorableEvents to DomainEvents.
func DomainEventsFrom(storableEvents eventstore.StorableEvents) (core.DomainEvents, error) {
	domainEvents := make(core.DomainEvents, 0, len(storableEvents))

	for _, storableEvent := range storableEvents {
		domainEvent, err := DomainEventFrom(storableEvent)
		if err != nil {
			return nil, err
		}

		domainEvents = append(domainEvents, domainEvent)
	}

	return domainEvents, nil
}

// DomainEventFrom converts a StorableEvent to its corresponding DomainEvent.
func DomainEventFrom(storableEvent eventstore.StorableEvent) (core.DomainEvent, error) {
	switch storableEvent.EventType {
	case core.ItemProducedEventType:
		return unmarshalPayload[core.ItemProduced](storableEvent.PayloadJSON)

	case core.ItemFinishedEventType:
		return unmarshalPayload[core.ItemFinished](storableEvent.PayloadJSON)

	case core.ItemSoldEventType:
		return unmarshalPayload[core.ItemSold](storableEvent.PayloadJSON)

	case core.SupplyPurchasedEventType:
		return unmarshalPayload[core.SupplyPurchased](storableEvent.PayloadJSON)

	case core.CustomerComplainedEventType:
		return unmarshalPayload[core.CustomerComplained](storableEvent.PayloadJSON)

	case core.CustomerLeftEventType:
		return unmarshalPayload[core.CustomerLeft](storableEvent.PayloadJSON)

	case core.WorkersReassignedEventType:
		return unmarshalPayload[core.WorkersReassigned](storableEvent.PayloadJSON)

	case core.SimulationStoppedEventType:
		return unmarshalPayload[core.SimulationStopped](storableEvent.PayloadJSON)
	}

	return nil, errors.Join(ErrMappingToDomainEventFailed, ErrMappingToDomainEventUnknownEventType)
}

func unmarshalPayload[E core.DomainEvent](payloadJSON []byte) (core.DomainEvent, error) {
	var payload E

	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	return payload, nil
}
