package shell

import (
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/eventstore"
)

var ErrMappingToStorableEventFailedForDomainEvent = errors.New("mapping to storable event failed for domain event")
var ErrMappingToStorableEventFailedForMetadata = errors.New("mapping to storable event failed for metadata")

// payloadCodec writes payloads the way encoding/json would, so any reader of the journal can decode them.
var payloadCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// StorableEventFrom converts a domain event of a run into the journal DTO.
func StorableEventFrom(event core.DomainEvent, metadata EventMetadata) (eventstore.StorableEvent, error) {
	metadataJSON, err := payloadCodec.Marshal(metadata)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailedForMetadata, err)
	}

	return storableEventFrom(event, metadataJSON)
}

// StorableEventWithEmptyMetadataFrom converts a domain event that belongs to no run, e.g. a fixture.
func StorableEventWithEmptyMetadataFrom(event core.DomainEvent) (eventstore.StorableEvent, error) {
	return storableEventFrom(event, []byte("{}"))
}

func storableEventFrom(event core.DomainEvent, metadataJSON []byte) (eventstore.StorableEvent, error) {
	payloadJSON, err := payloadCodec.Marshal(event)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailedForDomainEvent, err)
	}

	storableEvent, err := eventstore.BuildStorableEvent(event.EventType(), event.HasOccurredAt(), payloadJSON, metadataJSON)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailedForDomainEvent, err)
	}

	return storableEvent, nil
}
