package shell

import (
	"errors"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/bakery-simulation/eventstore"
)

var ErrMappingToEventMetadataFailed = errors.New("mapping to event metadata failed")

type MessageID = string
type CausationID = string

// CorrelationID ties the events of one run together: it is the run ID.
type CorrelationID = string

// EventMetadata travels next to every journaled payload.
type EventMetadata struct {
	MessageID     MessageID
	CausationID   CausationID
	CorrelationID CorrelationID
}

func BuildEventMetadata(messageID uuid.UUID, causationID uuid.UUID, correlationID uuid.UUID) EventMetadata {
	return EventMetadata{
		MessageID:     messageID.String(),
		CausationID:   causationID.String(),
		CorrelationID: correlationID.String(),
	}
}

// BuildRunEventMetadata creates the metadata of one event of a run. The run caused every event it
// records, so causation and correlation are both the run ID.
func BuildRunEventMetadata(runID uuid.UUID) EventMetadata {
	return BuildEventMetadata(uuid.New(), runID, runID)
}

// EventMetadataFrom reads the metadata back from a journaled event.
func EventMetadataFrom(storableEvent eventstore.StorableEvent) (EventMetadata, error) {
	var metadata EventMetadata

	if err := jsoniter.ConfigFastest.Unmarshal(storableEvent.MetadataJSON, &metadata); err != nil {
		return EventMetadata{}, errors.Join(ErrMappingToEventMetadataFailed, err)
	}

	return metadata, nil
}

// RunID parses the correlation ID. Events without run metadata yield uuid.Nil and an error.
func (m EventMetadata) RunID() (uuid.UUID, error) {
	runID, err := uuid.Parse(m.CorrelationID)
	if err != nil {
		return uuid.Nil, errors.Join(ErrMappingToEventMetadataFailed, err)
	}

	return runID, nil
}
