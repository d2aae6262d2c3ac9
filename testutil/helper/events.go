package helper

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/bakery-simulation/eventstore"
)

// GivenUniqueID returns a time ordered uuid.
func GivenUniqueID(t testing.TB) uuid.UUID {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return id
}

// GivenStorableEvent builds a journal event with "{}" metadata.
func GivenStorableEvent(t testing.TB, eventType string, occurredAt time.Time, payloadJSON string) eventstore.StorableEvent {
	event, err := eventstore.BuildStorableEventWithEmptyMetadata(eventType, occurredAt, []byte(payloadJSON))
	assert.NoError(t, err, "error in arranging test data")

	return event
}

// PostgresDSNOrSkip returns the DSN from POSTGRES_DSN or skips the test.
func PostgresDSNOrSkip(t testing.TB) string {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN is not set")
	}

	return dsn
}

// UniqueTableName returns a table name that does not collide between test runs.
func UniqueTableName(t testing.TB, prefix string) string {
	id := GivenUniqueID(t)

	return prefix + "_" + uuidToIdentifier(id)
}

func uuidToIdentifier(id uuid.UUID) string {
	out := make([]byte, 0, 32)
	for _, c := range id.String() {
		if c != '-' {
			out = append(out, byte(c))
		}
	}

	return string(out)
}
