package core

import (
	"time"

	"github.com/google/uuid"
)

const CustomerLeftEventType = "CustomerLeft"

type CustomerLeft struct {
	CustomerID string
	Outcome    string
	ItemKind   string
	Flavor     int
	Requested  int
	Waited     time.Duration
	OccurredAt OccurredAt
}

func BuildCustomerLeft(
	customerID uuid.UUID,
	outcome Outcome,
	kind ItemKind,
	flavor int,
	requested int,
	waited time.Duration,
	occurredAt time.Time,
) CustomerLeft {

	return CustomerLeft{
		CustomerID: customerID.String(),
		Outcome:    outcome.String(),
		ItemKind:   kind.String(),
		Flavor:     flavor,
		Requested:  requested,
		Waited:     waited,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e CustomerLeft) EventType() string {
	return CustomerLeftEventType
}

func (e CustomerLeft) HasOccurredAt() time.Time {
	return e.OccurredAt
}
