package core

import (
	"time"

	"github.com/google/uuid"
)

const CustomerComplainedEventType = "CustomerComplained"

// CustomerComplained records a refund. RefundedAmount equals the Amount of the preceding ItemSold.
type CustomerComplained struct {
	CustomerID     string
	ItemKind       string
	Flavor         int
	RefundedAmount float64
	OccurredAt     OccurredAt
}

func BuildCustomerComplained(
	customerID uuid.UUID,
	kind ItemKind,
	flavor int,
	refundedAmount float64,
	occurredAt time.Time,
) CustomerComplained {

	return CustomerComplained{
		CustomerID:     customerID.String(),
		ItemKind:       kind.String(),
		Flavor:         flavor,
		RefundedAmount: refundedAmount,
		OccurredAt:     ToOccurredAt(occurredAt),
	}
}

func (e CustomerComplained) EventType() string {
	return CustomerComplainedEventType
}

func (e CustomerComplained) HasOccurredAt() time.Time {
	return e.OccurredAt
}
