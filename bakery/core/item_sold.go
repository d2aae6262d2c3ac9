package core

import (
	"time"

	"github.com/google/uuid"
)

const ItemSoldEventType = "ItemSold"

// ItemSold records one committed transaction. Quantity is the fulfilled amount, which is below
// Requested for an accepted partial substitute.
type ItemSold struct {
	CustomerID string
	SellerID   string
	ItemKind   string
	Flavor     int
	Requested  int
	Quantity   int
	UnitPrice  float64
	Amount     float64
	OccurredAt OccurredAt
}

func BuildItemSold(
	customerID uuid.UUID,
	sellerID uuid.UUID,
	kind ItemKind,
	flavor int,
	requested int,
	quantity int,
	unitPrice float64,
	occurredAt time.Time,
) ItemSold {

	return ItemSold{
		CustomerID: customerID.String(),
		SellerID:   sellerID.String(),
		ItemKind:   kind.String(),
		Flavor:     flavor,
		Requested:  requested,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		Amount:     unitPrice * float64(quantity),
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e ItemSold) EventType() string {
	return ItemSoldEventType
}

func (e ItemSold) HasOccurredAt() time.Time {
	return e.OccurredAt
}
