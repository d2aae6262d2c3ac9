package core

import (
	"time"
)

const SupplyPurchasedEventType = "SupplyPurchased"

type SupplyPurchased struct {
	SupplyKind string
	Amount     int
	Urgent     bool
	OccurredAt OccurredAt
}

func BuildSupplyPurchased(kind SupplyKind, amount int, urgent bool, occurredAt time.Time) SupplyPurchased {
	return SupplyPurchased{
		SupplyKind: kind.String(),
		Amount:     amount,
		Urgent:     urgent,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e SupplyPurchased) EventType() string {
	return SupplyPurchasedEventType
}

func (e SupplyPurchased) HasOccurredAt() time.Time {
	return e.OccurredAt
}
