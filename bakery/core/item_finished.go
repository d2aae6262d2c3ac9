package core

import (
	"time"
)

const ItemFinishedEventType = "ItemFinished"

// ItemFinished is emitted when an oven has baked one unit. Inventory counts are unchanged by it.
type ItemFinished struct {
	Role       string
	ItemKind   string
	Flavor     int
	Quality    int
	OccurredAt OccurredAt
}

func BuildItemFinished(role Role, kind ItemKind, flavor int, quality int, occurredAt time.Time) ItemFinished {
	return ItemFinished{
		Role:       role.String(),
		ItemKind:   kind.String(),
		Flavor:     flavor,
		Quality:    quality,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e ItemFinished) EventType() string {
	return ItemFinishedEventType
}

func (e ItemFinished) HasOccurredAt() time.Time {
	return e.OccurredAt
}
