package core

import (
	"time"
)

const ItemProducedEventType = "ItemProduced"

type ItemProduced struct {
	Role       string
	ItemKind   string
	Flavor     int
	Quality    int
	OccurredAt OccurredAt
}

func BuildItemProduced(role Role, kind ItemKind, flavor int, quality int, occurredAt time.Time) ItemProduced {
	return ItemProduced{
		Role:       role.String(),
		ItemKind:   kind.String(),
		Flavor:     flavor,
		Quality:    quality,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e ItemProduced) EventType() string {
	return ItemProducedEventType
}

func (e ItemProduced) HasOccurredAt() time.Time {
	return e.OccurredAt
}
