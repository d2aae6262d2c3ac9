package core

import (
	"time"
)

const WorkersReassignedEventType = "WorkersReassigned"

type WorkersReassigned struct {
	FromRole   string
	ToRole     string
	Count      int
	Reason     string
	OccurredAt OccurredAt
}

func BuildWorkersReassigned(from Role, to Role, count int, reason string, occurredAt time.Time) WorkersReassigned {
	return WorkersReassigned{
		FromRole:   from.String(),
		ToRole:     to.String(),
		Count:      count,
		Reason:     reason,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e WorkersReassigned) EventType() string {
	return WorkersReassignedEventType
}

func (e WorkersReassigned) HasOccurredAt() time.Time {
	return e.OccurredAt
}
