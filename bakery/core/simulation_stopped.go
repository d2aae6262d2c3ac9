package core

import (
	"time"
)

const SimulationStoppedEventType = "SimulationStopped"

type SimulationStopped struct {
	Reason         string
	Profit         float64
	Complaints     int
	Frustrated     int
	MissingItems   int
	CustomersSeen  int
	ElapsedSeconds float64
	OccurredAt     OccurredAt
}

func BuildSimulationStopped(
	reason StopReason,
	profit float64,
	complaints int,
	frustrated int,
	missingItems int,
	customersSeen int,
	elapsed time.Duration,
	occurredAt time.Time,
) SimulationStopped {

	return SimulationStopped{
		Reason:         string(reason),
		Profit:         profit,
		Complaints:     complaints,
		Frustrated:     frustrated,
		MissingItems:   missingItems,
		CustomersSeen:  customersSeen,
		ElapsedSeconds: elapsed.Seconds(),
		OccurredAt:     ToOccurredAt(occurredAt),
	}
}

func (e SimulationStopped) EventType() string {
	return SimulationStoppedEventType
}

func (e SimulationStopped) HasOccurredAt() time.Time {
	return e.OccurredAt
}
