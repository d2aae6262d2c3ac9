package core

// Outcome is the terminal state of a customer visit.
type Outcome int

const (
	LeavingSatisfied Outcome = iota
	LeavingFrustrated
	Complaining
	LeavingMissingItems
	// Fled is the abandonment after seeing an active complaint. It is not counted as frustration.
	Fled
	// Interrupted is a visit cut short by shutdown. It counts toward nothing.
	Interrupted
)

func (o Outcome) String() string {
	switch o {
	case LeavingSatisfied:
		return "satisfied"
	case LeavingFrustrated:
		return "frustrated"
	case Complaining:
		return "complaining"
	case LeavingMissingItems:
		return "missing_items"
	case Fled:
		return "fled"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// StopReason names the condition that ended a run.
type StopReason string

const (
	StopNone               StopReason = ""
	StopMaxComplaints      StopReason = "max_complaints"
	StopMaxFrustrated      StopReason = "max_frustrated_customers"
	StopMaxMissingRequests StopReason = "max_missing_items_requests"
	StopProfitReached      StopReason = "profit_threshold"
	StopTimeElapsed        StopReason = "time_elapsed"
	StopCanceled           StopReason = "canceled"
)
