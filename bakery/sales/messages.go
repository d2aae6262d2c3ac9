package sales

import (
	"github.com/google/uuid"
)

// MessageKind tags the requests and replies of the seller protocol.
type MessageKind int

const (
	StartServing MessageKind = iota
	Ack
	Reject
	ServiceComplete
	TransactionComplete
	CustomerLeft
)

func (k MessageKind) String() string {
	switch k {
	case StartServing:
		return "start_serving"
	case Ack:
		return "ack"
	case Reject:
		return "reject"
	case ServiceComplete:
		return "service_complete"
	case TransactionComplete:
		return "transaction_complete"
	case CustomerLeft:
		return "customer_left"
	default:
		return "unknown"
	}
}

// Request goes from a customer to a seller's inbox.
type Request struct {
	Kind       MessageKind
	CustomerID uuid.UUID
	Reply      chan<- Reply
}

// Reply goes from a seller to a customer's reply channel.
type Reply struct {
	Kind        MessageKind
	SellerIndex int
	SellerID    uuid.UUID
}

// trySend delivers without blocking and reports whether the message was accepted.
func trySend[T any](ch chan<- T, msg T) bool {
	if ch == nil {
		return false
	}

	select {
	case ch <- msg:
		return true
	default:
		return false
	}
}
