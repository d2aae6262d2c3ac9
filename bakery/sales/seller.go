package sales

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bakery-simulation/bakery/config"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/telemetry"
	"github.com/AntonStoeckl/bakery-simulation/bakery/ledger"
)

const (
	inboxSize = 64

	logMsgSellerReset   = "seller reset after the customer went silent"
	logMsgPoolExhausted = "seller started serving with no available seller left in the pool"
	logAttrSeller       = "seller"
	logAttrCustomer     = "customer"
)

// SellerState is what a seller is doing right now.
type SellerState int

const (
	Idle SellerState = iota
	Serving
	OnBreak
)

func (s SellerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Serving:
		return "serving"
	case OnBreak:
		return "on_break"
	default:
		return "unknown"
	}
}

// Seller serves one customer at a time. Only its own goroutine changes the serving fields.
type Seller struct {
	id       uuid.UUID
	index    int
	inbox    chan Request
	ledger   *ledger.Ledger
	cfg      config.Config
	rng      *rand.Rand
	observer telemetry.Observer

	current      uuid.UUID
	currentReply chan<- Reply
	servingSince time.Time
	serviceTimer *time.Timer
	stuckTimer   *time.Timer
	holdsSlot    bool

	mu     sync.Mutex
	state  SellerState
	served int
}

// NewSeller creates an idle seller. Run starts it.
func NewSeller(index int, l *ledger.Ledger, cfg config.Config, rng *rand.Rand, observer telemetry.Observer) *Seller {
	return &Seller{
		id:       uuid.New(),
		index:    index,
		inbox:    make(chan Request, inboxSize),
		ledger:   l,
		cfg:      cfg,
		rng:      rng,
		observer: observer,
	}
}

// ID identifies the seller in replies and journal events.
func (s *Seller) ID() uuid.UUID {
	return s.id
}

// Index is the seller's position in the shop.
func (s *Seller) Index() int {
	return s.index
}

// Inbox is where customers address their requests.
func (s *Seller) Inbox() chan<- Request {
	return s.inbox
}

// State is safe to read from any goroutine.
func (s *Seller) State() SellerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Served is the number of completed transactions.
func (s *Seller) Served() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.served
}

// Run handles requests until ctx is done. A seller still serving then goes on break and hands its
// availability back.
func (s *Seller) Run(ctx context.Context) {
	defer s.goOnBreak()

	for {
		select {
		case <-ctx.Done():
			return

		case req := <-s.inbox:
			s.handle(ctx, req)

		case <-timerC(s.serviceTimer):
			s.serviceTimer = nil
			trySend(s.currentReply, Reply{Kind: ServiceComplete, SellerIndex: s.index, SellerID: s.id})
			s.observer.Duration(ctx, telemetry.MetricServiceDuration, time.Since(s.servingSince), nil)

		case <-timerC(s.stuckTimer):
			s.stuckTimer = nil
			s.observer.Warn(ctx, logMsgSellerReset, logAttrSeller, s.index, logAttrCustomer, s.current.String())
			s.observer.Count(ctx, telemetry.MetricSellerResets, nil)
			s.becomeIdle(false)
		}
	}
}

func (s *Seller) handle(ctx context.Context, req Request) {
	switch req.Kind {
	case StartServing:
		if s.State() != Idle {
			trySend(req.Reply, Reply{Kind: Reject, SellerIndex: s.index, SellerID: s.id})
			s.observer.Count(ctx, telemetry.MetricSellerRejections, nil)

			return
		}

		s.startServing(ctx, req)

	case TransactionComplete:
		if s.State() == Serving && req.CustomerID == s.current {
			s.becomeIdle(true)
		}

	case CustomerLeft:
		if s.State() == Serving && req.CustomerID == s.current {
			s.becomeIdle(false)
		}
	}
}

func (s *Seller) startServing(ctx context.Context, req Request) {
	s.holdsSlot = s.ledger.MarkSellerBusy()
	if !s.holdsSlot {
		s.observer.Warn(ctx, logMsgPoolExhausted, logAttrSeller, s.index, logAttrCustomer, req.CustomerID.String())
	}

	s.mu.Lock()
	s.state = Serving
	s.mu.Unlock()

	s.current = req.CustomerID
	s.currentReply = req.Reply
	s.servingSince = time.Now()

	trySend(req.Reply, Reply{Kind: Ack, SellerIndex: s.index, SellerID: s.id})

	s.serviceTimer = time.NewTimer(s.cfg.UnitsOf(s.cfg.Timings.ServiceTime.Pick(s.rng)))
	s.stuckTimer = time.NewTimer(s.cfg.Units(s.cfg.Timings.SellerStuckTimeout))
}

func (s *Seller) becomeIdle(completed bool) {
	stopTimer(s.serviceTimer)
	stopTimer(s.stuckTimer)
	s.serviceTimer, s.stuckTimer = nil, nil
	s.current, s.currentReply = uuid.Nil, nil

	s.mu.Lock()
	s.state = Idle
	if completed {
		s.served++
	}
	s.mu.Unlock()

	if s.holdsSlot {
		s.holdsSlot = false
		s.ledger.MarkSellerIdle()
	}
}

func (s *Seller) goOnBreak() {
	if s.State() == Serving {
		s.becomeIdle(false)
	}

	s.mu.Lock()
	s.state = OnBreak
	s.mu.Unlock()
}

// timerC returns the timer's channel, or nil (never ready) for no timer.
func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}

	return t.C
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
