package sales

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bakery-simulation/bakery/config"
	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/pause"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/telemetry"
	"github.com/AntonStoeckl/bakery-simulation/bakery/ledger"
)

const (
	replyBufferSize = 16

	logMsgCustomerLeft = "customer left"
	logAttrOutcome     = "outcome"
	logAttrItemKind    = "item_kind"
	logAttrWaited      = "waited"
)

// Order is what a customer came for.
type Order struct {
	Kind     core.ItemKind
	Flavor   int
	Quantity int
}

// RandomOrder picks a sellable kind, one of its flavors and a quantity in the configured purchase range.
func RandomOrder(rng *rand.Rand, l *ledger.Ledger, cfg config.Config) Order {
	kinds := core.SellableItemKinds()
	kind := kinds[rng.Intn(len(kinds))]

	return Order{
		Kind:     kind,
		Flavor:   rng.Intn(l.Flavors(kind)),
		Quantity: cfg.Purchase.Pick(rng),
	}
}

// Customer is one visit: arrive, find a seller, get served, buy, leave.
type Customer struct {
	id       uuid.UUID
	number   int
	order    Order
	ledger   *ledger.Ledger
	cfg      config.Config
	sellers  []*Seller
	rng      *rand.Rand
	observer telemetry.Observer
	replies  chan Reply

	// asked holds sellers that got a StartServing and have not answered yet.
	asked   map[int]bool
	engaged *Seller
	started time.Time
}

// NewCustomer creates a visit. number decides which seller the customer tries first.
func NewCustomer(
	number int,
	order Order,
	l *ledger.Ledger,
	cfg config.Config,
	sellers []*Seller,
	rng *rand.Rand,
	observer telemetry.Observer,
) *Customer {

	return &Customer{
		id:       uuid.New(),
		number:   number,
		order:    order,
		ledger:   l,
		cfg:      cfg,
		sellers:  sellers,
		rng:      rng,
		observer: observer,
		replies:  make(chan Reply, replyBufferSize),
		asked:    make(map[int]bool),
	}
}

func (c *Customer) ID() uuid.UUID {
	return c.id
}

// Run plays the visit to its end. The customer is registered with the ledger for exactly as long as Run
// executes; deregistration happens on every path, including a shutdown signal.
func (c *Customer) Run(ctx context.Context) core.Outcome {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.started = time.Now()

	if err := c.ledger.RegisterCustomer(c.id, cancel); err != nil {
		return core.Interrupted
	}
	defer c.ledger.DeregisterCustomer(c.id)

	ctx, span := c.observer.StartSpan(ctx, telemetry.SpanCustomerVisit, map[string]string{
		telemetry.LabelItemKind: c.order.Kind.String(),
	})

	outcome := c.visit(ctx)
	c.releaseAsked()
	c.finish(ctx, outcome)
	span.Finish(telemetry.StatusOK, map[string]string{telemetry.LabelOutcome: outcome.String()})

	return outcome
}

func (c *Customer) visit(ctx context.Context) core.Outcome {
	if c.flees() {
		return core.Fled
	}

	deadline := c.started.Add(c.cfg.UnitsOf(c.cfg.Patience))

	for passes := 1; c.engaged == nil; passes++ {
		if ctx.Err() != nil {
			return core.Interrupted
		}

		if !time.Now().Before(deadline) {
			c.ledger.RecordFrustrated()
			return core.LeavingFrustrated
		}

		if c.flees() {
			return core.Fled
		}

		if c.seekPass(ctx, deadline) {
			break
		}

		backoff := c.cfg.Timings.PassPause
		if passes%c.cfg.Timings.PassesBeforeLongPause == 0 {
			backoff = c.cfg.Timings.LongPause
		}

		// late answers are still taken up while backing off
		until := time.Now().Add(c.cfg.Units(backoff))
		if until.After(deadline) {
			until = deadline
		}

		c.awaitAnswer(ctx, -1, until)
	}

	return c.awaitService(ctx)
}

// flees rolls the flight probability while a complaint disrupts the shop.
func (c *Customer) flees() bool {
	if !c.ledger.ComplaintActive() || !pause.Chance(c.rng, c.cfg.LeaveOnComplaintProbability) {
		return false
	}

	c.ledger.RecordFled()

	return true
}

// seekPass asks every seller once, starting at the customer's own offset, and reports whether one accepted.
func (c *Customer) seekPass(ctx context.Context, deadline time.Time) bool {
	n := len(c.sellers)
	if n == 0 {
		return false
	}

	for i := range n {
		idx := (c.number + i) % n
		seller := c.sellers[idx]

		if !trySend(seller.Inbox(), Request{Kind: StartServing, CustomerID: c.id, Reply: c.replies}) {
			continue
		}

		c.asked[idx] = true
		waitUntil := time.Now().Add(c.cfg.Units(c.cfg.Timings.AckWait))
		if waitUntil.After(deadline) {
			waitUntil = deadline
		}

		if c.awaitAnswer(ctx, idx, waitUntil) {
			return true
		}

		if ctx.Err() != nil || !time.Now().Before(deadline) {
			return false
		}
	}

	return false
}

// awaitAnswer waits for the answer of one seller. An Ack from any asked seller is taken up.
func (c *Customer) awaitAnswer(ctx context.Context, idx int, until time.Time) bool {
	timer := time.NewTimer(time.Until(until))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return false
		case reply := <-c.replies:
			c.handleStray(reply)
			if c.engaged != nil {
				return true
			}

			if reply.Kind == Reject && reply.SellerIndex == idx {
				return false
			}
		}
	}
}

// handleStray processes an Ack or Reject. The first Ack engages its seller; later ones are released.
func (c *Customer) handleStray(reply Reply) {
	switch reply.Kind {
	case Reject:
		delete(c.asked, reply.SellerIndex)

	case Ack:
		delete(c.asked, reply.SellerIndex)
		seller := c.sellers[reply.SellerIndex]

		if c.engaged == nil {
			c.engaged = seller
			return
		}

		if seller != c.engaged {
			trySend(seller.Inbox(), Request{Kind: CustomerLeft, CustomerID: c.id})
		}
	}
}

// awaitService waits a full patience window for ServiceComplete from the engaged seller, then buys.
func (c *Customer) awaitService(ctx context.Context) core.Outcome {
	timer := time.NewTimer(c.cfg.UnitsOf(c.cfg.Patience))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.leaveEngaged()
			return core.Interrupted

		case <-timer.C:
			c.leaveEngaged()
			c.ledger.RecordFrustrated()

			return core.LeavingFrustrated

		case reply := <-c.replies:
			if reply.Kind == ServiceComplete && reply.SellerIndex == c.engaged.Index() {
				return c.buy(ctx)
			}

			c.handleStray(reply)
		}
	}
}

func (c *Customer) leaveEngaged() {
	trySend(c.engaged.Inbox(), Request{Kind: CustomerLeft, CustomerID: c.id})
}

// releaseAsked tells sellers that never answered that the customer is gone.
func (c *Customer) releaseAsked() {
	for idx := range c.asked {
		if c.engaged != nil && c.sellers[idx] == c.engaged {
			continue
		}

		trySend(c.sellers[idx].Inbox(), Request{Kind: CustomerLeft, CustomerID: c.id})
	}

	clear(c.asked)
}

// buy commits the transaction and hands the seller back in every branch.
func (c *Customer) buy(ctx context.Context) core.Outcome {
	allowPartial := pause.Chance(c.rng, c.cfg.AcceptPartialProbability)
	sale, err := c.ledger.CommitSale(c.order.Kind, c.order.Flavor, c.order.Quantity, allowPartial)

	trySend(c.engaged.Inbox(), Request{Kind: TransactionComplete, CustomerID: c.id})

	if err != nil || sale.Fulfilled == 0 {
		c.ledger.RecordMissing()
		return core.LeavingMissingItems
	}

	c.observer.Count(ctx, telemetry.MetricItemsSold, map[string]string{telemetry.LabelItemKind: c.order.Kind.String()})
	c.observer.Value(ctx, telemetry.MetricRevenue, sale.Amount, map[string]string{telemetry.LabelItemKind: c.order.Kind.String()})
	c.observer.Record(core.BuildItemSold(
		c.id, c.engaged.ID(), c.order.Kind, c.order.Flavor, c.order.Quantity, sale.Fulfilled, sale.UnitPrice, time.Now(),
	))

	if !pause.Chance(c.rng, c.cfg.ComplaintProbability) {
		return core.LeavingSatisfied
	}

	c.ledger.RecordRefund(sale.Amount)
	c.ledger.RaiseComplaint(ctx, c.cfg.Units(c.cfg.Timings.ComplaintClear))
	c.observer.Record(core.BuildCustomerComplained(c.id, c.order.Kind, c.order.Flavor, sale.Amount, time.Now()))

	return core.Complaining
}

func (c *Customer) finish(ctx context.Context, outcome core.Outcome) {
	waited := time.Since(c.started)

	c.observer.Debug(ctx, logMsgCustomerLeft,
		logAttrCustomer, c.id.String(),
		logAttrOutcome, outcome.String(),
		logAttrItemKind, c.order.Kind.String(),
		logAttrWaited, waited.String(),
	)
	c.observer.Count(ctx, telemetry.MetricCustomerOutcomes, map[string]string{telemetry.LabelOutcome: outcome.String()})
	c.observer.Duration(ctx, telemetry.MetricCustomerWait, waited, nil)
	c.observer.Record(core.BuildCustomerLeft(
		c.id, outcome, c.order.Kind, c.order.Flavor, c.order.Quantity, waited, time.Now(),
	))
}
