package config

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Range is an inclusive integer interval.
type Range struct {
	Min int
	Max int
}

// Pick returns a uniform value in [Min, Max].
func (r Range) Pick(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}

	return r.Min + rng.Intn(r.Max-r.Min+1)
}

func (r Range) valid() bool {
	return r.Min >= 0 && r.Min <= r.Max
}

// Timings are the protocol and scheduling constants, all in time units.
type Timings struct {
	AckWait               float64
	PassPause             float64
	LongPause             float64
	PassesBeforeLongPause int
	ServiceTime           Range
	ComplaintClear        float64
	ControlInterval       float64
	RetryPause            float64
	RestockCycle          Range
	CriticalSupply        int
	UrgentPurchase        Range
	SellerStuckTimeout    float64
}

// Config is read once and never modified while a simulation runs.
type Config struct {
	Flavors [core.NumItemKinds]int
	Prices  [core.NumItemKinds][]float64

	Chefs      int
	Bakers     int
	Sellers    int
	Restockers int

	SupplyMin [core.NumSupplyKinds]int
	SupplyMax [core.NumSupplyKinds]int

	MaxComplaints      int
	MaxFrustrated      int
	MaxMissingRequests int
	ProfitThreshold    float64
	SimulationMinutes  int

	ChefTime         Range
	BakerTime        Range
	Arrival          Range
	Batch            Range
	Purchase         Range
	Patience         int
	QualityThreshold int

	ComplaintProbability        float64
	LeaveOnComplaintProbability float64
	AcceptPartialProbability    float64

	MaxLiveCustomers int
	TimeUnit         time.Duration
	Timings          Timings
}

var defaultPrices = [core.NumItemKinds]float64{
	core.Bread:            2.50,
	core.Cake:             15.00,
	core.Sandwich:         5.00,
	core.Sweets:           3.50,
	core.SweetPatisserie:  4.50,
	core.SavoryPatisserie: 4.00,
	core.Paste:            1.00,
}

// DefaultPrice returns the unit price every flavor of a kind has unless configured otherwise.
func DefaultPrice(kind core.ItemKind) float64 {
	return defaultPrices[kind]
}

// Default returns the stock bakery.
func Default() Config {
	cfg := Config{
		Chefs:      10,
		Bakers:     8,
		Sellers:    3,
		Restockers: 2,

		MaxComplaints:      10,
		MaxFrustrated:      15,
		MaxMissingRequests: 20,
		ProfitThreshold:    5000,
		SimulationMinutes:  30,

		ChefTime:         Range{Min: 2, Max: 10},
		BakerTime:        Range{Min: 5, Max: 15},
		Arrival:          Range{Min: 5, Max: 20},
		Batch:            Range{Min: 1, Max: 1},
		Purchase:         Range{Min: 1, Max: 3},
		Patience:         60,
		QualityThreshold: 70,

		ComplaintProbability:        0.2,
		LeaveOnComplaintProbability: 0.5,
		AcceptPartialProbability:    0.5,

		MaxLiveCustomers: 100,
		TimeUnit:         time.Second,
		Timings:          DefaultTimings(),
	}

	cfg.Flavors[core.Bread] = 3
	cfg.Flavors[core.Cake] = 4
	cfg.Flavors[core.Sandwich] = 5
	cfg.Flavors[core.Sweets] = 6
	cfg.Flavors[core.SweetPatisserie] = 4
	cfg.Flavors[core.SavoryPatisserie] = 3
	cfg.Flavors[core.Paste] = 1

	for i := range cfg.SupplyMin {
		cfg.SupplyMin[i] = 10
		cfg.SupplyMax[i] = 50
	}

	cfg.normalizePrices()

	return cfg
}

// DefaultTimings returns the protocol constants used by Default.
func DefaultTimings() Timings {
	return Timings{
		AckWait:               2,
		PassPause:             0.5,
		LongPause:             1,
		PassesBeforeLongPause: 3,
		ServiceTime:           Range{Min: 1, Max: 3},
		ComplaintClear:        2,
		ControlInterval:       5,
		RetryPause:            1,
		RestockCycle:          Range{Min: 1, Max: 10},
		CriticalSupply:        5,
		UrgentPurchase:        Range{Min: 10, Max: 50},
		SellerStuckTimeout:    60,
	}
}

// Units converts an amount of time units into a duration.
func (c Config) Units(u float64) time.Duration {
	return time.Duration(u * float64(c.TimeUnit))
}

// UnitsOf converts an integer amount of time units into a duration.
func (c Config) UnitsOf(u int) time.Duration {
	return time.Duration(u) * c.TimeUnit
}

// Duration is the wall-clock limit of a run.
func (c Config) Duration() time.Duration {
	return c.UnitsOf(c.SimulationMinutes * 60)
}

// PriceOf returns the unit price of one flavor, falling back to the kind's default for unknown flavors.
func (c Config) PriceOf(kind core.ItemKind, flavor int) float64 {
	prices := c.Prices[kind]
	if flavor < 0 || flavor >= len(prices) {
		return DefaultPrice(kind)
	}

	return prices[flavor]
}

// normalizePrices sizes every price list to its kind's flavor count, keeping configured values.
func (c *Config) normalizePrices() {
	for k := range c.Prices {
		n := max(c.Flavors[k], 0)
		prices := make([]float64, n)

		for f := range prices {
			if f < len(c.Prices[k]) && c.Prices[k][f] > 0 {
				prices[f] = c.Prices[k][f]
				continue
			}

			prices[f] = defaultPrices[k]
		}

		c.Prices[k] = prices
	}
}

// Validate reports every setup problem joined into one error.
func (c Config) Validate() error {
	var errs []error

	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	for _, k := range core.ItemKinds() {
		if c.Flavors[k] < 1 {
			fail("%s needs at least one flavor", k)
		}
	}

	if c.Chefs < len(core.ProductionRoles()) {
		fail("num_chefs must be at least %d", len(core.ProductionRoles()))
	}

	if c.Bakers < len(core.FinishingRoles()) {
		fail("num_bakers must be at least %d", len(core.FinishingRoles()))
	}

	if c.Sellers < 1 {
		fail("num_sellers must be positive")
	}

	if c.Restockers < 1 {
		fail("num_supply_chain must be positive")
	}

	for i := range c.SupplyMin {
		if c.SupplyMin[i] < 0 || c.SupplyMin[i] > c.SupplyMax[i] {
			fail("supply band of %s is inverted", core.SupplyKind(i))
		}
	}

	ranges := map[string]Range{
		"chef_production_time": c.ChefTime,
		"baker_time":           c.BakerTime,
		"customer_arrival":     c.Arrival,
		"customer_batch":       c.Batch,
		"purchase_quantity":    c.Purchase,
	}

	for name, r := range ranges {
		if !r.valid() {
			fail("%s range [%d, %d] is invalid", name, r.Min, r.Max)
		}
	}

	if c.Purchase.Min < 1 {
		fail("purchase_quantity_min must be positive")
	}

	if c.Batch.Min < 1 {
		fail("customer_batch_min must be positive")
	}

	probabilities := map[string]float64{
		"complaint_probability":          c.ComplaintProbability,
		"leave_on_complaint_probability": c.LeaveOnComplaintProbability,
		"accept_partial_probability":     c.AcceptPartialProbability,
	}

	for name, p := range probabilities {
		if p < 0 || p > 1 {
			fail("%s %v is outside [0, 1]", name, p)
		}
	}

	if c.Patience <= 0 {
		fail("customer_patience must be positive")
	}

	if c.MaxLiveCustomers < 1 {
		fail("max_live_customers must be positive")
	}

	if c.TimeUnit <= 0 {
		fail("time unit must be positive")
	}

	if c.SimulationMinutes <= 0 {
		fail("simulation_time_minutes must be positive")
	}

	if c.Timings.AckWait <= 0 || c.Timings.ControlInterval <= 0 || c.Timings.PassesBeforeLongPause < 1 {
		fail("protocol timings must be positive")
	}

	if c.Timings.SellerStuckTimeout <= float64(c.Timings.ServiceTime.Max) {
		fail("seller stuck timeout %v must exceed the longest service time %d", c.Timings.SellerStuckTimeout, c.Timings.ServiceTime.Max)
	}

	if len(errs) == 0 {
		return nil
	}

	return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
}
