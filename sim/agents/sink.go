package agents

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/exchange"
)

// SinkConfig parameterizes a Sink.
type SinkConfig struct {
	Commodity  string
	Preference float64
	Throughput float64 // requested per step
	Capacity   float64 // lifetime ceiling; 0 means unbounded
	BatchSize  float64 // > 0 splits demand into exclusive batches
}

// Sink requests one commodity every step and keeps what it receives.
type Sink[T sim.Resource] struct {
	Base
	cfg       SinkConfig
	factory   Factory[T]
	inventory []T
	received  float64
}

// NewSink creates an empty sink. factory builds request targets.
func NewSink[T sim.Resource](base Base, cfg SinkConfig, factory Factory[T]) *Sink[T] {
	if cfg.Preference == 0 {
		cfg.Preference = 1
	}
	return &Sink[T]{Base: base, cfg: cfg, factory: factory}
}

// Demand is what the sink asks for this step.
func (s *Sink[T]) Demand() float64 {
	d := s.cfg.Throughput
	if s.cfg.Capacity > 0 {
		d = min(d, s.cfg.Capacity-s.received)
	}
	return max(0, d)
}

// GetRequests posts one portfolio for the step's demand. With a batch size
// the demand becomes whole exclusive batches; a remainder smaller than a
// batch is not requested.
func (s *Sink[T]) GetRequests(time int) []*exchange.RequestPortfolio[T] {
	demand := s.Demand()
	if demand <= sim.Eps {
		return nil
	}
	p := exchange.NewRequestPortfolio[T]()
	add := func(qty float64, exclusive bool) bool {
		if _, err := p.AddRequest(s.factory(qty), s, s.cfg.Commodity, s.cfg.Preference, exclusive); err != nil {
			logrus.Warnf("t=%d sink %s: %v", time, s.prototype, err)
			return false
		}
		return true
	}
	if s.cfg.BatchSize > 0 {
		n := int(math.Floor((demand + sim.Eps) / s.cfg.BatchSize))
		for i := 0; i < n; i++ {
			if !add(s.cfg.BatchSize, true) {
				return nil
			}
		}
	} else if !add(demand, false) {
		return nil
	}
	if len(p.Requests()) == 0 {
		return nil
	}
	return []*exchange.RequestPortfolio[T]{p}
}

func (s *Sink[T]) GetBids(*exchange.Context[T], int) []*exchange.BidPortfolio[T] { return nil }

// PopulateTradeResponses is never called on a sink since it posts no bids.
func (s *Sink[T]) PopulateTradeResponses(trades []exchange.Trade[T]) ([]exchange.TradeResponse[T], error) {
	if len(trades) > 0 {
		return nil, sim.NewStateError("sink %d asked to supply %d trades", s.id, len(trades))
	}
	return nil, nil
}

// AcceptTrades stores every delivered resource.
func (s *Sink[T]) AcceptTrades(responses []exchange.TradeResponse[T]) error {
	for _, r := range responses {
		s.inventory = append(s.inventory, r.Resource)
		s.received += r.Resource.Quantity()
	}
	return nil
}

// Received returns the total quantity taken in.
func (s *Sink[T]) Received() float64 { return s.received }

// Inventory returns the resources held, in delivery order.
func (s *Sink[T]) Inventory() []T { return s.inventory }

// Commodity returns the commodity requested.
func (s *Sink[T]) Commodity() string { return s.cfg.Commodity }
