package agents

import (
	"github.com/sirupsen/logrus"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/exchange"
)

// Stock is a resource that can be split and merged. Sources keep their
// inventory as one Stock and cut deliveries from it.
type Stock[T any] interface {
	sim.Resource
	Extract(ids *sim.IDGenerator, qty float64) (T, error)
	Absorb(other T) error
}

// Factory creates a fresh resource of the given quantity.
type Factory[T sim.Resource] func(qty float64) T

// SourceConfig parameterizes a Source.
type SourceConfig struct {
	Commodity  string
	Throughput float64 // produced per step
	Inventory  float64 // stock ceiling; 0 means unbounded
}

// Source produces a commodity every step and offers its stock to every
// request for that commodity. The stock bounds the bid portfolio's capacity,
// so a source never promises more than it holds.
type Source[T Stock[T]] struct {
	Base
	cfg     SourceConfig
	factory Factory[T]
	ids     *sim.IDGenerator
	stock   T
	sent    float64
}

// NewSource creates an empty source. factory builds produced batches and bid
// offers; ids numbers the resources cut from stock.
func NewSource[T Stock[T]](base Base, cfg SourceConfig, factory Factory[T], ids *sim.IDGenerator) *Source[T] {
	return &Source[T]{Base: base, cfg: cfg, factory: factory, ids: ids, stock: factory(0)}
}

// Tick produces one step's throughput into stock.
func (s *Source[T]) Tick(time int) error {
	qty := s.cfg.Throughput
	if s.cfg.Inventory > 0 {
		qty = min(qty, s.cfg.Inventory-s.stock.Quantity())
	}
	if qty <= sim.Eps {
		return nil
	}
	if err := s.stock.Absorb(s.factory(qty)); err != nil {
		return err
	}
	logrus.Debugf("t=%d source %s produced %g %s of %s", time, s.prototype, qty, s.stock.Units(), s.cfg.Commodity)
	return nil
}

func (s *Source[T]) GetRequests(int) []*exchange.RequestPortfolio[T] { return nil }

// GetBids offers stock on every request for the source's commodity. Exclusive
// requests larger than the stock get no bid.
func (s *Source[T]) GetBids(ctx *exchange.Context[T], time int) []*exchange.BidPortfolio[T] {
	avail := s.stock.Quantity()
	if avail <= sim.Eps {
		return nil
	}
	p := exchange.NewBidPortfolio[T]()
	for _, r := range ctx.RequestsForCommod(s.cfg.Commodity) {
		if r.Requester().ID() == s.id {
			continue
		}
		want := r.Target().Quantity()
		if r.Exclusive() && sim.IsNegative(avail-want) {
			continue
		}
		if _, err := p.AddBid(r, s.factory(min(want, avail)), s, false); err != nil {
			logrus.Warnf("t=%d source %s: %v", time, s.prototype, err)
			continue
		}
	}
	if len(p.Bids()) == 0 {
		return nil
	}
	p.AddConstraint(exchange.NewCapacityConstraint[T](avail, nil))
	return []*exchange.BidPortfolio[T]{p}
}

// PopulateTradeResponses cuts one resource per trade from stock.
func (s *Source[T]) PopulateTradeResponses(trades []exchange.Trade[T]) ([]exchange.TradeResponse[T], error) {
	out := make([]exchange.TradeResponse[T], 0, len(trades))
	for _, t := range trades {
		r, err := s.stock.Extract(s.ids, t.Amount())
		if err != nil {
			return nil, err
		}
		s.sent += t.Amount()
		out = append(out, exchange.TradeResponse[T]{Trade: t, Resource: r})
	}
	return out, nil
}

// AcceptTrades is never called on a source since it posts no requests.
func (s *Source[T]) AcceptTrades(responses []exchange.TradeResponse[T]) error {
	if len(responses) > 0 {
		return sim.NewStateError("source %d received %d unrequested resources", s.id, len(responses))
	}
	return nil
}

// Stock returns the quantity held.
func (s *Source[T]) Stock() float64 { return s.stock.Quantity() }

// Sent returns the quantity delivered so far.
func (s *Source[T]) Sent() float64 { return s.sent }

// Commodity returns the commodity produced.
func (s *Source[T]) Commodity() string { return s.cfg.Commodity }
