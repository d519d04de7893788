package testutil

import (
	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/exchange"
)

// Widget is a minimal resource for exchange tests.
type Widget struct {
	WID int
	Qty float64
}

// NewWidget creates a widget.
func NewWidget(id int, qty float64) *Widget {
	return &Widget{WID: id, Qty: qty}
}

func (w *Widget) ID() int           { return w.WID }
func (w *Widget) Quantity() float64 { return w.Qty }
func (w *Widget) Units() string     { return "widgets" }

// FakeTrader is a scriptable exchange.Trader. Nil Requests or Bids hooks
// mean no requests or no bids. Respond must be set on any trader that can
// win a trade as supplier.
type FakeTrader[T sim.Resource] struct {
	TraderID     int
	Proto        string
	ParentEntity exchange.Entity

	Requests func(time int) []*exchange.RequestPortfolio[T]
	Bids     func(ctx *exchange.Context[T], time int) []*exchange.BidPortfolio[T]
	Respond  func(trade exchange.Trade[T]) T

	Supplied []exchange.Trade[T]
	Accepted []exchange.TradeResponse[T]
	// Calls records hook invocations in order, e.g. "populate", "accept".
	Calls []string
}

func (f *FakeTrader[T]) ID() int { return f.TraderID }

func (f *FakeTrader[T]) Prototype() string {
	if f.Proto == "" {
		return "fake"
	}
	return f.Proto
}

func (f *FakeTrader[T]) Parent() exchange.Entity { return f.ParentEntity }

func (f *FakeTrader[T]) GetRequests(time int) []*exchange.RequestPortfolio[T] {
	if f.Requests == nil {
		return nil
	}
	return f.Requests(time)
}

func (f *FakeTrader[T]) GetBids(ctx *exchange.Context[T], time int) []*exchange.BidPortfolio[T] {
	if f.Bids == nil {
		return nil
	}
	return f.Bids(ctx, time)
}

func (f *FakeTrader[T]) PopulateTradeResponses(trades []exchange.Trade[T]) ([]exchange.TradeResponse[T], error) {
	f.Calls = append(f.Calls, "populate")
	f.Supplied = append(f.Supplied, trades...)
	out := make([]exchange.TradeResponse[T], 0, len(trades))
	for _, t := range trades {
		out = append(out, exchange.TradeResponse[T]{Trade: t, Resource: f.Respond(t)})
	}
	return out, nil
}

func (f *FakeTrader[T]) AcceptTrades(responses []exchange.TradeResponse[T]) error {
	f.Calls = append(f.Calls, "accept")
	f.Accepted = append(f.Accepted, responses...)
	return nil
}

// AcceptedQty sums the quantity the trader has received.
func (f *FakeTrader[T]) AcceptedQty() float64 {
	sum := 0.0
	for _, r := range f.Accepted {
		sum += r.Resource.Quantity()
	}
	return sum
}

// NewWidgetTrader creates a FakeTrader of widgets whose responses are fresh
// widgets of exactly the traded amount, numbered from ids.
func NewWidgetTrader(id int, ids *sim.IDGenerator) *FakeTrader[*Widget] {
	return &FakeTrader[*Widget]{
		TraderID: id,
		Respond: func(t exchange.Trade[*Widget]) *Widget {
			return NewWidget(ids.Next(), t.Amount())
		},
	}
}

// Entity is a bare exchange.Entity for building hierarchies in tests.
type Entity struct {
	EntityID     int
	Proto        string
	ParentEntity exchange.Entity
}

func (e *Entity) ID() int                 { return e.EntityID }
func (e *Entity) Prototype() string       { return e.Proto }
func (e *Entity) Parent() exchange.Entity { return e.ParentEntity }
