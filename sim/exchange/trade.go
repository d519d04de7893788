package exchange

import "github.com/fuelcycle-sim/fuelcycle-sim/sim"

// Trade is a solved pairing of a request and a bid. It is read-only.
type Trade[T sim.Resource] struct {
	request *Request[T]
	bid     *Bid[T]
	amount  float64
}

// NewTrade creates a trade. Solvers produce trades through the translator;
// this constructor serves traders and tests that need one directly.
func NewTrade[T sim.Resource](request *Request[T], bid *Bid[T], amount float64) Trade[T] {
	return Trade[T]{request: request, bid: bid, amount: amount}
}

func (t Trade[T]) Request() *Request[T] { return t.request }
func (t Trade[T]) Bid() *Bid[T]         { return t.bid }
func (t Trade[T]) Amount() float64      { return t.amount }

// TradeResponse is the resource a supplier hands over for a trade.
type TradeResponse[T sim.Resource] struct {
	Trade    Trade[T]
	Resource T
}
