package exchange

import "github.com/fuelcycle-sim/fuelcycle-sim/sim"

// Entity is a node of the agent hierarchy. Parent returns nil at the root;
// implementations must return an untyped nil, not a nil pointer.
type Entity interface {
	ID() int
	Prototype() string
	Parent() Entity
}

// Trader participates in exchanges of resource type T.
type Trader[T sim.Resource] interface {
	Entity

	// GetRequests returns the trader's request portfolios for this round.
	GetRequests(time int) []*RequestPortfolio[T]
	// GetBids returns bid portfolios answering requests found in ctx.
	GetBids(ctx *Context[T], time int) []*BidPortfolio[T]
	// PopulateTradeResponses supplies one resource per trade. Each resource
	// must carry exactly the trade amount.
	PopulateTradeResponses(trades []Trade[T]) ([]TradeResponse[T], error)
	// AcceptTrades takes delivery of resources the trader requested.
	AcceptTrades(responses []TradeResponse[T]) error
}
