package exchange

import (
	"sort"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
)

// BidPref is a bid together with the requester's preference for it.
type BidPref[T sim.Resource] struct {
	Bid  *Bid[T]
	Pref float64
}

// PrefMap holds one requester's preferences, per request, in bid order.
// Adjusters change Pref values in place.
type PrefMap[T sim.Resource] map[*Request[T]][]BidPref[T]

// Context is the state of one exchange round: the posted portfolios, their
// indexes and the preference maps. Ids for requests and bids come from the
// injected generator as portfolios are added.
type Context[T sim.Resource] struct {
	ids *sim.IDGenerator

	requestPorts []*RequestPortfolio[T]
	bidPorts     []*BidPortfolio[T]
	requesters   []Trader[T]
	bidders      []Trader[T]

	registered       map[*Request[T]]bool
	requestsByCommod map[string][]*Request[T]
	bidsByRequest    map[*Request[T]][]*Bid[T]
	prefs            map[int]PrefMap[T]
	numBids          int
}

// NewContext creates an empty context drawing ids from ids.
func NewContext[T sim.Resource](ids *sim.IDGenerator) *Context[T] {
	if ids == nil {
		ids = sim.NewIDGenerator(1)
	}
	return &Context[T]{
		ids:              ids,
		registered:       make(map[*Request[T]]bool),
		requestsByCommod: make(map[string][]*Request[T]),
		bidsByRequest:    make(map[*Request[T]][]*Bid[T]),
		prefs:            make(map[int]PrefMap[T]),
	}
}

// AddRequestPortfolio registers p and assigns ids to its requests. Empty
// portfolios are ignored. Adding a portfolio twice is a StateError.
func (c *Context[T]) AddRequestPortfolio(p *RequestPortfolio[T]) error {
	if p == nil || len(p.requests) == 0 {
		return nil
	}
	for _, r := range p.requests {
		if c.registered[r] {
			return sim.NewStateError("request %d is already part of the exchange", r.id)
		}
	}

	c.requestPorts = append(c.requestPorts, p)
	c.requesters = insertTrader(c.requesters, p.requester)
	for _, r := range p.requests {
		r.id = c.ids.Next()
		c.registered[r] = true
		c.requestsByCommod[r.commodity] = append(c.requestsByCommod[r.commodity], r)
	}
	return nil
}

// AddBidPortfolio registers p and assigns ids to its bids. Every bid must
// answer a request already in the context. Empty portfolios are ignored.
func (c *Context[T]) AddBidPortfolio(p *BidPortfolio[T]) error {
	if p == nil || len(p.bids) == 0 {
		return nil
	}
	for _, b := range p.bids {
		if !c.registered[b.request] {
			return sim.NewStateError("bid from trader %d answers a request that is not part of the exchange",
				b.bidder.ID())
		}
	}

	c.bidPorts = append(c.bidPorts, p)
	c.bidders = insertTrader(c.bidders, p.bidder)
	for _, b := range p.bids {
		b.id = c.ids.Next()
		req := b.request
		c.bidsByRequest[req] = append(c.bidsByRequest[req], b)
		rid := req.requester.ID()
		if c.prefs[rid] == nil {
			c.prefs[rid] = make(PrefMap[T])
		}
		c.prefs[rid][req] = append(c.prefs[rid][req], BidPref[T]{Bid: b, Pref: req.preference})
		c.numBids++
	}
	return nil
}

// RequestPortfolios returns the request portfolios in insertion order.
func (c *Context[T]) RequestPortfolios() []*RequestPortfolio[T] { return c.requestPorts }

// BidPortfolios returns the bid portfolios in insertion order.
func (c *Context[T]) BidPortfolios() []*BidPortfolio[T] { return c.bidPorts }

// Requesters returns the traders with requests, ordered by id.
func (c *Context[T]) Requesters() []Trader[T] { return c.requesters }

// Bidders returns the traders with bids, ordered by id.
func (c *Context[T]) Bidders() []Trader[T] { return c.bidders }

// RequestsForCommod returns the requests for commod in insertion order.
func (c *Context[T]) RequestsForCommod(commod string) []*Request[T] {
	return c.requestsByCommod[commod]
}

// BidsForRequest returns the bids answering r in insertion order.
func (c *Context[T]) BidsForRequest(r *Request[T]) []*Bid[T] {
	return c.bidsByRequest[r]
}

// Commodities returns every requested commodity, sorted.
func (c *Context[T]) Commodities() []string {
	out := make([]string, 0, len(c.requestsByCommod))
	for commod := range c.requestsByCommod {
		out = append(out, commod)
	}
	sort.Strings(out)
	return out
}

// Prefs returns the preference map of the requester with the given id, or
// nil if none of its requests received a bid.
func (c *Context[T]) Prefs(requesterID int) PrefMap[T] {
	return c.prefs[requesterID]
}

// Pref looks up the current preference of bid b.
func (c *Context[T]) Pref(b *Bid[T]) (float64, bool) {
	for _, bp := range c.prefs[b.request.requester.ID()][b.request] {
		if bp.Bid == b {
			return bp.Pref, true
		}
	}
	return 0, false
}

// NumRequests is the number of registered requests.
func (c *Context[T]) NumRequests() int { return len(c.registered) }

// NumBids is the number of registered bids.
func (c *Context[T]) NumBids() int { return c.numBids }

// insertTrader adds t to a slice sorted by id, unless a trader with the same
// id is already present.
func insertTrader[T sim.Resource](ts []Trader[T], t Trader[T]) []Trader[T] {
	i := sort.Search(len(ts), func(i int) bool { return ts[i].ID() >= t.ID() })
	if i < len(ts) && ts[i].ID() == t.ID() {
		return ts
	}
	ts = append(ts, nil)
	copy(ts[i+1:], ts[i:])
	ts[i] = t
	return ts
}
