package exchange

import (
	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
)

// RequestPortfolio bundles requests from one requester for one commodity
// together with the constraints they share. Its quantity is the demand the
// solvers try to meet.
type RequestPortfolio[T sim.Resource] struct {
	requester   Trader[T]
	commodity   string
	requests    []*Request[T]
	coeffs      map[*Request[T]]float64
	mutual      [][]*Request[T]
	constraints []CapacityConstraint[T]
	ids         *sim.IDGenerator
	qty         float64
}

// NewRequestPortfolio creates an empty request portfolio.
func NewRequestPortfolio[T sim.Resource]() *RequestPortfolio[T] {
	return &RequestPortfolio[T]{coeffs: make(map[*Request[T]]float64), ids: sim.NewIDGenerator(0)}
}

// AddRequest adds a request for target. The first request fixes the
// portfolio's requester and commodity; a later mismatch is a StateError and
// leaves the portfolio unchanged.
func (p *RequestPortfolio[T]) AddRequest(target T, requester Trader[T], commodity string, preference float64, exclusive bool) (*Request[T], error) {
	if requester == nil {
		return nil, sim.NewStateError("request for %s has no requester", commodity)
	}
	if p.requester != nil && p.requester.ID() != requester.ID() {
		return nil, sim.NewStateError("insertion error: requester %d does not match portfolio requester %d",
			requester.ID(), p.requester.ID())
	}
	if len(p.requests) > 0 && p.commodity != commodity {
		return nil, sim.NewStateError("insertion error: commodity %q does not match portfolio commodity %q",
			commodity, p.commodity)
	}

	r := &Request[T]{
		target:     target,
		requester:  requester,
		commodity:  commodity,
		preference: preference,
		exclusive:  exclusive,
		portfolio:  p,
	}
	p.requester = requester
	p.commodity = commodity
	p.requests = append(p.requests, r)
	p.coeffs[r] = 1
	p.qty += target.Quantity()
	return r, nil
}

// AddMutualReqs declares that only one of rs needs to be met. The
// portfolio's demand counts the group once, at its average quantity, and each
// member's default coefficient becomes its quantity over that average.
// Exclusive members also become a mutually exclusive grouping.
func (p *RequestPortfolio[T]) AddMutualReqs(rs []*Request[T]) error {
	if len(rs) == 0 {
		return nil
	}
	sum := 0.0
	for _, r := range rs {
		if r.portfolio != p {
			return sim.NewStateError("mutual request %d does not belong to this portfolio", r.id)
		}
		sum += r.target.Quantity()
	}
	avg := sum / float64(len(rs))
	if avg <= 0 {
		return sim.NewStateError("mutual requests have no quantity")
	}
	for _, r := range rs {
		p.coeffs[r] = r.target.Quantity() / avg
	}
	p.qty += avg - sum
	p.mutual = append(p.mutual, append([]*Request[T](nil), rs...))
	return nil
}

// AddConstraint adds c unless an equal constraint is already present. It
// reports whether c was added.
func (p *RequestPortfolio[T]) AddConstraint(c CapacityConstraint[T]) bool {
	var added bool
	p.constraints, added = addConstraint(p.constraints, p.ids, c)
	return added
}

// DefaultConstraint is the portfolio's mass constraint: capacity equal to
// its quantity, charged through the per-request coefficients.
func (p *RequestPortfolio[T]) DefaultConstraint() CapacityConstraint[T] {
	return NewCapacityConstraint[T](p.qty, NewDefaultCoeffConverter(p.coeffs))
}

func (p *RequestPortfolio[T]) Requester() Trader[T]    { return p.requester }
func (p *RequestPortfolio[T]) Commodity() string       { return p.commodity }
func (p *RequestPortfolio[T]) Requests() []*Request[T] { return p.requests }
func (p *RequestPortfolio[T]) Qty() float64            { return p.qty }

// Constraints returns the declared constraints in insertion order. The
// default constraint is not included.
func (p *RequestPortfolio[T]) Constraints() []CapacityConstraint[T] { return p.constraints }

// MutualGroups returns the groups declared with AddMutualReqs.
func (p *RequestPortfolio[T]) MutualGroups() [][]*Request[T] { return p.mutual }

// BidPortfolio bundles bids from one bidder for one commodity together with
// the constraints they share.
type BidPortfolio[T sim.Resource] struct {
	bidder      Trader[T]
	commodity   string
	bids        []*Bid[T]
	constraints []CapacityConstraint[T]
	ids         *sim.IDGenerator
}

// NewBidPortfolio creates an empty bid portfolio.
func NewBidPortfolio[T sim.Resource]() *BidPortfolio[T] {
	return &BidPortfolio[T]{ids: sim.NewIDGenerator(0)}
}

// AddBid offers offer against request. The first bid fixes the portfolio's
// bidder and commodity; a later mismatch is a StateError and leaves the
// portfolio unchanged.
func (p *BidPortfolio[T]) AddBid(request *Request[T], offer T, bidder Trader[T], exclusive bool) (*Bid[T], error) {
	if request == nil {
		return nil, sim.NewStateError("bid has no request")
	}
	if bidder == nil {
		return nil, sim.NewStateError("bid on request %d has no bidder", request.id)
	}
	if p.bidder != nil && p.bidder.ID() != bidder.ID() {
		return nil, sim.NewStateError("insertion error: bidder %d does not match portfolio bidder %d",
			bidder.ID(), p.bidder.ID())
	}
	if len(p.bids) > 0 && p.commodity != request.commodity {
		return nil, sim.NewStateError("insertion error: commodity %q does not match portfolio commodity %q",
			request.commodity, p.commodity)
	}

	b := &Bid[T]{
		request:   request,
		offer:     offer,
		bidder:    bidder,
		exclusive: exclusive,
		portfolio: p,
	}
	p.bidder = bidder
	p.commodity = request.commodity
	p.bids = append(p.bids, b)
	return b, nil
}

// AddConstraint adds c unless an equal constraint is already present. It
// reports whether c was added.
func (p *BidPortfolio[T]) AddConstraint(c CapacityConstraint[T]) bool {
	var added bool
	p.constraints, added = addConstraint(p.constraints, p.ids, c)
	return added
}

func (p *BidPortfolio[T]) Bidder() Trader[T]                    { return p.bidder }
func (p *BidPortfolio[T]) Commodity() string                    { return p.commodity }
func (p *BidPortfolio[T]) Bids() []*Bid[T]                      { return p.bids }
func (p *BidPortfolio[T]) Constraints() []CapacityConstraint[T] { return p.constraints }

func addConstraint[T sim.Resource](cs []CapacityConstraint[T], ids *sim.IDGenerator, c CapacityConstraint[T]) ([]CapacityConstraint[T], bool) {
	for _, have := range cs {
		if have.Equal(c) {
			return cs, false
		}
	}
	c.id = ids.Next()
	return append(cs, c), true
}
