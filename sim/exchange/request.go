package exchange

import "github.com/fuelcycle-sim/fuelcycle-sim/sim"

// Request is a trader's demand for a resource of some commodity.
type Request[T sim.Resource] struct {
	id         int
	target     T
	requester  Trader[T]
	commodity  string
	preference float64
	exclusive  bool
	portfolio  *RequestPortfolio[T]
}

// ID is assigned when the owning portfolio joins a Context; 0 before that.
func (r *Request[T]) ID() int                         { return r.id }
func (r *Request[T]) Target() T                       { return r.target }
func (r *Request[T]) Requester() Trader[T]            { return r.requester }
func (r *Request[T]) Commodity() string               { return r.commodity }
func (r *Request[T]) Preference() float64             { return r.preference }
func (r *Request[T]) Exclusive() bool                 { return r.exclusive }
func (r *Request[T]) Portfolio() *RequestPortfolio[T] { return r.portfolio }

// Bid is a trader's offer of a resource in answer to one request.
type Bid[T sim.Resource] struct {
	id        int
	request   *Request[T]
	offer     T
	bidder    Trader[T]
	exclusive bool
	portfolio *BidPortfolio[T]
}

// ID is assigned when the owning portfolio joins a Context; 0 before that.
func (b *Bid[T]) ID() int                     { return b.id }
func (b *Bid[T]) Request() *Request[T]        { return b.request }
func (b *Bid[T]) Offer() T                    { return b.offer }
func (b *Bid[T]) Bidder() Trader[T]           { return b.bidder }
func (b *Bid[T]) Exclusive() bool             { return b.exclusive }
func (b *Bid[T]) Portfolio() *BidPortfolio[T] { return b.portfolio }
