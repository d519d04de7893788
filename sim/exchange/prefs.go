package exchange

import (
	"math"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
)

// TradeSense tells a PairPrefAdjuster which side of the trade it sits on.
type TradeSense int

const (
	SenseRequest TradeSense = iota // adjuster is an ancestor of the requester
	SenseBid                       // adjuster is an ancestor of the bidder
)

func (s TradeSense) String() string {
	if s == SenseBid {
		return "bid"
	}
	return "request"
}

// PrefAdjuster rewrites a whole preference map. Requesters and their
// ancestors may implement it.
type PrefAdjuster[T sim.Resource] interface {
	AdjustPrefs(prefs PrefMap[T])
}

// RequestInfo describes the request side of a trade to a PairPrefAdjuster.
type RequestInfo struct {
	ID          int
	RequesterID int
	Commodity   string
	Quantity    float64
}

// BidInfo describes the bid side of a trade to a PairPrefAdjuster.
type BidInfo struct {
	ID       int
	BidderID int
	Quantity float64
}

// PairPrefAdjuster adjusts one request/bid preference at a time. It is not
// tied to a resource type, so one institution or region can serve every
// exchange.
type PairPrefAdjuster interface {
	AdjustPref(req RequestInfo, bid BidInfo, pref float64, sense TradeSense) float64
}

// AdjustPreferences runs every preference adjuster for the round. For each
// requester, in id order: the requester itself, then its ancestors from the
// nearest up, then for each bid the bidder's ancestors from the nearest up.
// A non-finite preference afterwards is a StateError.
func AdjustPreferences[T sim.Resource](ctx *Context[T]) error {
	for _, requester := range ctx.Requesters() {
		prefs := ctx.Prefs(requester.ID())
		if prefs == nil {
			continue
		}
		reqs := requestsOf(ctx, requester)

		if a, ok := requester.(PrefAdjuster[T]); ok {
			a.AdjustPrefs(prefs)
		}
		for e := requester.Parent(); e != nil; e = e.Parent() {
			applyAdjuster(e, prefs, reqs, SenseRequest)
		}
		for _, r := range reqs {
			for i := range prefs[r] {
				bp := &prefs[r][i]
				for e := bp.Bid.bidder.Parent(); e != nil; e = e.Parent() {
					if a, ok := e.(PairPrefAdjuster); ok {
						bp.Pref = a.AdjustPref(requestInfo(r), bidInfo(bp.Bid), bp.Pref, SenseBid)
					}
				}
			}
		}

		for _, r := range reqs {
			for _, bp := range prefs[r] {
				if math.IsNaN(bp.Pref) || math.IsInf(bp.Pref, 0) {
					return sim.NewStateError("preference of bid %d on request %d is %g after adjustment",
						bp.Bid.id, r.id, bp.Pref)
				}
			}
		}
	}
	return nil
}

func applyAdjuster[T sim.Resource](e Entity, prefs PrefMap[T], reqs []*Request[T], sense TradeSense) {
	if a, ok := e.(PrefAdjuster[T]); ok {
		a.AdjustPrefs(prefs)
		return
	}
	a, ok := e.(PairPrefAdjuster)
	if !ok {
		return
	}
	for _, r := range reqs {
		for i := range prefs[r] {
			bp := &prefs[r][i]
			bp.Pref = a.AdjustPref(requestInfo(r), bidInfo(bp.Bid), bp.Pref, sense)
		}
	}
}

// requestsOf lists the requests of one requester in portfolio order.
func requestsOf[T sim.Resource](ctx *Context[T], requester Trader[T]) []*Request[T] {
	var out []*Request[T]
	for _, p := range ctx.RequestPortfolios() {
		if p.requester.ID() == requester.ID() {
			out = append(out, p.requests...)
		}
	}
	return out
}

func requestInfo[T sim.Resource](r *Request[T]) RequestInfo {
	return RequestInfo{
		ID:          r.id,
		RequesterID: r.requester.ID(),
		Commodity:   r.commodity,
		Quantity:    r.target.Quantity(),
	}
}

func bidInfo[T sim.Resource](b *Bid[T]) BidInfo {
	return BidInfo{ID: b.id, BidderID: b.bidder.ID(), Quantity: b.offer.Quantity()}
}
