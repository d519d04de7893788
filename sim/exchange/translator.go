package exchange

import (
	"github.com/sirupsen/logrus"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/graph"
)

// TranslationContext maps requests and bids to graph nodes and back.
type TranslationContext[T sim.Resource] struct {
	RequestToNode map[*Request[T]]graph.NodeID
	NodeToRequest map[graph.NodeID]*Request[T]
	BidToNode     map[*Bid[T]]graph.NodeID
	NodeToBid     map[graph.NodeID]*Bid[T]
}

func newTranslationContext[T sim.Resource]() *TranslationContext[T] {
	return &TranslationContext[T]{
		RequestToNode: make(map[*Request[T]]graph.NodeID),
		NodeToRequest: make(map[graph.NodeID]*Request[T]),
		BidToNode:     make(map[*Bid[T]]graph.NodeID),
		NodeToBid:     make(map[graph.NodeID]*Bid[T]),
	}
}

// Translator turns a Context into a graph.Graph and solved matches back into
// trades. A Translator is single-use.
type Translator[T sim.Resource] struct {
	ctx  *Context[T]
	xctx *TranslationContext[T]
	g    *graph.Graph

	// constraint rows per portfolio, in row order
	reqRows map[*RequestPortfolio[T]][]CapacityConstraint[T]
	bidRows map[*BidPortfolio[T]][]CapacityConstraint[T]
}

// NewTranslator creates a translator for ctx.
func NewTranslator[T sim.Resource](ctx *Context[T]) *Translator[T] {
	return &Translator[T]{
		ctx:     ctx,
		xctx:    newTranslationContext[T](),
		reqRows: make(map[*RequestPortfolio[T]][]CapacityConstraint[T]),
		bidRows: make(map[*BidPortfolio[T]][]CapacityConstraint[T]),
	}
}

// TranslationContext exposes the node maps built by Translate.
func (t *Translator[T]) TranslationContext() *TranslationContext[T] { return t.xctx }

// Translate builds the exchange graph: a request group per request
// portfolio, a supply group per bid portfolio and an arc per bid whose
// adjusted preference is positive.
func (t *Translator[T]) Translate() (*graph.Graph, error) {
	if t.g != nil {
		return nil, sim.NewStateError("translator already used")
	}
	g := graph.New()
	t.g = g

	for _, p := range t.ctx.RequestPortfolios() {
		if err := t.translateRequestPortfolio(p); err != nil {
			return nil, err
		}
	}
	for _, p := range t.ctx.BidPortfolios() {
		if err := t.translateBidPortfolio(p); err != nil {
			return nil, err
		}
	}
	for _, p := range t.ctx.BidPortfolios() {
		for _, b := range p.bids {
			if err := t.translateArc(b); err != nil {
				return nil, err
			}
		}
	}
	logrus.Debugf("translated %d request portfolios and %d bid portfolios into %d nodes and %d arcs",
		len(t.ctx.RequestPortfolios()), len(t.ctx.BidPortfolios()), g.NumNodes(), len(g.Arcs()))
	return g, nil
}

func (t *Translator[T]) translateRequestPortfolio(p *RequestPortfolio[T]) error {
	gid := t.g.AddRequestGroup(p.Qty())
	for _, r := range p.requests {
		nid, err := t.g.AddNode(gid, graph.Node{
			AgentID:   r.requester.ID(),
			Commodity: r.commodity,
			Qty:       r.target.Quantity(),
			Exclusive: r.exclusive,
		})
		if err != nil {
			return err
		}
		t.xctx.RequestToNode[r] = nid
		t.xctx.NodeToRequest[nid] = r
	}

	rows := append([]CapacityConstraint[T]{p.DefaultConstraint()}, p.Constraints()...)
	t.reqRows[p] = rows
	for _, c := range rows {
		if err := t.g.AddCapacity(gid, graph.Row{Value: c.Capacity()}); err != nil {
			return err
		}
	}

	for _, mutual := range p.MutualGroups() {
		var members []graph.NodeID
		for _, r := range mutual {
			if r.exclusive {
				members = append(members, t.xctx.RequestToNode[r])
			}
		}
		if len(members) > 1 {
			if err := t.g.AddExclGroup(gid, members); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Translator[T]) translateBidPortfolio(p *BidPortfolio[T]) error {
	gid := t.g.AddSupplyGroup()
	for _, b := range p.bids {
		nid, err := t.g.AddNode(gid, graph.Node{
			AgentID:   b.bidder.ID(),
			Commodity: b.request.commodity,
			Qty:       b.offer.Quantity(),
			Exclusive: b.exclusive,
		})
		if err != nil {
			return err
		}
		t.xctx.BidToNode[b] = nid
		t.xctx.NodeToBid[nid] = b
	}

	t.bidRows[p] = p.Constraints()
	for _, c := range p.Constraints() {
		if err := t.g.AddCapacity(gid, graph.Row{Value: c.Capacity()}); err != nil {
			return err
		}
	}
	return nil
}

func (t *Translator[T]) translateArc(b *Bid[T]) error {
	pref, ok := t.ctx.Pref(b)
	if !ok {
		return sim.NewStateError("bid %d has no preference entry", b.id)
	}
	if pref <= 0 {
		logrus.Debugf("ignoring bid %d from trader %d on request %d: preference %g",
			b.id, b.bidder.ID(), b.request.id, pref)
		return nil
	}
	offerQty := b.offer.Quantity()
	if offerQty <= sim.Eps {
		logrus.Debugf("ignoring bid %d from trader %d: empty offer", b.id, b.bidder.ID())
		return nil
	}

	u, ok := t.xctx.RequestToNode[b.request]
	if !ok {
		return sim.NewStateError("request %d was not translated", b.request.id)
	}
	v := t.xctx.BidToNode[b]
	aid, err := t.g.AddArc(u, v)
	if err != nil {
		return err
	}
	a := t.g.Arc(aid)

	if err := t.g.SetUnitCaps(aid, v, t.unitCaps(b.offer, a, t.bidRows[b.portfolio])); err != nil {
		return err
	}
	if err := t.g.SetUnitCaps(aid, u, t.unitCaps(b.offer, a, t.reqRows[b.request.portfolio])); err != nil {
		return err
	}
	return t.g.SetPref(aid, pref)
}

func (t *Translator[T]) unitCaps(offer T, a graph.Arc, rows []CapacityConstraint[T]) []float64 {
	caps := make([]float64, len(rows))
	for i, c := range rows {
		caps[i] = c.Convert(offer, a, t.xctx) / offer.Quantity()
	}
	return caps
}

// BackTranslateSolution turns matches on the translated graph into trades,
// in match order.
func (t *Translator[T]) BackTranslateSolution(matches []graph.Match) ([]Trade[T], error) {
	if t.g == nil {
		return nil, sim.NewStateError("back-translation before translation")
	}
	trades := make([]Trade[T], 0, len(matches))
	for _, m := range matches {
		a := t.g.Arc(m.Arc)
		req, ok := t.xctx.NodeToRequest[a.U]
		if !ok {
			return nil, sim.NewStateError("node %d of arc %d maps to no request", a.U, m.Arc)
		}
		bid, ok := t.xctx.NodeToBid[a.V]
		if !ok {
			return nil, sim.NewStateError("node %d of arc %d maps to no bid", a.V, m.Arc)
		}
		trades = append(trades, Trade[T]{request: req, bid: bid, amount: m.Qty})
	}
	logrus.Debugf("back-translated %d matches", len(trades))
	return trades, nil
}
