package exchange_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/exchange"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/graph"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/internal/testutil"
)

// halfConverter charges half the offered quantity.
type halfConverter struct{}

func (halfConverter) Convert(offer *widget, _ graph.Arc, _ *exchange.TranslationContext[*widget]) float64 {
	return offer.Quantity() / 2
}

func (halfConverter) Equal(other exchange.Converter[*widget]) bool {
	_, ok := other.(halfConverter)
	return ok
}

func TestTranslator_Translate_BuildsGroupsNodesAndArcs(t *testing.T) {
	// GIVEN one requester with two requests and one supplier with a half-rate constraint
	ids := sim.NewIDGenerator(1000)
	r := requester(t, 1, ids, "widgets", 2, false, 4, 6)
	s := supplier(t, 2, ids, "widgets", 8, 10)
	ctx := collect(t, r, s)
	ctx.BidPortfolios()[0].AddConstraint(exchange.NewCapacityConstraint[*widget](3, halfConverter{}))

	// WHEN translated
	tr := exchange.NewTranslator(ctx)
	g, err := tr.Translate()
	require.NoError(t, err)

	// THEN there is a request group with the default row and a supply group with two rows
	require.Len(t, g.RequestGroups(), 1)
	require.Len(t, g.SupplyGroups(), 1)
	rg := g.Group(g.RequestGroups()[0])
	assert.InDelta(t, 10, rg.Qty, sim.Eps)
	require.Len(t, rg.Rows, 1)
	assert.Equal(t, graph.SenseGTEQ, rg.Rows[0].Sense)
	sg := g.Group(g.SupplyGroups()[0])
	require.Len(t, sg.Rows, 2)
	assert.Equal(t, graph.SenseLTEQ, sg.Rows[1].Sense)

	// AND one arc per bid carrying preferences and unit capacities
	require.Len(t, g.Arcs(), 2)
	for _, a := range g.Arcs() {
		assert.Equal(t, 2.0, g.Node(a.U).Prefs[a.ID])
		assert.Equal(t, []float64{1}, g.Node(a.U).UnitCaps[a.ID])
		assert.Equal(t, []float64{1, 0.5}, g.Node(a.V).UnitCaps[a.ID])
		assert.Equal(t, 1, g.Node(a.U).AgentID)
		assert.Equal(t, 2, g.Node(a.V).AgentID)
	}
}

func TestTranslator_MutualExclusiveRequests_BecomeExclusiveGrouping(t *testing.T) {
	// GIVEN two exclusive requests declared mutual
	ids := sim.NewIDGenerator(1000)
	r := testutil.NewWidgetTrader(1, ids)
	r.Requests = func(int) []*exchange.RequestPortfolio[*widget] {
		p := exchange.NewRequestPortfolio[*widget]()
		a, err := p.AddRequest(testutil.NewWidget(ids.Next(), 4), r, "widgets", 1, true)
		require.NoError(t, err)
		b, err := p.AddRequest(testutil.NewWidget(ids.Next(), 8), r, "widgets", 1, true)
		require.NoError(t, err)
		require.NoError(t, p.AddMutualReqs([]*exchange.Request[*widget]{a, b}))
		return []*exchange.RequestPortfolio[*widget]{p}
	}
	ctx := collect(t, r, supplier(t, 2, ids, "widgets", 8, 100))

	// WHEN translated
	g, err := exchange.NewTranslator(ctx).Translate()
	require.NoError(t, err)

	// THEN the group holds two singletons plus the mutual pair, and coefficients scale unit capacities
	rg := g.Group(g.RequestGroups()[0])
	require.Len(t, rg.ExclGroups, 3)
	assert.Len(t, rg.ExclGroups[2], 2)
	assert.InDelta(t, 6, rg.Qty, sim.Eps)
	caps := map[float64]float64{}
	for _, a := range g.Arcs() {
		caps[g.Node(a.U).Qty] = g.Node(a.U).UnitCaps[a.ID][0]
	}
	assert.InDelta(t, 4.0/6, caps[4], 1e-12)
	assert.InDelta(t, 8.0/6, caps[8], 1e-12)
}

func TestTranslator_NonPositivePreference_NoArc(t *testing.T) {
	ids := sim.NewIDGenerator(1000)
	ctx := collect(t, requester(t, 1, ids, "widgets", 0, false, 5), supplier(t, 2, ids, "widgets", 5, 10))

	g, err := exchange.NewTranslator(ctx).Translate()

	require.NoError(t, err)
	assert.Empty(t, g.Arcs())
	assert.Equal(t, 2, g.NumNodes())
}

func TestTranslator_SingleUse(t *testing.T) {
	ids := sim.NewIDGenerator(1000)
	tr := exchange.NewTranslator(collect(t, requester(t, 1, ids, "widgets", 1, false, 5)))

	_, err := tr.Translate()
	require.NoError(t, err)
	_, err = tr.Translate()
	assert.True(t, sim.IsStateError(err))
}

func TestTranslator_BackTranslate_RoundTrip(t *testing.T) {
	// GIVEN a translated exchange with one arc
	ids := sim.NewIDGenerator(1000)
	ctx := collect(t, requester(t, 1, ids, "widgets", 1, false, 5), supplier(t, 2, ids, "widgets", 5, 10))
	tr := exchange.NewTranslator(ctx)
	g, err := tr.Translate()
	require.NoError(t, err)
	require.Len(t, g.Arcs(), 1)

	// WHEN a match on that arc is back-translated
	trades, err := tr.BackTranslateSolution([]graph.Match{{Arc: g.Arcs()[0].ID, Qty: 3}})

	// THEN the trade pairs the original request and bid
	require.NoError(t, err)
	require.Len(t, trades, 1)
	req := ctx.RequestsForCommod("widgets")[0]
	assert.Same(t, req, trades[0].Request())
	assert.Same(t, ctx.BidsForRequest(req)[0], trades[0].Bid())
	assert.InDelta(t, 3, trades[0].Amount(), sim.Eps)
	assert.Equal(t, req, tr.TranslationContext().NodeToRequest[g.Arcs()[0].U])
}

func TestTranslator_BackTranslateBeforeTranslate_IsStateError(t *testing.T) {
	tr := exchange.NewTranslator(exchange.NewContext[*widget](nil))
	_, err := tr.BackTranslateSolution(nil)
	assert.True(t, sim.IsStateError(err))
}
