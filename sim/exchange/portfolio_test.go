package exchange_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/exchange"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/internal/testutil"
)

func TestRequestPortfolio_AddRequest_AccumulatesQty(t *testing.T) {
	ids := sim.NewIDGenerator(1)
	tr := testutil.NewWidgetTrader(1, ids)
	p := exchange.NewRequestPortfolio[*widget]()

	r1, err := p.AddRequest(testutil.NewWidget(1, 3), tr, "widgets", 1, false)
	require.NoError(t, err)
	_, err = p.AddRequest(testutil.NewWidget(2, 4), tr, "widgets", 2, true)
	require.NoError(t, err)

	assert.InDelta(t, 7, p.Qty(), sim.Eps)
	assert.Len(t, p.Requests(), 2)
	assert.Same(t, p, r1.Portfolio())
	assert.Equal(t, "widgets", p.Commodity())
	assert.Equal(t, 1, p.Requester().ID())
}

func TestRequestPortfolio_MismatchedInsert_IsStateErrorWithoutMutation(t *testing.T) {
	tests := []struct {
		name      string
		requester int
		commodity string
	}{
		{name: "different requester", requester: 2, commodity: "widgets"},
		{name: "different commodity", requester: 1, commodity: "gadgets"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// GIVEN a portfolio holding one request from trader 1 for widgets
			ids := sim.NewIDGenerator(1)
			p := exchange.NewRequestPortfolio[*widget]()
			_, err := p.AddRequest(testutil.NewWidget(1, 5), testutil.NewWidgetTrader(1, ids), "widgets", 1, false)
			require.NoError(t, err)

			// WHEN a mismatched request is inserted
			_, err = p.AddRequest(testutil.NewWidget(2, 5), testutil.NewWidgetTrader(tc.requester, ids), tc.commodity, 1, false)

			// THEN it fails and the portfolio is unchanged
			assert.True(t, sim.IsStateError(err))
			assert.Len(t, p.Requests(), 1)
			assert.InDelta(t, 5, p.Qty(), sim.Eps)
			assert.Equal(t, "widgets", p.Commodity())
		})
	}
}

func TestBidPortfolio_MismatchedBidder_IsStateErrorWithoutMutation(t *testing.T) {
	// GIVEN a bid portfolio with one bid from trader 2
	ids := sim.NewIDGenerator(1)
	rp := exchange.NewRequestPortfolio[*widget]()
	req, err := rp.AddRequest(testutil.NewWidget(1, 5), testutil.NewWidgetTrader(1, ids), "widgets", 1, false)
	require.NoError(t, err)
	bp := exchange.NewBidPortfolio[*widget]()
	_, err = bp.AddBid(req, testutil.NewWidget(2, 5), testutil.NewWidgetTrader(2, ids), false)
	require.NoError(t, err)

	// WHEN trader 3 bids into the same portfolio
	_, err = bp.AddBid(req, testutil.NewWidget(3, 5), testutil.NewWidgetTrader(3, ids), false)

	// THEN it fails and nothing changes
	assert.True(t, sim.IsStateError(err))
	assert.Len(t, bp.Bids(), 1)
	assert.Equal(t, 2, bp.Bidder().ID())
}

func TestRequestPortfolio_AddMutualReqs_AveragesDemand(t *testing.T) {
	// GIVEN requests of 4 and 8 plus an independent request of 3
	ids := sim.NewIDGenerator(1)
	tr := testutil.NewWidgetTrader(1, ids)
	p := exchange.NewRequestPortfolio[*widget]()
	a, err := p.AddRequest(testutil.NewWidget(1, 4), tr, "widgets", 1, true)
	require.NoError(t, err)
	b, err := p.AddRequest(testutil.NewWidget(2, 8), tr, "widgets", 1, true)
	require.NoError(t, err)
	_, err = p.AddRequest(testutil.NewWidget(3, 3), tr, "widgets", 1, false)
	require.NoError(t, err)

	// WHEN the first two are declared mutual
	require.NoError(t, p.AddMutualReqs([]*exchange.Request[*widget]{a, b}))

	// THEN the pair counts once at its average quantity of 6
	assert.InDelta(t, 9, p.Qty(), sim.Eps)
	assert.InDelta(t, 9, p.DefaultConstraint().Capacity(), sim.Eps)
	require.Len(t, p.MutualGroups(), 1)
	assert.Len(t, p.MutualGroups()[0], 2)
}

func TestRequestPortfolio_AddMutualReqs_ForeignRequest_IsStateError(t *testing.T) {
	ids := sim.NewIDGenerator(1)
	tr := testutil.NewWidgetTrader(1, ids)
	p1 := exchange.NewRequestPortfolio[*widget]()
	p2 := exchange.NewRequestPortfolio[*widget]()
	r, err := p2.AddRequest(testutil.NewWidget(1, 4), tr, "widgets", 1, false)
	require.NoError(t, err)

	assert.True(t, sim.IsStateError(p1.AddMutualReqs([]*exchange.Request[*widget]{r})))
}

func TestPortfolio_AddConstraint_DeduplicatesEqual(t *testing.T) {
	// GIVEN a bid portfolio
	p := exchange.NewBidPortfolio[*widget]()

	// WHEN equal constraints are added twice and a different one once
	first := p.AddConstraint(exchange.NewCapacityConstraint[*widget](10, nil))
	dup := p.AddConstraint(exchange.NewCapacityConstraint[*widget](10, exchange.TrivialConverter[*widget]{}))
	other := p.AddConstraint(exchange.NewCapacityConstraint[*widget](5, nil))

	// THEN the duplicate is dropped and ids follow insertion order
	assert.True(t, first)
	assert.False(t, dup)
	assert.True(t, other)
	require.Len(t, p.Constraints(), 2)
	assert.Less(t, p.Constraints()[0].ID(), p.Constraints()[1].ID())
}

func TestPortfolio_ConstraintIDs_ConsecutivePerPortfolio(t *testing.T) {
	// GIVEN a request portfolio and a bid portfolio
	rp := exchange.NewRequestPortfolio[*widget]()
	bp := exchange.NewBidPortfolio[*widget]()

	// WHEN each declares two distinct constraints around a rejected duplicate
	rp.AddConstraint(exchange.NewCapacityConstraint[*widget](10, nil))
	rp.AddConstraint(exchange.NewCapacityConstraint[*widget](10, nil))
	rp.AddConstraint(exchange.NewCapacityConstraint[*widget](3, nil))
	bp.AddConstraint(exchange.NewCapacityConstraint[*widget](7, nil))
	bp.AddConstraint(exchange.NewCapacityConstraint[*widget](8, nil))

	// THEN each portfolio numbers its own constraints from 0 and duplicates consume no id
	require.Len(t, rp.Constraints(), 2)
	assert.Equal(t, 0, rp.Constraints()[0].ID())
	assert.Equal(t, 1, rp.Constraints()[1].ID())
	require.Len(t, bp.Constraints(), 2)
	assert.Equal(t, 0, bp.Constraints()[0].ID())
	assert.Equal(t, 1, bp.Constraints()[1].ID())
}

func TestDefaultCoeffConverter_Equal(t *testing.T) {
	ids := sim.NewIDGenerator(1)
	p := exchange.NewRequestPortfolio[*widget]()
	_, err := p.AddRequest(testutil.NewWidget(1, 4), testutil.NewWidgetTrader(1, ids), "widgets", 1, false)
	require.NoError(t, err)

	a := p.DefaultConstraint()
	b := p.DefaultConstraint()
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(exchange.NewCapacityConstraint[*widget](4, nil)))
}
