package exchange_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/exchange"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/internal/testutil"
)

type widget = testutil.Widget

// requester creates a trader posting one portfolio with one request per qty.
func requester(t *testing.T, id int, ids *sim.IDGenerator, commod string, pref float64, exclusive bool, qtys ...float64) *testutil.FakeTrader[*widget] {
	t.Helper()
	tr := testutil.NewWidgetTrader(id, ids)
	tr.Requests = func(int) []*exchange.RequestPortfolio[*widget] {
		p := exchange.NewRequestPortfolio[*widget]()
		for _, q := range qtys {
			_, err := p.AddRequest(testutil.NewWidget(ids.Next(), q), tr, commod, pref, exclusive)
			require.NoError(t, err)
		}
		return []*exchange.RequestPortfolio[*widget]{p}
	}
	return tr
}

// supplier creates a trader bidding offer on every request for commod,
// limited to capacity in total.
func supplier(t *testing.T, id int, ids *sim.IDGenerator, commod string, offer, capacity float64) *testutil.FakeTrader[*widget] {
	t.Helper()
	tr := testutil.NewWidgetTrader(id, ids)
	tr.Bids = func(ctx *exchange.Context[*widget], _ int) []*exchange.BidPortfolio[*widget] {
		reqs := ctx.RequestsForCommod(commod)
		if len(reqs) == 0 {
			return nil
		}
		p := exchange.NewBidPortfolio[*widget]()
		for _, r := range reqs {
			_, err := p.AddBid(r, testutil.NewWidget(ids.Next(), offer), tr, false)
			require.NoError(t, err)
		}
		p.AddConstraint(exchange.NewCapacityConstraint[*widget](capacity, nil))
		return []*exchange.BidPortfolio[*widget]{p}
	}
	return tr
}

// collect builds a context the way the manager does.
func collect(t *testing.T, traders ...*testutil.FakeTrader[*widget]) *exchange.Context[*widget] {
	t.Helper()
	ctx := exchange.NewContext[*widget](sim.NewIDGenerator(1))
	for _, tr := range traders {
		for _, p := range tr.GetRequests(0) {
			require.NoError(t, ctx.AddRequestPortfolio(p))
		}
	}
	for _, tr := range traders {
		for _, p := range tr.GetBids(ctx, 0) {
			require.NoError(t, ctx.AddBidPortfolio(p))
		}
	}
	return ctx
}

func asTraders(fs ...*testutil.FakeTrader[*widget]) []exchange.Trader[*widget] {
	out := make([]exchange.Trader[*widget], len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}
